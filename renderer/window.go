package renderer

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrWindow is returned when the OS window or graphics context cannot be created.
var ErrWindow = errors.New("renderer: window initialization failed")

// Window is the drawing surface a Renderer owns.
type Window interface {
	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool
	BeginFrame(background rl.Color)
	DrawCircle(center rl.Vector2, radius float32, color rl.Color)
	EndFrame()
	Size() (width, height int)
	Close()
}

// raylibWindow is the Window backed by a real raylib window.
type raylibWindow struct {
	width, height int
	closed        bool
}

func openWindow(width, height int, title string, targetFPS int) (*raylibWindow, error) {
	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(int32(width), int32(height), title)
	if !rl.IsWindowReady() {
		return nil, ErrWindow
	}
	if targetFPS > 0 {
		rl.SetTargetFPS(int32(targetFPS))
	}
	return &raylibWindow{width: width, height: height}, nil
}

func (w *raylibWindow) ShouldClose() bool {
	return rl.WindowShouldClose()
}

func (w *raylibWindow) BeginFrame(background rl.Color) {
	rl.BeginDrawing()
	rl.ClearBackground(background)
}

func (w *raylibWindow) DrawCircle(center rl.Vector2, radius float32, color rl.Color) {
	rl.DrawCircleV(center, radius, color)
}

func (w *raylibWindow) EndFrame() {
	rl.EndDrawing()
}

func (w *raylibWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *raylibWindow) Close() {
	if w.closed {
		return
	}
	w.closed = true
	rl.CloseWindow()
}
