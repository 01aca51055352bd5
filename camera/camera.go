// Package camera maps simulation world coordinates onto the window.
package camera

// Camera fits the world into the viewport.
// World coordinates have their origin at the bottom-left corner with Y up;
// screen coordinates have their origin at the top-left corner with Y down.
type Camera struct {
	// Zoom is the world-to-screen scale (1.0 = 1:1)
	Zoom float32

	// Letterbox offsets of the world rectangle on screen
	OffsetX, OffsetY float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32
}

// New creates a camera that shows the whole world, preserving aspect ratio
// and centering it in the viewport.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	if worldW <= 0 {
		worldW = viewportW
	}
	if worldH <= 0 {
		worldH = viewportH
	}

	zoom := viewportW / worldW
	if zy := viewportH / worldH; zy < zoom {
		zoom = zy
	}

	return &Camera{
		Zoom:      zoom,
		OffsetX:   (viewportW - worldW*zoom) / 2,
		OffsetY:   (viewportH - worldH*zoom) / 2,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.OffsetX + wx*c.Zoom
	sy = c.ViewportH - c.OffsetY - wy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = (sx - c.OffsetX) / c.Zoom
	wy = (c.ViewportH - c.OffsetY - sy) / c.Zoom
	return wx, wy
}

// Scale converts a world length (e.g. a radius) to screen pixels.
func (c *Camera) Scale(length float32) float32 {
	return length * c.Zoom
}
