// Package ui draws the heads-up display over the organism circles.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/snapshot"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Source       string
	Tracked      int
	Healthy      int
	Warning      int
	Critical     int
	Frame        uint64
	SimTick      uint64
	Waiting      bool // no snapshot received yet
	Environment  *snapshot.Environment
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	statusHeight float32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{statusHeight: 24}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(CountsText(data), 10, 35, 16, rl.LightGray)
	rl.DrawText(fmt.Sprintf("Frame: %d | Tick: %d | FPS: %d", data.Frame, data.SimTick, rl.GetFPS()), 10, 55, 16, rl.LightGray)

	if data.Environment != nil {
		rl.DrawText(EnvironmentText(*data.Environment), 10, 75, 16, rl.LightGray)
	}

	h.drawLegend(data.ScreenWidth)

	gui.StatusBar(
		rl.Rectangle{
			X:      0,
			Y:      float32(data.ScreenHeight) - h.statusHeight,
			Width:  float32(data.ScreenWidth),
			Height: h.statusHeight,
		},
		StatusText(data),
	)
}

// drawLegend renders the energy band swatches in the top-right corner.
func (h *HUD) drawLegend(screenWidth int32) {
	x := screenWidth - 130
	y := int32(14)
	for _, b := range []renderer.Band{renderer.BandHealthy, renderer.BandWarning, renderer.BandCritical} {
		rl.DrawCircle(x, y+6, 6, b.Color())
		rl.DrawText(b.String(), x+14, y, 14, rl.LightGray)
		y += 20
	}
}

// CountsText formats the tracked organism counts per band.
func CountsText(data HUDData) string {
	return fmt.Sprintf("Organisms: %d | Healthy: %d | Warning: %d | Critical: %d",
		data.Tracked, data.Healthy, data.Warning, data.Critical)
}

// EnvironmentText formats the ecosystem conditions.
func EnvironmentText(env snapshot.Environment) string {
	return fmt.Sprintf("Temp: %.1f°C | Humidity: %.0f%% | pH: %.2f | Nutrients: %.0f | Light: %.0f",
		env.Temperature, env.Humidity, env.PH, env.Resources.Nutrients, env.Resources.Light)
}

// StatusText formats the status bar line.
func StatusText(data HUDData) string {
	if data.Waiting {
		return fmt.Sprintf("%s: waiting for first snapshot", data.Source)
	}
	return fmt.Sprintf("%s: live", data.Source)
}
