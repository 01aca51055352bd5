package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecoview/renderer"
)

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       14,
		HeaderFontSize: 16,
	}
}

// Painter draws UI primitives with consistent styling.
type Painter struct {
	Theme Theme
}

// NewPainter creates a painter with the default theme.
func NewPainter() *Painter {
	return &Painter{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (p *Painter) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, p.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, p.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (p *Painter) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, p.Theme.HeaderFontSize, p.Theme.SectionHeader)
	return y + p.Theme.LineHeight + 4
}

// DrawLabelValue draws a label and value on the same line.
func (p *Painter) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawText(value, x+p.Theme.LabelWidth, y, p.Theme.FontSize, p.Theme.ValueColor)
	return y + p.Theme.LineHeight
}

// DrawEnergyBar draws an energy bar filled in the organism's band color.
// The bar is full at max; energy above max is clamped.
func (p *Painter) DrawEnergyBar(x, y int32, energy, max float64, width int32) int32 {
	ratio := EnergyRatio(energy, max)

	barX := x + p.Theme.LabelWidth
	barWidth := width - p.Theme.LabelWidth - 50

	rl.DrawText("Energy:", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, p.Theme.BarHeight, p.Theme.BarBg)

	fillWidth := int32(float64(barWidth) * ratio)
	rl.DrawRectangle(barX, y+2, fillWidth, p.Theme.BarHeight, renderer.Classify(energy))

	rl.DrawText(fmt.Sprintf("%.1f", energy), barX+barWidth+5, y, p.Theme.FontSize, p.Theme.ValueColor)

	return y + p.Theme.LineHeight + 2
}

// EnergyRatio returns energy/max clamped to [0, 1].
func EnergyRatio(energy, max float64) float64 {
	if max <= 0 {
		return 0
	}
	ratio := energy / max
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
