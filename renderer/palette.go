package renderer

import (
	"fmt"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Band is an organism health tier derived from its energy.
type Band uint8

const (
	BandHealthy  Band = iota // energy > 75
	BandWarning              // 25 < energy <= 75
	BandCritical             // energy <= 25
)

// Energy thresholds between bands. Boundary values fall into the lower band.
const (
	HealthyAbove = 75.0
	WarningAbove = 25.0
)

var (
	ColorHealthy  = rl.Color{R: 50, G: 205, B: 50, A: 255}
	ColorWarning  = rl.Color{R: 255, G: 165, B: 0, A: 255}
	ColorCritical = rl.Color{R: 220, G: 20, B: 60, A: 255}
)

// ClassifyBand returns the health band for an energy value.
func ClassifyBand(energy float64) Band {
	switch {
	case energy > HealthyAbove:
		return BandHealthy
	case energy > WarningAbove:
		return BandWarning
	default:
		return BandCritical
	}
}

// Classify returns the fill color for an energy value.
func Classify(energy float64) rl.Color {
	return ClassifyBand(energy).Color()
}

// Color returns the fill color of the band.
func (b Band) Color() rl.Color {
	switch b {
	case BandHealthy:
		return ColorHealthy
	case BandWarning:
		return ColorWarning
	default:
		return ColorCritical
	}
}

func (b Band) String() string {
	switch b {
	case BandHealthy:
		return "healthy"
	case BandWarning:
		return "warning"
	case BandCritical:
		return "critical"
	}
	return "unknown"
}

// ParseHexColor parses an "RRGGBB" string into an opaque color.
func ParseHexColor(s string) (rl.Color, error) {
	if len(s) != 6 {
		return rl.Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rl.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return rl.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
