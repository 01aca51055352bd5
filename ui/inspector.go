package ui

import (
	"fmt"

	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/snapshot"
	"github.com/pthm-cable/ecoview/telemetry"
)

// Panel dimensions
const (
	PanelWidth   = 240
	PanelHeight  = 190
	HeaderHeight = 24
)

// energyBarMax is the energy shown as a full bar.
const energyBarMax = 150.0

// Inspector shows the details of one pinned organism.
type Inspector struct {
	painter     *Painter
	selected    string
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector whose panel sits in the top-right corner.
// An empty id leaves it idle until Select is called.
func NewInspector(screenWidth int32, id string) *Inspector {
	ins := &Inspector{
		painter: NewPainter(),
		panelX:  screenWidth - PanelWidth - 10,
		panelY:  80,
	}
	ins.Select(id)
	return ins
}

// Select pins the organism with the given id. An empty id clears the pin.
func (ins *Inspector) Select(id string) {
	ins.selected = id
	ins.hasSelected = id != ""
}

// Selected returns the pinned organism id.
func (ins *Inspector) Selected() (string, bool) {
	return ins.selected, ins.hasSelected
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.Select("")
}

// Draw renders the panel for o. present is false when the selected organism
// is missing from the latest snapshot; its last known values are shown.
// life may be nil.
func (ins *Inspector) Draw(o snapshot.Organism, present bool, life *telemetry.LifetimeStats) {
	p := ins.painter
	x, y := ins.panelX, ins.panelY

	p.DrawPanel(x, y, PanelWidth, PanelHeight)

	cx := x + p.Theme.Padding
	cy := p.DrawSectionHeader(cx, y+6, o.ID)
	for _, line := range InspectorLines(o, present, life) {
		cy = p.DrawLabelValue(cx, cy, line[0], line[1])
	}
	p.DrawEnergyBar(cx, cy, o.Energy, energyBarMax, PanelWidth-2*p.Theme.Padding)
}

// InspectorLines returns the label/value rows shown for o.
func InspectorLines(o snapshot.Organism, present bool, life *telemetry.LifetimeStats) [][2]string {
	status := renderer.ClassifyBand(o.Energy).String()
	if !present {
		status = "not in snapshot"
	}
	lines := [][2]string{
		{"Position", fmt.Sprintf("%.1f, %.1f", o.Position.X, o.Position.Y)},
		{"Size", fmt.Sprintf("%.1f", o.Size)},
		{"Status", status},
	}
	if life != nil {
		lines = append(lines,
			[2]string{"Seen", fmt.Sprintf("%d ticks, %d updates", life.SpanTicks(), life.Updates)},
			[2]string{"Range", fmt.Sprintf("%.1f - %.1f", life.MinEnergy, life.PeakEnergy)},
		)
	}
	return lines
}
