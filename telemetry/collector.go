package telemetry

import (
	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/snapshot"
)

// Collector accumulates sync events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames uint64

	// Current window tracking
	windowStartFrame uint64
	lastDropped      uint64

	// Event counters for current window
	snapshots int
	created   int
	applied   int
	unknown   int
	stale     int

	// Population history across windows
	populationSum     int
	populationSamples int
	firstPopulation   int
	havePopulation    bool
}

// NewCollector creates a new stats collector flushing every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: uint64(windowFrames)}
}

// RecordCreate records organisms created for first-seen ids.
func (c *Collector) RecordCreate(n int) {
	c.created += n
}

// RecordUpdate records one applied snapshot.
func (c *Collector) RecordUpdate(report renderer.UpdateReport) {
	c.snapshots++
	c.applied += report.Applied
	c.unknown += report.Unknown
	c.stale += report.Stale
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame uint64) bool {
	return frame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - frame: the current frame number
// - tracked: number of organisms the renderer tracks
// - last: the most recently applied snapshot, or nil
// - dropped: cumulative count of snapshots overwritten before being taken
func (c *Collector) Flush(frame uint64, tracked int, last *snapshot.Ecosystem, dropped uint64) WindowStats {
	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		Tracked:          tracked,
		Snapshots:        c.snapshots,
		SnapshotsDropped: dropped - c.lastDropped,
		Created:          c.created,
		Applied:          c.applied,
		Unknown:          c.unknown,
		Stale:            c.stale,
	}

	if last != nil {
		stats.SimTick = last.Tick
		stats.Population = len(last.Organisms)

		energies := make([]float64, 0, len(last.Organisms))
		for _, o := range last.Organisms {
			energies = append(energies, o.Energy)
			switch renderer.ClassifyBand(o.Energy) {
			case renderer.BandHealthy:
				stats.Healthy++
			case renderer.BandWarning:
				stats.Warning++
			default:
				stats.Critical++
			}
		}
		stats.EnergyMean, stats.EnergyStd, stats.EnergyP10, stats.EnergyP50, stats.EnergyP90 = ComputeEnergyStats(energies)

		if !c.havePopulation {
			c.firstPopulation = stats.Population
			c.havePopulation = true
		}
		c.populationSum += stats.Population
		c.populationSamples++

		if c.firstPopulation > 0 {
			stats.SurvivalRate = float64(stats.Population) / float64(c.firstPopulation) * 100
		}
	}

	if c.populationSamples > 0 {
		stats.AvgPopulation = float64(c.populationSum) / float64(c.populationSamples)
	}

	// Reset for next window
	c.windowStartFrame = frame
	c.lastDropped = dropped
	c.snapshots = 0
	c.created = 0
	c.applied = 0
	c.unknown = 0
	c.stale = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() uint64 {
	return c.windowFrames
}
