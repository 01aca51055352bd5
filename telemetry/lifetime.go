package telemetry

import "github.com/pthm-cable/ecoview/snapshot"

// LifetimeStats tracks what the viewer has seen of one organism.
type LifetimeStats struct {
	FirstSeenFrame uint64
	FirstSeenTick  uint64
	LastSeenTick   uint64

	// Snapshots that carried this organism
	Updates int

	// Energy
	PeakEnergy float64
	MinEnergy  float64
}

// SpanTicks returns the number of simulation ticks between the first and
// last sighting.
func (s *LifetimeStats) SpanTicks() uint64 {
	if s.LastSeenTick < s.FirstSeenTick {
		return 0
	}
	return s.LastSeenTick - s.FirstSeenTick
}

// LifetimeTracker manages per-organism lifetime statistics.
type LifetimeTracker struct {
	stats map[string]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Observe records every organism in eco as seen at frame.
func (lt *LifetimeTracker) Observe(frame uint64, eco *snapshot.Ecosystem) {
	for id, o := range eco.Organisms {
		s := lt.stats[id]
		if s == nil {
			s = &LifetimeStats{
				FirstSeenFrame: frame,
				FirstSeenTick:  eco.Tick,
				PeakEnergy:     o.Energy,
				MinEnergy:      o.Energy,
			}
			lt.stats[id] = s
		}
		s.LastSeenTick = eco.Tick
		s.Updates++
		if o.Energy > s.PeakEnergy {
			s.PeakEnergy = o.Energy
		}
		if o.Energy < s.MinEnergy {
			s.MinEnergy = o.Energy
		}
	}
}

// Get returns the lifetime stats for an organism, or nil if never seen.
func (lt *LifetimeTracker) Get(id string) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an organism's stats and returns them.
func (lt *LifetimeTracker) Remove(id string) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
