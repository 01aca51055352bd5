// Package telemetry aggregates per-frame sync statistics into windows
// and writes them to slog and CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame uint64 `csv:"-"`
	WindowEndFrame   uint64 `csv:"window_end"`
	SimTick          uint64 `csv:"sim_tick"`

	// Renderer state at window end
	Tracked  int `csv:"tracked"`
	Healthy  int `csv:"healthy"`
	Warning  int `csv:"warning"`
	Critical int `csv:"critical"`

	// Sync activity during window
	Snapshots        int    `csv:"snapshots"`
	SnapshotsDropped uint64 `csv:"snapshots_dropped"`
	Created          int    `csv:"created"`
	Applied          int    `csv:"applied"`
	Unknown          int    `csv:"unknown"`
	Stale            int    `csv:"stale"`

	// Energy distribution of the last snapshot
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Population report
	Population    int     `csv:"population"`
	AvgPopulation float64 `csv:"avg_population"`
	SurvivalRate  float64 `csv:"survival_rate"` // percent of the first observed population
}

// ComputeEnergyStats calculates mean, standard deviation and percentiles.
// Returns zeros for an empty slice; std is 0 for fewer than two values.
func ComputeEnergyStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartFrame),
		slog.Uint64("window_end", s.WindowEndFrame),
		slog.Uint64("sim_tick", s.SimTick),
		slog.Int("tracked", s.Tracked),
		slog.Int("healthy", s.Healthy),
		slog.Int("warning", s.Warning),
		slog.Int("critical", s.Critical),
		slog.Int("snapshots", s.Snapshots),
		slog.Uint64("snapshots_dropped", s.SnapshotsDropped),
		slog.Int("created", s.Created),
		slog.Int("applied", s.Applied),
		slog.Int("unknown", s.Unknown),
		slog.Int("stale", s.Stale),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Int("population", s.Population),
		slog.Float64("avg_population", s.AvgPopulation),
		slog.Float64("survival_rate", s.SurvivalRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
