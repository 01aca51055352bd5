package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ecoview/config"
	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/snapshot"
)

func TestComputeEnergyStats(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	mean, std, p10, p50, p90 := ComputeEnergyStats(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Sample standard deviation of 1..10
	if math.Abs(std-3.0277) > 0.001 {
		t.Errorf("std = %v, want ~3.0277", std)
	}
	if p10 != 1 || p50 != 5 || p90 != 9 {
		t.Errorf("percentiles = (%v, %v, %v), want (1, 5, 9)", p10, p50, p90)
	}
	// Input must not be reordered
	if values[0] != 10 {
		t.Error("input slice was modified")
	}
}

func TestComputeEnergyStatsSmall(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeEnergyStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}

	mean, std, _, p50, _ = ComputeEnergyStats([]float64{42})
	if mean != 42 || std != 0 || p50 != 42 {
		t.Errorf("single value: mean %v std %v p50 %v", mean, std, p50)
	}
}

func ecosystem(tick uint64, energies ...float64) *snapshot.Ecosystem {
	eco := &snapshot.Ecosystem{Tick: tick, Organisms: map[string]snapshot.Organism{}}
	for i, e := range energies {
		id := string(rune('a' + i))
		eco.Organisms[id] = snapshot.Organism{ID: id, Size: 5, Energy: e}
	}
	return eco
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10)

	if c.ShouldFlush(9) {
		t.Error("should not flush before window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at window end")
	}

	c.RecordCreate(3)
	c.RecordUpdate(renderer.UpdateReport{Applied: 2, Unknown: 1})
	c.RecordUpdate(renderer.UpdateReport{Applied: 3, Stale: 1})

	stats := c.Flush(10, 3, ecosystem(7, 100, 50, 10, 80), 4)

	if stats.WindowStartFrame != 0 || stats.WindowEndFrame != 10 || stats.SimTick != 7 {
		t.Errorf("window bounds = %+v", stats)
	}
	if stats.Snapshots != 2 || stats.Applied != 5 || stats.Unknown != 1 || stats.Stale != 1 || stats.Created != 3 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.Healthy != 2 || stats.Warning != 1 || stats.Critical != 1 {
		t.Errorf("bands = %d/%d/%d, want 2/1/1", stats.Healthy, stats.Warning, stats.Critical)
	}
	if stats.SnapshotsDropped != 4 {
		t.Errorf("dropped = %d, want 4", stats.SnapshotsDropped)
	}
	if stats.Population != 4 || stats.SurvivalRate != 100 {
		t.Errorf("population = %d survival = %v", stats.Population, stats.SurvivalRate)
	}

	// Counters reset; dropped is reported as a delta
	next := c.Flush(20, 3, ecosystem(8, 90, 90), 6)
	if next.WindowStartFrame != 10 || next.Snapshots != 0 || next.Created != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.SnapshotsDropped != 2 {
		t.Errorf("dropped delta = %d, want 2", next.SnapshotsDropped)
	}
	if next.SurvivalRate != 50 || next.AvgPopulation != 3 {
		t.Errorf("survival = %v avg = %v, want 50 and 3", next.SurvivalRate, next.AvgPopulation)
	}
}

func TestCollectorFlushWithoutSnapshot(t *testing.T) {
	c := NewCollector(1)
	stats := c.Flush(1, 0, nil, 0)
	if stats.Population != 0 || stats.AvgPopulation != 0 || stats.SurvivalRate != 0 {
		t.Errorf("expected empty population report, got %+v", stats)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// Methods are safe on a nil manager
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStatsCSV{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for i := uint64(1); i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndFrame: i * 60, Tracked: int(i)}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WritePerf(PerfStatsCSV{WindowEnd: 60, FPS: 59.5}); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(perf), "window_end,avg_frame_us,") {
		t.Errorf("unexpected perf header %q", perf)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("unexpected header %q", lines[0])
	}

	var rows []WindowStats
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	if len(rows) != 2 || rows[1].WindowEndFrame != 120 || rows[1].Tracked != 2 {
		t.Errorf("rows = %+v", rows)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}
