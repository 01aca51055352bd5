package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/ecoview/snapshot"
)

func testCapture() *Capture {
	eco := snapshot.Ecosystem{
		Tick: 42,
		Environment: snapshot.Environment{
			Temperature: 25,
			Humidity:    60,
			PH:          7,
			Resources:   snapshot.Resources{Nutrients: 1000, Water: 900, Light: 500},
		},
		Organisms: map[string]snapshot.Organism{
			"org-1": {ID: "org-1", Position: snapshot.Position{X: 10, Y: 20}, Size: 5, Energy: 80},
			"org-2": {ID: "org-2", Position: snapshot.Position{X: 30, Y: 40}, Size: 5, Energy: 12},
		},
	}
	return &Capture{
		Version: CaptureVersion,
		Frame:   600,
		Source:  "demo",
		Bookmark: &Bookmark{
			Type:        BookmarkPopulationCrash,
			Frame:       600,
			SimTick:     42,
			Description: "Test bookmark",
		},
		Ecosystem: eco,
	}
}

func TestCaptureSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveCapture(testCapture(), tmpDir)
	if err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}
	if want := "capture_600_population_crash.json"; filepath.Base(path) != want {
		t.Errorf("file name = %q, want %q", filepath.Base(path), want)
	}

	loaded, err := LoadCapture(path)
	if err != nil {
		t.Fatalf("LoadCapture failed: %v", err)
	}
	if loaded.Frame != 600 || loaded.Source != "demo" {
		t.Errorf("header = %+v", loaded)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkPopulationCrash {
		t.Errorf("bookmark = %+v", loaded.Bookmark)
	}
	if loaded.Tick != 42 || loaded.Resources.Water != 900 {
		t.Errorf("environment = %+v", loaded.Environment)
	}
	if got := loaded.Organisms["org-2"]; got.Energy != 12 || got.Position.Y != 40 {
		t.Errorf("org-2 = %+v", got)
	}
}

// A capture must decode as a plain snapshot so it can be rendered again.
func TestCaptureIsSnapshot(t *testing.T) {
	path, err := SaveCapture(testCapture(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	eco, err := snapshot.DecodeEcosystem(data)
	if err != nil {
		t.Fatalf("DecodeEcosystem: %v", err)
	}
	if eco.Tick != 42 || len(eco.Organisms) != 2 {
		t.Errorf("decoded = %+v", eco)
	}
	if eco.Temperature != 25 || eco.PH != 7 {
		t.Errorf("environment = %+v", eco.Environment)
	}
}

func TestCaptureWithoutBookmark(t *testing.T) {
	c := testCapture()
	c.Bookmark = nil
	path, err := SaveCapture(c, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "capture_600.json" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "bookmark") {
		t.Error("empty bookmark should be omitted")
	}
}

func TestLoadCaptureVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "organisms": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCapture(path); err == nil {
		t.Error("expected version error")
	}
}
