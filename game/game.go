// Package game drives the viewer once per frame: it takes the newest
// snapshot, keeps the renderer in step with it and records telemetry.
package game

import (
	"log/slog"

	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/snapshot"
	"github.com/pthm-cable/ecoview/telemetry"
	"github.com/pthm-cable/ecoview/ui"
)

// Source hands over the latest snapshot. snapshot.Mailbox satisfies it.
type Source interface {
	Take() (*snapshot.Ecosystem, bool)
	Counts() (puts, dropped uint64)
}

// Overlay draws the HUD. ui.HUD satisfies it.
type Overlay interface {
	Draw(data ui.HUDData)
}

// bookmarkHistory is the number of telemetry windows bookmarks compare against.
const bookmarkHistory = 10

// maxBookmarks bounds the bookmarks kept in memory.
const maxBookmarks = 32

// Options configures a Game.
type Options struct {
	SourceName    string                   // shown in the status bar
	WindowFrames  int                      // frames per telemetry window
	Output        *telemetry.OutputManager // nil disables CSV output
	LogStats      bool                     // log each telemetry window
	Overlay       Overlay                  // nil disables the HUD
	Inspector     *ui.Inspector            // nil disables the detail panel
	StatsCallback func(telemetry.WindowStats)
}

// Game connects a snapshot source to a renderer.
type Game struct {
	renderer  *renderer.Renderer
	source    Source
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	lifetimes *telemetry.LifetimeTracker
	output    *telemetry.OutputManager
	overlay   Overlay
	inspector *ui.Inspector

	sourceName    string
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	marks        []telemetry.Bookmark
	last         *snapshot.Ecosystem
	inspected    snapshot.Organism // last known record of the selection
	frame        uint64
	createErrors int
}

// New creates a Game and registers its hooks on r.
func New(r *renderer.Renderer, src Source, opts Options) *Game {
	g := &Game{
		renderer:      r,
		source:        src,
		collector:     telemetry.NewCollector(opts.WindowFrames),
		perf:          telemetry.NewPerfCollector(opts.WindowFrames),
		bookmarks:     telemetry.NewBookmarkDetector(bookmarkHistory),
		lifetimes:     telemetry.NewLifetimeTracker(),
		output:        opts.Output,
		overlay:       opts.Overlay,
		inspector:     opts.Inspector,
		sourceName:    opts.SourceName,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	r.OnFrame(g.Frame)
	if g.overlay != nil || g.inspector != nil {
		r.OnOverlay(g.drawOverlay)
	}
	return g
}

// Frame applies the pending snapshot, if any, and flushes telemetry at
// window boundaries. The draw phase of a frame runs between two Frame calls,
// so the previous frame's timing is closed here.
func (g *Game) Frame() {
	g.perf.EndFrame()
	g.frame++
	g.perf.StartFrame()

	g.perf.StartPhase(telemetry.PhaseApply)
	if eco, ok := g.source.Take(); ok {
		g.Apply(eco)
	}

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perf.StartPhase(telemetry.PhaseDraw)
}

// Apply creates circles for organisms seen for the first time and then
// updates every tracked organism from eco.
func (g *Game) Apply(eco *snapshot.Ecosystem) renderer.UpdateReport {
	created := 0
	for id, o := range eco.Organisms {
		if g.renderer.Tracks(id) {
			continue
		}
		if o.ID == "" {
			o.ID = id
		}
		if err := g.renderer.CreateOrganism(o); err != nil {
			g.createErrors++
			slog.Warn("skipping organism", "id", id, "error", err)
			continue
		}
		created++
	}

	report := g.renderer.Update(eco)
	g.lifetimes.Observe(g.frame, eco)
	g.collector.RecordCreate(created)
	g.collector.RecordUpdate(report)
	g.last = eco
	return report
}

// Lifetime returns what has been seen of organism id, or nil.
func (g *Game) Lifetime(id string) *telemetry.LifetimeStats {
	return g.lifetimes.Get(id)
}

// Last returns the most recently applied snapshot, or nil.
func (g *Game) Last() *snapshot.Ecosystem {
	return g.last
}

// CreateErrors returns how many organisms could not be created.
func (g *Game) CreateErrors() int {
	return g.createErrors
}

func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.frame) {
		return
	}

	_, dropped := g.source.Counts()
	stats := g.collector.Flush(g.frame, g.renderer.Len(), g.last, dropped)

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	for _, b := range g.bookmarks.Check(stats) {
		b.LogBookmark()
		g.marks = append(g.marks, b)
		if len(g.marks) > maxBookmarks {
			g.marks = g.marks[1:]
		}
		g.capture(b)
	}

	perf := g.perf.Stats()
	if g.logStats {
		stats.LogStats()
		perf.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perf.ToCSV(g.frame)); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// capture saves the shown ecosystem next to the telemetry output.
func (g *Game) capture(b telemetry.Bookmark) {
	if g.last == nil {
		return
	}
	path, err := g.output.SaveCapture(&telemetry.Capture{
		Version:   telemetry.CaptureVersion,
		Frame:     g.frame,
		Source:    g.sourceName,
		Bookmark:  &b,
		Ecosystem: *g.last,
	})
	if err != nil {
		slog.Error("failed to save capture", "error", err)
		return
	}
	if path != "" {
		slog.Info("capture saved", "path", path)
	}
}

// Bookmarks returns the most recent bookmarks, oldest first.
func (g *Game) Bookmarks() []telemetry.Bookmark {
	return g.marks
}

// Perf returns frame timing over the current window.
func (g *Game) Perf() telemetry.PerfStats {
	return g.perf.Stats()
}

// HUDData assembles the values shown by the overlay.
func (g *Game) HUDData() ui.HUDData {
	w, h := g.renderer.Size()
	data := ui.HUDData{
		Title:        g.renderer.Title(),
		Source:       g.sourceName,
		Tracked:      g.renderer.Len(),
		Frame:        g.frame,
		Waiting:      g.last == nil,
		ScreenWidth:  int32(w),
		ScreenHeight: int32(h),
	}
	if g.last != nil {
		data.SimTick = g.last.Tick
		env := g.last.Environment
		data.Environment = &env
		for _, o := range g.last.Organisms {
			if !g.renderer.Tracks(o.ID) {
				continue
			}
			switch renderer.ClassifyBand(o.Energy) {
			case renderer.BandHealthy:
				data.Healthy++
			case renderer.BandWarning:
				data.Warning++
			default:
				data.Critical++
			}
		}
	}
	return data
}

// Inspected returns the record of the selected organism. present is false
// when it is missing from the latest snapshot, in which case the last known
// record is returned. ok is false when nothing is selected.
func (g *Game) Inspected() (o snapshot.Organism, present, ok bool) {
	if g.inspector == nil {
		return snapshot.Organism{}, false, false
	}
	id, selected := g.inspector.Selected()
	if !selected {
		return snapshot.Organism{}, false, false
	}
	if g.last != nil {
		if rec, found := g.last.Organisms[id]; found {
			g.inspected = rec
			return rec, true, true
		}
	}
	if g.inspected.ID != id {
		shape, tracked := g.renderer.Shape(id)
		if !tracked {
			return snapshot.Organism{}, false, false
		}
		g.inspected = snapshot.Organism{
			ID:       id,
			Position: snapshot.Position{X: shape.X, Y: shape.Y},
			Size:     shape.Radius,
		}
	}
	return g.inspected, false, true
}

func (g *Game) drawOverlay() {
	if g.overlay != nil {
		g.overlay.Draw(g.HUDData())
	}
	if o, present, ok := g.Inspected(); ok {
		g.inspector.Draw(o, present, g.lifetimes.Get(o.ID))
	}
}
