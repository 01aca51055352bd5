// Package renderer draws ecosystem organisms as colored circles.
//
// A Renderer owns a window, a draw batch and a mapping from organism id to
// the circle that represents it. Organisms are created once, then moved and
// recolored in place from each ecosystem snapshot.
package renderer

import (
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecoview/camera"
	"github.com/pthm-cable/ecoview/snapshot"
)

// Default window size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ErrDuplicateID is returned by CreateOrganism under DuplicateReject when
// the id is already tracked.
var ErrDuplicateID = errors.New("renderer: duplicate organism id")

// ErrClosed is returned by CreateOrganism after Close.
var ErrClosed = errors.New("renderer: closed")

// DuplicatePolicy selects what CreateOrganism does with an id it already tracks.
type DuplicatePolicy uint8

const (
	// DuplicateReplace removes the old circle from the batch and tracks a new one.
	DuplicateReplace DuplicatePolicy = iota
	// DuplicateReject leaves the old circle in place and returns ErrDuplicateID.
	DuplicateReject
)

// ParseDuplicatePolicy maps a config value to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "replace":
		return DuplicateReplace, nil
	case "reject":
		return DuplicateReject, nil
	}
	return 0, fmt.Errorf("unknown duplicate id policy %q", s)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDuplicatePolicy sets the duplicate id policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(r *Renderer) { r.duplicates = p }
}

// WithWorldSize sets the world extent shown in the window.
// By default the world matches the window size.
func WithWorldSize(w, h float32) Option {
	return func(r *Renderer) { r.worldW, r.worldH = w, h }
}

// WithBackground sets the clear color.
func WithBackground(c rl.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(r *Renderer) { r.title = title }
}

// WithTargetFPS caps the frame rate of Run.
func WithTargetFPS(fps int) Option {
	return func(r *Renderer) { r.targetFPS = fps }
}

// UpdateReport summarizes one Update call.
type UpdateReport struct {
	Applied int // tracked organisms present in the snapshot
	Unknown int // snapshot organisms not tracked (ignored)
	Stale   int // tracked organisms absent from the snapshot (left unchanged)
}

// Renderer draws tracked organisms into a window.
// All methods must be called from the goroutine that created it.
type Renderer struct {
	window    Window
	batch     *Batch
	camera    *camera.Camera
	organisms map[string]Shape

	duplicates     DuplicatePolicy
	background     rl.Color
	title          string
	targetFPS      int
	worldW, worldH float32

	frameHooks   []func()
	overlayHooks []func()
	frames       uint64
	closed       bool
}

// New opens a window of the given size and returns a Renderer drawing into it.
// Non-positive dimensions fall back to DefaultWidth x DefaultHeight.
func New(width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	r := newRenderer(opts)
	win, err := openWindow(width, height, r.title, r.targetFPS)
	if err != nil {
		return nil, fmt.Errorf("opening %dx%d window: %w", width, height, err)
	}
	r.attach(win)
	return r, nil
}

// NewWithWindow returns a Renderer drawing into an existing window.
func NewWithWindow(win Window, opts ...Option) *Renderer {
	r := newRenderer(opts)
	r.attach(win)
	return r
}

func newRenderer(opts []Option) *Renderer {
	r := &Renderer{
		organisms:  make(map[string]Shape),
		background: rl.Black,
		title:      "Ecosystem",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) attach(win Window) {
	r.window = win
	r.batch = NewBatch()
	w, h := win.Size()
	r.camera = camera.New(float32(w), float32(h), r.worldW, r.worldH)
}

// CreateOrganism adds a circle for o to the batch, colored by its energy.
// An empty id returns snapshot.ErrMissingID.
func (r *Renderer) CreateOrganism(o snapshot.Organism) error {
	if r.closed {
		return ErrClosed
	}
	if o.ID == "" {
		return snapshot.ErrMissingID
	}

	if old, ok := r.organisms[o.ID]; ok {
		if r.duplicates == DuplicateReject {
			return fmt.Errorf("%w: %q", ErrDuplicateID, o.ID)
		}
		r.batch.Remove(old)
	}

	r.organisms[o.ID] = r.batch.Add(o.ID, o.Position.X, o.Position.Y, o.Size, Classify(o.Energy))
	return nil
}

// Update moves and recolors every tracked organism present in eco.
// Organisms in eco that are not tracked are ignored; tracked organisms
// missing from eco keep their last position and color.
func (r *Renderer) Update(eco *snapshot.Ecosystem) UpdateReport {
	var report UpdateReport
	if eco == nil {
		report.Stale = len(r.organisms)
		return report
	}

	for id, shape := range r.organisms {
		o, ok := eco.Organisms[id]
		if !ok {
			report.Stale++
			continue
		}
		shape.SetPosition(o.Position.X, o.Position.Y)
		shape.SetColor(Classify(o.Energy))
		report.Applied++
	}
	report.Unknown = len(eco.Organisms) - report.Applied
	return report
}

// Tracks reports whether id has a circle.
func (r *Renderer) Tracks(id string) bool {
	_, ok := r.organisms[id]
	return ok
}

// Shape returns the visual attributes of the circle tracked for id.
func (r *Renderer) Shape(id string) (ShapeState, bool) {
	s, ok := r.organisms[id]
	if !ok {
		return ShapeState{}, false
	}
	return s.State(), true
}

// Len returns the number of tracked organisms.
func (r *Renderer) Len() int {
	return len(r.organisms)
}

// Size returns the window dimensions in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.window.Size()
}

// Title returns the window title.
func (r *Renderer) Title() string {
	return r.title
}

// Frames returns the number of frames drawn so far.
func (r *Renderer) Frames() uint64 {
	return r.frames
}

// OnFrame registers fn to run at the start of every frame, before drawing.
// Snapshots are usually applied from here.
func (r *Renderer) OnFrame(fn func()) {
	r.frameHooks = append(r.frameHooks, fn)
}

// OnOverlay registers fn to run after the batch is drawn, for HUD text.
func (r *Renderer) OnOverlay(fn func()) {
	r.overlayHooks = append(r.overlayHooks, fn)
}

// Run draws frames until the user closes the window.
func (r *Renderer) Run() {
	for !r.window.ShouldClose() {
		r.frame()
	}
}

func (r *Renderer) frame() {
	for _, fn := range r.frameHooks {
		fn()
	}
	r.window.BeginFrame(r.background)
	r.batch.Draw(r.window, r.camera)
	for _, fn := range r.overlayHooks {
		fn()
	}
	r.window.EndFrame()
	r.frames++
}

// Close releases the batch and the window.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.organisms = nil
	r.batch.Release()
	r.window.Close()
}
