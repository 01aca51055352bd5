package renderer

import (
	"errors"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecoview/snapshot"
)

// fakeWindow records draw calls instead of talking to a GPU.
type fakeWindow struct {
	width, height int
	closeAfter    int // frames before ShouldClose returns true
	polls         int
	begun, ended  int
	circles       []drawnCircle
	closed        bool
}

type drawnCircle struct {
	center rl.Vector2
	radius float32
	color  rl.Color
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{width: 800, height: 600}
}

func (w *fakeWindow) ShouldClose() bool {
	w.polls++
	return w.polls > w.closeAfter
}

func (w *fakeWindow) BeginFrame(rl.Color) {
	w.begun++
	w.circles = w.circles[:0]
}

func (w *fakeWindow) DrawCircle(center rl.Vector2, radius float32, color rl.Color) {
	w.circles = append(w.circles, drawnCircle{center, radius, color})
}

func (w *fakeWindow) EndFrame()        { w.ended++ }
func (w *fakeWindow) Size() (int, int) { return w.width, w.height }
func (w *fakeWindow) Close()           { w.closed = true }

func TestClassify(t *testing.T) {
	tests := []struct {
		energy float64
		want   rl.Color
	}{
		{100, ColorHealthy},
		{75.01, ColorHealthy},
		{75, ColorWarning},
		{50, ColorWarning},
		{25.01, ColorWarning},
		{25, ColorCritical},
		{0, ColorCritical},
		{-10, ColorCritical},
	}

	for _, tt := range tests {
		if got := Classify(tt.energy); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.energy, got, tt.want)
		}
	}
}

func TestBandColors(t *testing.T) {
	if ColorHealthy != (rl.Color{R: 50, G: 205, B: 50, A: 255}) {
		t.Errorf("healthy color = %v", ColorHealthy)
	}
	if ColorWarning != (rl.Color{R: 255, G: 165, B: 0, A: 255}) {
		t.Errorf("warning color = %v", ColorWarning)
	}
	if ColorCritical != (rl.Color{R: 220, G: 20, B: 60, A: 255}) {
		t.Errorf("critical color = %v", ColorCritical)
	}
	if BandWarning.String() != "warning" {
		t.Errorf("BandWarning.String() = %q", BandWarning.String())
	}
}

func TestCreateOrganismReadBack(t *testing.T) {
	r := NewWithWindow(newFakeWindow())

	err := r.CreateOrganism(snapshot.Organism{
		ID:       "a",
		Position: snapshot.Position{X: 1, Y: 2},
		Size:     3,
		Energy:   90,
	})
	if err != nil {
		t.Fatalf("CreateOrganism: %v", err)
	}

	s, ok := r.Shape("a")
	if !ok {
		t.Fatal("organism a not tracked")
	}
	if s.X != 1 || s.Y != 2 {
		t.Errorf("position = (%v, %v), want (1, 2)", s.X, s.Y)
	}
	if s.Radius != 3 {
		t.Errorf("radius = %v, want 3", s.Radius)
	}
	if s.Color != ColorHealthy {
		t.Errorf("color = %v, want green", s.Color)
	}
}

func TestCreateOrganismDefaults(t *testing.T) {
	r := NewWithWindow(newFakeWindow())

	o, err := snapshot.DecodeOrganism([]byte(`{"id": "x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.CreateOrganism(o); err != nil {
		t.Fatal(err)
	}

	s, _ := r.Shape("x")
	if s.X != 0 || s.Y != 0 || s.Radius != 5 || s.Color != ColorHealthy {
		t.Errorf("default shape = %+v, want origin, radius 5, green", s)
	}
}

func TestCreateOrganismMissingID(t *testing.T) {
	r := NewWithWindow(newFakeWindow())

	err := r.CreateOrganism(snapshot.Organism{Size: 5, Energy: 50})
	if !errors.Is(err, snapshot.ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
	if r.Len() != 0 || r.batch.Len() != 0 {
		t.Errorf("nothing should be created, got %d tracked, %d in batch", r.Len(), r.batch.Len())
	}
}

func TestCreateOrganismDuplicateReplace(t *testing.T) {
	r := NewWithWindow(newFakeWindow())

	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Size: 5, Energy: 100})
	first := r.organisms["a"]
	if err := r.CreateOrganism(snapshot.Organism{ID: "a", Position: snapshot.Position{X: 9, Y: 9}, Size: 5, Energy: 10}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if first.Alive() {
		t.Error("old shape should be detached from the batch")
	}
	if r.batch.Len() != 1 || r.Len() != 1 {
		t.Errorf("expected one shape, got batch %d tracked %d", r.batch.Len(), r.Len())
	}
	s, _ := r.Shape("a")
	if s.X != 9 || s.Color != ColorCritical {
		t.Errorf("replacement not tracked: %+v", s)
	}
}

func TestCreateOrganismDuplicateReject(t *testing.T) {
	r := NewWithWindow(newFakeWindow(), WithDuplicatePolicy(DuplicateReject))

	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Size: 5, Energy: 100})
	err := r.CreateOrganism(snapshot.Organism{ID: "a", Size: 5, Energy: 10})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}

	s, _ := r.Shape("a")
	if s.Color != ColorHealthy {
		t.Errorf("original shape changed: %+v", s)
	}
	if r.batch.Len() != 1 {
		t.Errorf("batch len = %d, want 1", r.batch.Len())
	}
}

func TestUpdateAppliesTrackedOnly(t *testing.T) {
	r := NewWithWindow(newFakeWindow())
	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Position: snapshot.Position{X: 1, Y: 2}, Size: 3, Energy: 90})

	eco := &snapshot.Ecosystem{Organisms: map[string]snapshot.Organism{
		"a": {ID: "a", Position: snapshot.Position{X: 10, Y: 20}, Size: 5, Energy: 10},
		"b": {ID: "b", Position: snapshot.Position{X: 5, Y: 5}, Size: 5, Energy: 100},
	}}
	report := r.Update(eco)

	s, _ := r.Shape("a")
	if s.X != 10 || s.Y != 20 {
		t.Errorf("position = (%v, %v), want (10, 20)", s.X, s.Y)
	}
	if s.Color != ColorCritical {
		t.Errorf("color = %v, want red", s.Color)
	}
	if s.Radius != 3 {
		t.Errorf("radius changed to %v", s.Radius)
	}
	if r.Tracks("b") {
		t.Error("update must not create untracked organism b")
	}
	if report != (UpdateReport{Applied: 1, Unknown: 1}) {
		t.Errorf("report = %+v", report)
	}
}

func TestUpdateLeavesAbsentOrganisms(t *testing.T) {
	r := NewWithWindow(newFakeWindow())
	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Position: snapshot.Position{X: 1, Y: 2}, Size: 3, Energy: 50})

	report := r.Update(&snapshot.Ecosystem{Organisms: map[string]snapshot.Organism{}})

	s, ok := r.Shape("a")
	if !ok {
		t.Fatal("absent organism must not be removed")
	}
	if s.X != 1 || s.Y != 2 || s.Color != ColorWarning {
		t.Errorf("absent organism changed: %+v", s)
	}
	if report.Stale != 1 || report.Applied != 0 {
		t.Errorf("report = %+v", report)
	}

	if got := r.Update(nil); got.Stale != 1 {
		t.Errorf("nil snapshot report = %+v", got)
	}
}

func TestRunDrawsUntilClosed(t *testing.T) {
	win := newFakeWindow()
	win.closeAfter = 3
	r := NewWithWindow(win)
	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Position: snapshot.Position{X: 100, Y: 100}, Size: 4, Energy: 20})

	var order []string
	r.OnFrame(func() { order = append(order, "frame") })
	r.OnOverlay(func() { order = append(order, "overlay") })

	r.Run()

	if r.Frames() != 3 || win.begun != 3 || win.ended != 3 {
		t.Errorf("frames=%d begun=%d ended=%d, want 3", r.Frames(), win.begun, win.ended)
	}
	if len(order) != 6 || order[0] != "frame" || order[1] != "overlay" {
		t.Errorf("hook order = %v", order)
	}

	if len(win.circles) != 1 {
		t.Fatalf("expected 1 circle drawn, got %d", len(win.circles))
	}
	c := win.circles[0]
	// World origin is bottom-left: y=100 maps to 600-100 on screen
	if c.center.X != 100 || c.center.Y != 500 || c.radius != 4 || c.color != ColorCritical {
		t.Errorf("drawn circle = %+v", c)
	}
}

func TestFrameUsesWorldScale(t *testing.T) {
	win := newFakeWindow()
	r := NewWithWindow(win, WithWorldSize(1600, 1200))
	_ = r.CreateOrganism(snapshot.Organism{ID: "a", Position: snapshot.Position{X: 800, Y: 600}, Size: 10, Energy: 100})

	r.frame()

	c := win.circles[0]
	if c.center.X != 400 || c.center.Y != 300 || c.radius != 5 {
		t.Errorf("scaled circle = %+v", c)
	}
}

func TestCloseReleasesWindow(t *testing.T) {
	win := newFakeWindow()
	r := NewWithWindow(win)
	r.Close()
	r.Close()

	if !win.closed {
		t.Error("window not closed")
	}
}

func TestUseAfterClose(t *testing.T) {
	r := NewWithWindow(newFakeWindow())
	if err := r.CreateOrganism(snapshot.Organism{ID: "a", Energy: 100}); err != nil {
		t.Fatal(err)
	}
	r.Close()

	if err := r.CreateOrganism(snapshot.Organism{ID: "b", Energy: 100}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateOrganism after Close = %v, want ErrClosed", err)
	}
	eco := &snapshot.Ecosystem{Organisms: map[string]snapshot.Organism{"a": {ID: "a", Energy: 10}}}
	if report := r.Update(eco); report.Applied != 0 {
		t.Errorf("Update after Close applied %d", report.Applied)
	}
	if r.Len() != 0 {
		t.Errorf("Len after Close = %d", r.Len())
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	if p, err := ParseDuplicatePolicy("reject"); err != nil || p != DuplicateReject {
		t.Errorf("reject -> %v, %v", p, err)
	}
	if p, err := ParseDuplicatePolicy("replace"); err != nil || p != DuplicateReplace {
		t.Errorf("replace -> %v, %v", p, err)
	}
	if _, err := ParseDuplicatePolicy("merge"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("0b1020")
	if err != nil {
		t.Fatal(err)
	}
	if c != (rl.Color{R: 0x0b, G: 0x10, B: 0x20, A: 255}) {
		t.Errorf("color = %v", c)
	}
	if _, err := ParseHexColor("zz"); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := ParseHexColor("gggggg"); err == nil {
		t.Error("expected error for non-hex input")
	}
}
