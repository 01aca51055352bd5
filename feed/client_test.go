package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/ecoview/snapshot"
)

type collectSink struct {
	mu   sync.Mutex
	ecos []*snapshot.Ecosystem
}

func (s *collectSink) Put(eco *snapshot.Ecosystem) {
	s.mu.Lock()
	s.ecos = append(s.ecos, eco)
	s.mu.Unlock()
}

func (s *collectSink) snapshots() []*snapshot.Ecosystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*snapshot.Ecosystem(nil), s.ecos...)
}

// newServer starts a websocket server that writes messages to every
// connection and then holds it open until the client leaves.
func newServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientStreamsSnapshots(t *testing.T) {
	srv := newServer(t,
		`{"tick": 1, "organisms": {"a": {"position": {"x": 1, "y": 2}, "energy": 90}}}`,
		`not a snapshot`,
		`{"tick": 2, "organisms": {"a": {"position": {"x": 3, "y": 4}, "energy": 20}}}`,
	)
	sink := &collectSink{}
	c := NewClient(wsURL(srv), 10*time.Millisecond, 0, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, func() bool { return len(sink.snapshots()) == 2 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	got := sink.snapshots()
	if got[0].Tick != 1 || got[1].Tick != 2 {
		t.Errorf("ticks = %d, %d", got[0].Tick, got[1].Tick)
	}
	a := got[1].Organisms["a"]
	if a.ID != "a" || a.Position.X != 3 || a.Position.Y != 4 || a.Energy != 20 {
		t.Errorf("organism a = %+v", a)
	}

	received, malformed, connects := c.Counts()
	if received != 2 || malformed != 1 || connects != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", received, malformed, connects)
	}
}

func TestClientReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"organisms": {}}`))
		// Drop the connection straight away to force a redial.
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	sink := &collectSink{}
	c := NewClient(wsURL(srv), time.Millisecond, 0, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, func() bool {
		_, _, connects := c.Counts()
		return connects >= 3
	})
	cancel()
	<-done
}

func TestClientRetriesUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	c := NewClient(url, time.Millisecond, 0, &collectSink{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v, want context.DeadlineExceeded", err)
	}
	if _, _, connects := c.Counts(); connects != 0 {
		t.Errorf("connects = %d, want 0", connects)
	}
}

func TestClientReadLimit(t *testing.T) {
	big := `{"organisms": {"a": {"position": {"x": 1, "y": 2}}}, "pad": "` + strings.Repeat("x", 256) + `"}`
	srv := newServer(t, big)
	sink := &collectSink{}
	c := NewClient(wsURL(srv), time.Hour, 64, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	if n := len(sink.snapshots()); n != 0 {
		t.Errorf("oversized message delivered %d snapshots", n)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "scene.yaml")
	content := "tick: 5\ntemperature: 22.5\norganisms:\n  a:\n    position: {x: 10, y: 20}\n    energy: 30\n  b:\n    position: {x: 1, y: 1}\n"
	if err := os.WriteFile(good, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	eco, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if eco.Tick != 5 || eco.Temperature != 22.5 || len(eco.Organisms) != 2 {
		t.Errorf("eco = %+v", eco)
	}
	if b := eco.Organisms["b"]; b.Energy != snapshot.DefaultEnergy || b.Size != snapshot.DefaultSize {
		t.Errorf("b defaults = %+v", b)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("tick: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty path", "", ErrEmptyPath},
		{"no organisms", bad, snapshot.ErrMissingOrganisms},
		{"missing file", filepath.Join(dir, "nope.yaml"), os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
