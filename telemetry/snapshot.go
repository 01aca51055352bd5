package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ecoview/snapshot"
)

// CaptureVersion is incremented when the format changes.
const CaptureVersion = 1

// Capture is a saved copy of the ecosystem the viewer was showing. The
// ecosystem fields sit at the top level so a capture file can be rendered
// again with the -snapshot flag.
type Capture struct {
	Version  int       `json:"version"`
	Frame    uint64    `json:"frame"`
	Source   string    `json:"source,omitempty"`
	Bookmark *Bookmark `json:"bookmark,omitempty"`

	snapshot.Ecosystem
}

// SaveCapture writes a capture to dir.
// Returns the filepath where it was saved.
func SaveCapture(c *Capture, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("capture_%d", c.Frame)
	if c.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(c.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("capture_%d_%s", c.Frame, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal capture: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}

	return path, nil
}

// LoadCapture reads a capture from disk.
func LoadCapture(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}

	var c Capture
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal capture: %w", err)
	}
	if c.Version != CaptureVersion {
		return nil, fmt.Errorf("capture version %d, want %d", c.Version, CaptureVersion)
	}

	return &c, nil
}
