// Package config provides configuration loading and access for the viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all viewer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Demo      DemoConfig      `yaml:"demo"`
	Feed      FeedConfig      `yaml:"feed"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// WorldConfig holds the extent of the simulation coordinate space.
// The viewport scales the world to fit the window.
type WorldConfig struct {
	Width  float64 `yaml:"width"`  // 0 = use screen width
	Height float64 `yaml:"height"` // 0 = use screen height
}

// RendererConfig holds renderer behavior switches.
type RendererConfig struct {
	DuplicateIDs string `yaml:"duplicate_ids"` // "replace" or "reject"
	Background   string `yaml:"background"`    // hex RGB, e.g. "0b1020"
}

// DemoConfig holds parameters for the built-in demo simulation engine.
type DemoConfig struct {
	Population     int     `yaml:"population"`
	TickRate       float64 `yaml:"tick_rate"`       // engine ticks per second
	Speed          float64 `yaml:"speed"`           // max drift per tick in world units
	NoiseScale     float64 `yaml:"noise_scale"`     // drift field frequency
	MaxAge         int     `yaml:"max_age"`         // ticks before an organism dies of age
	ReproduceAbove float64 `yaml:"reproduce_above"` // energy needed to reproduce
	ReproduceCost  float64 `yaml:"reproduce_cost"`
	ReproduceProb  float64 `yaml:"reproduce_prob"`
	CycleDegrees   float64 `yaml:"cycle_degrees"` // environment phase advance per tick
}

// FeedConfig holds remote snapshot feed settings.
type FeedConfig struct {
	URL            string  `yaml:"url"`             // websocket URL; empty = run the demo engine
	ReconnectDelay float64 `yaml:"reconnect_delay"` // seconds between dial attempts
	MaxMessageSize int64   `yaml:"max_message_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowFrames int `yaml:"window_frames"` // frames per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW32 float32 // Effective world width as float32
	WorldH32 float32 // Effective world height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	switch c.Renderer.DuplicateIDs {
	case "replace", "reject":
	default:
		return fmt.Errorf("renderer.duplicate_ids: unknown policy %q", c.Renderer.DuplicateIDs)
	}
	if c.Demo.TickRate <= 0 {
		return fmt.Errorf("demo.tick_rate must be positive, got %v", c.Demo.TickRate)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// World dimensions default to screen size if not specified
	worldW := c.World.Width
	if worldW == 0 {
		worldW = float64(c.Screen.Width)
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = float64(c.Screen.Height)
	}
	c.Derived.WorldW32 = float32(worldW)
	c.Derived.WorldH32 = float32(worldH)
	if c.Telemetry.WindowFrames < 1 {
		c.Telemetry.WindowFrames = 60
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
