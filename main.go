package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/ecoview/config"
	"github.com/pthm-cable/ecoview/feed"
	"github.com/pthm-cable/ecoview/game"
	"github.com/pthm-cable/ecoview/renderer"
	"github.com/pthm-cable/ecoview/sim"
	"github.com/pthm-cable/ecoview/snapshot"
	"github.com/pthm-cable/ecoview/telemetry"
	"github.com/pthm-cable/ecoview/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	feedURL := flag.String("feed", "", "Websocket URL of a snapshot server (overrides config)")
	snapshotPath := flag.String("snapshot", "", "Render a single snapshot file instead of a live source")
	outputDir := flag.String("output-dir", "", "Output directory for telemetry CSV and config snapshot")
	seed := flag.Int64("seed", 0, "Demo engine RNG seed (0 = time-based)")
	logStats := flag.Bool("log-stats", false, "Output telemetry windows via slog")
	inspectID := flag.String("inspect", "", "Organism id to pin in the detail panel")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *feedURL != "" {
		cfg.Feed.URL = *feedURL
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	policy, err := renderer.ParseDuplicatePolicy(cfg.Renderer.DuplicateIDs)
	if err != nil {
		slog.Error("invalid renderer config", "error", err)
		os.Exit(1)
	}
	background, err := renderer.ParseHexColor(cfg.Renderer.Background)
	if err != nil {
		slog.Error("invalid renderer config", "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	r, err := renderer.New(cfg.Screen.Width, cfg.Screen.Height,
		renderer.WithTitle(cfg.Screen.Title),
		renderer.WithTargetFPS(cfg.Screen.TargetFPS),
		renderer.WithDuplicatePolicy(policy),
		renderer.WithBackground(background),
		renderer.WithWorldSize(cfg.Derived.WorldW32, cfg.Derived.WorldH32),
	)
	if err != nil {
		slog.Error("failed to open renderer", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	box := &snapshot.Mailbox{}
	var sourceName string

	switch {
	case *snapshotPath != "":
		eco, err := feed.LoadFile(*snapshotPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		box.Put(eco)
		sourceName = *snapshotPath

	case cfg.Feed.URL != "":
		delay := time.Duration(cfg.Feed.ReconnectDelay * float64(time.Second))
		client := feed.NewClient(cfg.Feed.URL, delay, cfg.Feed.MaxMessageSize, box)
		go client.Run(ctx)
		sourceName = client.URL()

	default:
		engine := sim.NewEngine(sim.ParamsFromConfig(cfg, rngSeed))
		interval := time.Duration(float64(time.Second) / cfg.Demo.TickRate)
		go engine.Run(ctx, interval, box)
		sourceName = "demo"
	}

	screenW, _ := r.Size()
	game.New(r, box, game.Options{
		SourceName:   sourceName,
		WindowFrames: cfg.Telemetry.WindowFrames,
		Output:       output,
		LogStats:     *logStats,
		Overlay:      ui.NewHUD(),
		Inspector:    ui.NewInspector(int32(screenW), *inspectID),
	})

	slog.Info("starting viewer",
		"source", sourceName,
		"seed", rngSeed,
		"screen", []int{cfg.Screen.Width, cfg.Screen.Height},
		"duplicate_ids", cfg.Renderer.DuplicateIDs,
	)

	r.Run()
	slog.Info("viewer closed", "frames", r.Frames(), "tracked", r.Len())
}
