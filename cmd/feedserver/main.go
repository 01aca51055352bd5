// Command feedserver runs the demo ecosystem engine and serves its state over
// HTTP and websocket for ecoview and other clients.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/ecoview/config"
	"github.com/pthm-cable/ecoview/sim"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	configPath := flag.String("config", "", "Path to config YAML file (uses embedded defaults if empty)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use current time)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	engine := sim.NewEngine(sim.ParamsFromConfig(cfg, *seed))
	hub := NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(float64(time.Second) / cfg.Demo.TickRate)
	go engine.Run(ctx, interval, hub)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewHandler(engine, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("feedserver listening", "addr", *addr, "seed", *seed, "tick_rate", cfg.Demo.TickRate, "population", cfg.Demo.Population)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	alive, births, deaths := engine.Counts()
	slog.Info("feedserver stopped", "alive", alive, "births", births, "deaths", deaths)
}
