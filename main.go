package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/config"
	"github.com/bartgut/PerlinMapVisualizer/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapSet := flag.String("map", "", "Map set to load (empty = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N simulation ticks (0 = unlimited)")

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

	if *mapSet != "" {
		if err := cfg.SelectMapSet(*mapSet); err != nil {
			slog.Error("failed to select map set", "error", err)
			os.Exit(1)
		}
	}

	opts := game.Options{
		Headless:  *headless,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	}

	if *headless {
		if err := runHeadless(opts, *maxTicks); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.InitWindow(
		int32(cfg.Canvas.Width*cfg.Canvas.PixelScale),
		int32(cfg.Canvas.Height*cfg.Canvas.PixelScale),
		cfg.Canvas.Title,
	)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Canvas.TargetFPS))
	// Escape is handled by the game's exit control
	rl.SetExitKey(rl.KeyNull)

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && !g.ExitRequested() {
		if err := g.Update(); err != nil {
			slog.Error("update failed", "error", err)
			return
		}
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
}

// runHeadless drives the state machine without a window or GPU stage until
// the tick limit, a stall, or an interrupt.
func runHeadless(opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	defer g.Unload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := g.RunHeadless(ctx, maxTicks); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
