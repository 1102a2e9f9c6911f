// Canvas dump tool - runs the visualizer in a hidden window for a number of
// ticks and writes the compute canvas to an image file for inspection.
//
// Usage: go run ./cmd/canvasdump -map london -ticks 600 -out canvas.png
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/config"
	"github.com/bartgut/PerlinMapVisualizer/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapSet := flag.String("map", "", "Map set to load (empty = use config)")
	ticks := flag.Int("ticks", 300, "Simulation ticks to run before dumping")
	outPath := flag.String("out", "canvas.png", "Output image path")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *mapSet != "" {
		if err := cfg.SelectMapSet(*mapSet); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to select map set: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(cfg.Canvas.Width), int32(cfg.Canvas.Height), "Canvas Dump")
	defer rl.CloseWindow()

	g, err := game.NewGameWithOptions(game.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
		os.Exit(1)
	}
	defer g.Unload()

	// Fixed-step updates: one tick per update once running
	pending := 0
	for int(g.Tick()) < *ticks {
		if err := g.UpdateHeadless(); err != nil {
			fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
			os.Exit(1)
		}
		if g.State() != game.StateRunning {
			g.WaitAssets()
			// Loads have finished; a few more updates must reach Running
			if pending++; pending > 4 {
				fmt.Fprintf(os.Stderr, "Maps did not load, stuck in %s\n", g.State())
				os.Exit(1)
			}
		}
	}

	if err := g.ExportCanvas(*outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export canvas: %v\n", err)
		os.Exit(1)
	}
	slog.Info("canvas dumped", "path", *outPath, "ticks", g.Tick(), "growth_frame", g.Swarm().GrowthFrame())
	fmt.Printf("Canvas rendered to: %s (%dx%d)\n", *outPath, cfg.Canvas.Width, cfg.Canvas.Height)
}
