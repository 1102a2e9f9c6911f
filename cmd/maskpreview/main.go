// Mask preview tool - interactive thresholding of a map image with sliders.
//
// Usage: go run ./cmd/maskpreview -map island -kind traffic
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/assets"
	"github.com/bartgut/PerlinMapVisualizer/config"
	"github.com/bartgut/PerlinMapVisualizer/systems"
)

const (
	windowWidth  = 1160
	windowHeight = 720
	previewW     = 552
	previewH     = 436
	panelY0      = previewH + 20
)

// MaskParams holds the classifier parameters being tuned.
type MaskParams struct {
	Target    [3]float32
	Threshold float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapSet := flag.String("map", "", "Map set to preview (empty = use config)")
	kind := flag.String("kind", "plain", "Which map of the set: plain or traffic")
	flag.Parse()

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

	name, defaults := cfg.Derived.ActiveSet.Plain, cfg.Maps.Plain
	if *kind == "traffic" {
		name, defaults = cfg.Derived.ActiveSet.Traffic, cfg.Maps.Traffic
	}

	src, err := loadMap(filepath.Join(cfg.Maps.Dir, name), cfg.Canvas.Width, cfg.Canvas.Height)
	if err != nil {
		slog.Error("failed to load map", "error", err)
		os.Exit(1)
	}

	initial := MaskParams{
		Target:    [3]float32{float32(defaults.Target[0]), float32(defaults.Target[1]), float32(defaults.Target[2])},
		Threshold: float32(defaults.Threshold),
	}
	params := initial

	rl.InitWindow(windowWidth, windowHeight, "Mask Preview - "+name)
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	srcTex := newTexture(src)
	defer rl.UnloadTexture(srcTex)
	mask := image.NewRGBA(src.Bounds())
	maskTex := newTexture(mask)
	defer rl.UnloadTexture(maskTex)

	var coverage float64
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			copy(mask.Pix, src.Pix)
			systems.Threshold(mask, classifierFor(params))
			coverage = featureCoverage(mask)
			rl.UpdateTexture(maskTex, rgbaPixels(mask))
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawPreview(srcTex, 10)
		drawPreview(maskTex, 20+previewW)

		panelX := float32(10)
		panelY := float32(panelY0)

		rl.DrawText(fmt.Sprintf("%s  feature coverage: %.2f%%", name, coverage*100), int32(panelX), int32(panelY), 18, rl.DarkGray)
		panelY += 30

		labels := [3]string{"Target R", "Target G", "Target B"}
		for i := range params.Target {
			v := slider(panelX, panelY, labels[i], params.Target[i], 0, 255, "%.0f")
			if v != params.Target[i] {
				params.Target[i] = v
				needsRegen = true
			}
			panelY += 35
		}

		v := slider(panelX, panelY, "Threshold (distance)", params.Threshold, 0, 442, "%.0f")
		if v != params.Threshold {
			params.Threshold = v
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = initial
			needsRegen = true
		}

		// Output YAML
		yaml := fmt.Sprintf("  %s:\n    target: [%.0f, %.0f, %.0f]\n    threshold: %.0f",
			*kind, params.Target[0], params.Target[1], params.Target[2], params.Threshold)
		rl.DrawText("YAML Config:", int32(panelX+400), int32(panelY0+30), 16, rl.DarkGray)
		rl.DrawText(yaml, int32(panelX+400), int32(panelY0+55), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", 10, windowHeight-20, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func loadMap(path string, w, h int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return assets.Decode(f, w, h)
}

func classifierFor(p MaskParams) systems.Classifier {
	return systems.NewClassifier(
		[3]float64{float64(p.Target[0]), float64(p.Target[1]), float64(p.Target[2])},
		float64(p.Threshold),
	)
}

// slider draws a labelled slider bar and returns its new value.
func slider(x, y float32, label string, value, lo, hi float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	v := gui.SliderBar(
		rl.Rectangle{X: x + 160, Y: y, Width: 180, Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+350), int32(y+2), 16, rl.DarkGray)
	return v
}

// featureCoverage returns the fraction of white pixels in a mask.
func featureCoverage(mask *image.RGBA) float64 {
	b := mask.Bounds()
	var white int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.RGBAAt(x, y).R == 255 {
				white++
			}
		}
	}
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	return float64(white) / float64(total)
}

func newTexture(img *image.RGBA) rl.Texture2D {
	b := img.Bounds()
	blank := rl.GenImageColor(b.Dx(), b.Dy(), rl.Black)
	tex := rl.LoadTextureFromImage(blank)
	rl.UnloadImage(blank)
	rl.UpdateTexture(tex, rgbaPixels(img))
	return tex
}

func rgbaPixels(img *image.RGBA) []color.RGBA {
	b := img.Bounds()
	pixels := make([]color.RGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, img.RGBAAt(x, y))
		}
	}
	return pixels
}

func drawPreview(tex rl.Texture2D, x float32) {
	rl.DrawTexturePro(
		tex,
		rl.Rectangle{X: 0, Y: 0, Width: float32(tex.Width), Height: float32(tex.Height)},
		rl.Rectangle{X: x, Y: 10, Width: previewW, Height: previewH},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.DrawRectangleLines(int32(x), 10, previewW, previewH, rl.DarkGray)
}
