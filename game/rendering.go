package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/ui"
)

const controlsLegend = "[R] Reset canvas  [P] Perf panel  [Esc] Exit"

// Draw renders the frame.
func (g *Game) Draw() {
	g.perfCollector.Present()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	if g.compute != nil {
		g.compute.Draw(g.camera)
	}

	g.hud.Draw(g.hudData())
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	if g.showPerf {
		g.perfPanel.SetPosition(int32(g.screenWidth)-240, 50)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	if gui.Button(rl.Rectangle{X: g.screenWidth - 110, Y: 10, Width: 100, Height: 30}, "Reset") {
		g.Reset()
	}

	rl.EndDrawing()
}

// hudData collects what the HUD shows for the current state.
func (g *Game) hudData() ui.HUDData {
	data := ui.HUDData{
		State:       g.state.Current().String(),
		MapSet:      g.cfg.Maps.Active,
		RotationDeg: g.camera.RotationDegrees(),
		FPS:         rl.GetFPS(),
		Cursor:      "off canvas",
	}
	mouse := rl.GetMousePosition()
	if x, y, ok := g.camera.PixelAt(mouse.X, mouse.Y); ok {
		data.Cursor = fmt.Sprintf("%d,%d", x, y)
	}
	if g.swarm == nil {
		data.Loading = g.loadingText()
		return data
	}
	data.Tick = g.swarm.Ticks()
	data.GrowthFrame = g.swarm.GrowthFrame()
	data.Crawlers = g.swarm.Len()
	return data
}

// loadingText describes what the app is waiting for before Running.
func (g *Game) loadingText() string {
	if g.plainMap == nil || g.trafficMap == nil {
		return "Requesting maps..."
	}
	return fmt.Sprintf("%s: %s  %s: %s",
		g.plainMap.Name(), g.plainMap.State(),
		g.trafficMap.Name(), g.trafficMap.State(),
	)
}
