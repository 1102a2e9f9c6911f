package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	State       string
	MapSet      string
	Tick        uint64
	GrowthFrame uint32
	Crawlers    int
	RotationDeg float32
	FPS         int32
	Cursor      string // Canvas pixel under the mouse
	Loading     string // Shown instead of swarm info before Running
}

// HUD renders the main heads-up display.
type HUD struct {
	theme Theme
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{theme: DefaultTheme()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	t := h.theme
	h.theme.DrawPanel(5, 5, 300, 84)

	rl.DrawText(fmt.Sprintf("%s | %s", data.MapSet, data.State), 10+t.Padding/2, 10, t.HeaderFontSize, t.ValueColor)

	if data.Loading != "" {
		rl.DrawText(data.Loading, 10+t.Padding/2, 32, t.FontSize, t.SectionHeader)
	} else {
		rl.DrawText(
			fmt.Sprintf("Tick: %d | Growth frame: %d", data.Tick, data.GrowthFrame),
			10+t.Padding/2, 32, t.FontSize, t.LabelColor,
		)
		rl.DrawText(
			fmt.Sprintf("Crawlers: %d | Rotation: %.3f deg", data.Crawlers, data.RotationDeg),
			10+t.Padding/2, 32+t.LineHeight, t.FontSize, t.LabelColor,
		)
	}
	rl.DrawText(fmt.Sprintf("FPS: %d | Cursor: %s", data.FPS, data.Cursor), 10+t.Padding/2, 32+2*t.LineHeight, t.FontSize, t.LabelColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase frame timing breakdown.
type PerfPanel struct {
	theme Theme
	x, y  int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{theme: DefaultTheme(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	t := p.theme
	phases := telemetry.Phases()
	t.DrawPanel(p.x, p.y, 230, int32(len(phases)+3)*t.LineHeight+2*t.Padding)

	x := p.x + t.Padding
	y := p.y + t.Padding

	rl.DrawText(fmt.Sprintf("Frame: %s  p95 %s", stats.AvgFrame.Round(time.Microsecond), stats.P95Frame.Round(time.Microsecond)), x, y, 14, t.SectionHeader)
	y += t.LineHeight
	rl.DrawText(fmt.Sprintf("Sim: %.1f ticks/s", stats.SimTickRate), x, y, t.FontSize, t.LabelColor)
	y += t.LineHeight + 4

	for _, name := range phases {
		pct := stats.PhasePct[name]

		color := t.LabelColor
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-11s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, t.FontSize, color,
		)
		y += t.LineHeight
	}
}
