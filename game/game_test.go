package game

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bartgut/PerlinMapVisualizer/components"
	"github.com/bartgut/PerlinMapVisualizer/config"
	"github.com/bartgut/PerlinMapVisualizer/telemetry"
)

const testConfig = `
canvas:
  width: 64
  height: 48
maps:
  active: island
swarm:
  count: 50
telemetry:
  stats_window: 0.16
  perf_window: 10
`

func initTestConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if err := config.Init(path); err != nil {
		t.Fatalf("config.Init: %v", err)
	}
}

func encodeMap(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	yellow := color.RGBA{R: 249, G: 255, B: 6, A: 255}
	blue := color.RGBA{B: 200, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, yellow)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testMaps(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"island_p.jpg": {Data: encodeMap(t, 64, 48)},
		"island_t.jpg": {Data: encodeMap(t, 64, 48)},
	}
}

// runUntilRunning drives headless updates until the game reaches Running.
func runUntilRunning(t *testing.T, g *Game) {
	t.Helper()
	for i := 0; i < 10 && g.State() != StateRunning; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("update: %v", err)
		}
		g.WaitAssets()
	}
	if g.State() != StateRunning {
		t.Fatalf("expected running, stuck in %s", g.State())
	}
}

func TestHeadlessLifecycle(t *testing.T) {
	initTestConfig(t)

	g, err := NewGameWithOptions(Options{Headless: true, AssetFS: testMaps(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	if g.State() != StatePreload {
		t.Fatalf("expected preload, got %s", g.State())
	}
	if g.Swarm() != nil {
		t.Fatal("swarm exists before running")
	}

	runUntilRunning(t, g)

	want := []AppState{StatePreload, StatePreprocessing, StateRunning}
	hist := g.StateHistory()
	if len(hist) != len(want) {
		t.Fatalf("history %v, want %v", hist, want)
	}

	// Both masks are binary after preprocessing
	plain, _ := g.plainMap.Image()
	for _, p := range []image.Point{{1, 1}, {60, 40}} {
		c := plain.RGBAAt(p.X, p.Y)
		if c.R != c.G || c.G != c.B || (c.R != 0 && c.R != 255) {
			t.Errorf("mask pixel %v not binary: %v", p, c)
		}
	}
	if c := plain.RGBAAt(1, 1); c.R != 255 {
		t.Errorf("yellow region should be white, got %v", c)
	}

	sw := g.Swarm()
	if sw.Len() != 50 {
		t.Fatalf("expected 50 crawlers, got %d", sw.Len())
	}
	if sw.GrowthFrame() != 1 {
		t.Errorf("expected growth frame 1 at spawn, got %d", sw.GrowthFrame())
	}
	if g.Params().Len() != sw.Len() {
		t.Errorf("param buffer %d slots, swarm %d", g.Params().Len(), sw.Len())
	}
}

func TestHeadlessTicksAndParamSync(t *testing.T) {
	initTestConfig(t)

	g, err := NewGameWithOptions(Options{Headless: true, AssetFS: testMaps(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()
	runUntilRunning(t, g)

	for i := 0; i < 5; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	if g.Tick() != 5 {
		t.Fatalf("expected 5 ticks, got %d", g.Tick())
	}

	// Every slot mirrors the live crawler after the latest sync
	crawlers := g.Swarm().Crawlers()
	for i, c := range crawlers {
		slot := g.Params().UnpackSlot(i)
		if slot.X != c.Pos.X || slot.Y != c.Pos.Y {
			t.Fatalf("slot %d position (%d,%d), crawler (%d,%d)", i, slot.X, slot.Y, c.Pos.X, c.Pos.Y)
		}
		if slot.Group != uint32(c.Group) {
			t.Fatalf("slot %d group %d, crawler %d", i, slot.Group, c.Group)
		}
		if slot.Color[3] != c.Color.A {
			t.Fatalf("slot %d alpha %f, crawler %f", i, slot.Color[3], c.Color.A)
		}
	}

	// With max radius 2 and step 2 every crawler repositions on ticks 2 and 4
	if gf := g.Swarm().GrowthFrame(); gf != 3 {
		t.Errorf("expected growth frame 3 after 5 ticks, got %d", gf)
	}

	for i, c := range crawlers {
		wantGroup := components.GroupDefault
		if i%5 == 0 {
			wantGroup = components.GroupAccent
		}
		if c.Group != wantGroup {
			t.Errorf("crawler %d group %d, want %d", i, c.Group, wantGroup)
		}
	}
}

func TestResetKeepsSwarm(t *testing.T) {
	initTestConfig(t)

	g, err := NewGameWithOptions(Options{Headless: true, AssetFS: testMaps(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()
	runUntilRunning(t, g)

	for i := 0; i < 3; i++ {
		g.UpdateHeadless()
	}
	if g.Camera().Rotation == 0 {
		t.Fatal("expected rotation to accumulate while running")
	}

	ticks := g.Tick()
	frame := g.Swarm().GrowthFrame()
	first := g.Swarm().Crawlers()[0]

	g.Reset()

	if g.Camera().Rotation != 0 {
		t.Errorf("rotation not reset: %f", g.Camera().Rotation)
	}
	if g.Tick() != ticks || g.Swarm().GrowthFrame() != frame {
		t.Error("reset touched swarm counters")
	}
	if g.Swarm().Crawlers()[0] != first {
		t.Error("reset touched crawler state")
	}
	if g.Resets() != 1 {
		t.Errorf("expected 1 reset, got %d", g.Resets())
	}
}

func TestMissingMapStallsInPreprocessing(t *testing.T) {
	initTestConfig(t)

	maps := testMaps(t)
	delete(maps, "island_t.jpg")

	g, err := NewGameWithOptions(Options{Headless: true, AssetFS: maps})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	for i := 0; i < 20; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
		g.WaitAssets()
	}
	if g.State() != StatePreprocessing {
		t.Fatalf("expected stall in preprocessing, got %s", g.State())
	}
	if g.Swarm() != nil {
		t.Error("swarm spawned without both maps")
	}
}

func TestStatsFlushAndOutput(t *testing.T) {
	initTestConfig(t)
	dir := t.TempDir()

	var flushed []telemetry.WindowStats
	g, err := NewGameWithOptions(Options{
		Headless:      true,
		AssetFS:       testMaps(t),
		OutputDir:     dir,
		StatsCallback: func(s telemetry.WindowStats) { flushed = append(flushed, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	runUntilRunning(t, g)

	// stats_window 0.16s at 0.016s per tick is a 10 tick window
	for i := 0; i < 25; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(flushed))
	}
	if flushed[0].WindowEndTick != 10 || flushed[1].WindowEndTick != 20 {
		t.Errorf("window ends %d, %d", flushed[0].WindowEndTick, flushed[1].WindowEndTick)
	}
	if flushed[0].Crawlers != 50 || flushed[0].Accent != 10 {
		t.Errorf("population %d/%d", flushed[0].Crawlers, flushed[0].Accent)
	}
	if math.Abs(flushed[0].SimTimeSec-0.16) > 1e-9 {
		t.Errorf("sim time %f", flushed[0].SimTimeSec)
	}

	for _, name := range []string{"config.yaml", "swarm.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	header, _, _ := strings.Cut(string(perf), "\n")
	if !strings.HasPrefix(header, "window_end,frames,") || !strings.Contains(header, ",sim_ticks,sim_ticks_per_sec,") {
		t.Errorf("perf.csv header does not separate frames from sim ticks: %q", header)
	}
}
