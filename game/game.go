// Package game wires the visualizer's systems into a per-frame update loop.
package game

import (
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/bartgut/PerlinMapVisualizer/assets"
	"github.com/bartgut/PerlinMapVisualizer/camera"
	"github.com/bartgut/PerlinMapVisualizer/components"
	"github.com/bartgut/PerlinMapVisualizer/config"
	"github.com/bartgut/PerlinMapVisualizer/gpuparams"
	"github.com/bartgut/PerlinMapVisualizer/renderer"
	"github.com/bartgut/PerlinMapVisualizer/systems"
	"github.com/bartgut/PerlinMapVisualizer/telemetry"
	"github.com/bartgut/PerlinMapVisualizer/ui"
)

// Options configures a game instance.
type Options struct {
	Headless      bool                        // Skip the GPU stage and all raylib calls
	AssetFS       fs.FS                       // Map source; nil reads maps.dir from disk
	OutputDir     string                      // CSV output directory (empty = disabled)
	LogStats      bool                        // Log window stats via slog
	StatsCallback func(telemetry.WindowStats) // Optional hook called on each stats flush
}

// Game holds the complete visualizer state.
type Game struct {
	cfg   *config.Config
	state *StateMachine

	// Asset layer
	assetServer *assets.Server
	plainMap    *assets.Handle
	trafficMap  *assets.Handle

	// Preprocessing
	preprocessor *systems.Preprocessor

	// Running
	swarm   *systems.Swarm
	clock   *systems.Clock
	params  *gpuparams.ParamBuffer
	compute *renderer.ComputeStage
	camera  *camera.Camera

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// Overlays
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	showPerf  bool

	headless      bool
	exitRequested bool
	resets        int
	tickPeriod    time.Duration

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game in the Preload state. config.Init must
// have been called. In graphical mode the raylib window must already exist.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	fsys := opts.AssetFS
	if fsys == nil {
		fsys = os.DirFS(cfg.Maps.Dir)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	tickPeriod := time.Duration(cfg.Swarm.TickPeriod * float64(time.Second))
	windowTicks := int(math.Round(cfg.Telemetry.StatsWindow / cfg.Swarm.TickPeriod))

	screenW := float32(cfg.Canvas.Width * cfg.Canvas.PixelScale)
	screenH := float32(cfg.Canvas.Height * cfg.Canvas.PixelScale)

	g := &Game{
		cfg:           cfg,
		state:         NewStateMachine(),
		assetServer:   assets.NewServer(fsys, cfg.Canvas.Width, cfg.Canvas.Height),
		camera:        camera.New(screenW, screenH, cfg.Derived.CanvasW32, cfg.Derived.CanvasH32, float32(cfg.Canvas.PixelScale)),
		collector:     telemetry.NewCollector(windowTicks, cfg.Swarm.TickPeriod),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		outputManager: om,
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		headless:      opts.Headless,
		hud:           ui.NewHUD(),
		perfPanel:     ui.NewPerfPanel(int32(screenW)-240, 50),
		tickPeriod:    tickPeriod,
		screenWidth:   screenW,
		screenHeight:  screenH,
	}

	slog.Info("game created",
		"map_set", cfg.Maps.Active,
		"canvas_w", cfg.Canvas.Width,
		"canvas_h", cfg.Canvas.Height,
		"crawlers", cfg.Swarm.Count,
		"headless", opts.Headless,
	)
	return g, nil
}

// Update runs one frame using the measured frame time.
func (g *Game) Update() error {
	g.handleInput()
	return g.step(frameDelta())
}

// UpdateHeadless runs one frame whose duration is exactly one tick period,
// so each call in Running produces one simulation tick.
func (g *Game) UpdateHeadless() error {
	return g.step(g.tickPeriod)
}

// step dispatches the handlers valid for the current state.
func (g *Game) step(dt time.Duration) error {
	g.perfCollector.BeginFrame(g.state.Current().String())
	defer g.perfCollector.EndFrame()

	switch g.state.Current() {
	case StatePreload:
		g.issueLoads()
		g.state.Advance()

	case StatePreprocessing:
		g.perfCollector.Phase(telemetry.PhasePreprocess)
		if !g.preprocessor.Update() {
			return nil
		}
		if err := g.enterRunning(); err != nil {
			return err
		}
		g.state.Advance()

	case StateRunning:
		g.runFrame(dt)
	}
	return nil
}

// issueLoads requests both maps of the active set from the asset layer.
func (g *Game) issueLoads() {
	set := g.cfg.Derived.ActiveSet
	g.plainMap = g.assetServer.Load(set.Plain)
	g.trafficMap = g.assetServer.Load(set.Traffic)

	plainC := systems.NewClassifier(g.cfg.Maps.Plain.Target, g.cfg.Maps.Plain.Threshold)
	trafficC := systems.NewClassifier(g.cfg.Maps.Traffic.Target, g.cfg.Maps.Traffic.Threshold)
	g.preprocessor = systems.NewPreprocessor(g.plainMap, g.trafficMap, plainC, trafficC)
}

// enterRunning spawns the swarm and builds everything the Running state uses.
func (g *Game) enterRunning() error {
	cfg := g.cfg

	gen := systems.NewPositionGenerator(systems.NoiseParams{
		Seed:        cfg.Noise.Seed,
		TimeScale:   cfg.Noise.TimeScale,
		XMultiplier: cfg.Noise.XMultiplier,
		YMultiplier: cfg.Noise.YMultiplier,
	}, uint32(cfg.Canvas.Width), uint32(cfg.Canvas.Height))

	g.swarm = systems.NewSwarm(systems.SwarmParams{
		Count:        cfg.Swarm.Count,
		MaxRadius:    cfg.Swarm.MaxRadius,
		RadiusStep:   cfg.Swarm.RadiusStep,
		AlphaStep:    cfg.Swarm.AlphaStep,
		GroupEvery:   cfg.Swarm.GroupEvery,
		GroupColor:   components.ColorFromArray(cfg.Swarm.GroupColor),
		DefaultColor: components.ColorFromArray(cfg.Swarm.DefaultColor),
	}, gen, cfg.Swarm.InitialGrowthFrame)

	g.params = gpuparams.NewParamBuffer(g.swarm.Len())
	g.clock = systems.NewClock(g.tickPeriod)

	slog.Info("swarm spawned",
		"crawlers", g.swarm.Len(),
		"growth_frame", g.swarm.GrowthFrame(),
		"param_bytes", len(g.params.Bytes()),
	)

	if g.headless {
		return nil
	}

	plain, _ := g.plainMap.Image()
	traffic, _ := g.trafficMap.Image()
	stage, err := renderer.NewComputeStage(renderer.ComputeOptions{
		ShaderPath:   cfg.GPU.Shader,
		EntryPoint:   cfg.GPU.EntryPoint,
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		TileSize:     cfg.GPU.TileSize,
		GroupsX:      cfg.Derived.WorkgroupsX,
		GroupsY:      cfg.Derived.WorkgroupsY,
		CrawlerCount: g.swarm.Len(),
	}, plain, traffic)
	if err != nil {
		return fmt.Errorf("creating compute stage: %w", err)
	}
	g.compute = stage
	return nil
}

// runFrame is the Running state's per-frame work: at most one simulation
// tick, the rotation effect, a full parameter sync and the kernel dispatch.
func (g *Game) runFrame(dt time.Duration) {
	g.perfCollector.Phase(telemetry.PhaseSwarm)
	ticked := false
	if g.clock.Advance(dt) {
		g.perfCollector.SimTick()
		res := g.swarm.Tick()
		g.collector.RecordTick(res.Repositioned, res.Advanced)
		ticked = true
	}

	g.perfCollector.Phase(telemetry.PhaseEffects)
	g.camera.Rotate(g.cfg.GPU.RotationStep)

	g.perfCollector.Phase(telemetry.PhaseParamSync)
	g.params.Sync(g.swarm.Crawlers())

	if g.compute != nil {
		g.perfCollector.Phase(telemetry.PhaseDispatch)
		g.compute.Dispatch(g.params.Bytes())
	}

	if ticked {
		g.perfCollector.Phase(telemetry.PhaseTelemetry)
		g.flushTelemetry()
	}
}

// Reset clears the visible canvas and the rotation. The swarm and the
// growth frame counter are left untouched.
func (g *Game) Reset() {
	g.camera.Reset()
	if g.compute != nil {
		g.compute.Clear()
	}
	g.resets++
	slog.Info("canvas reset", "state", g.state.Current().String())
}

// State returns the current application state.
func (g *Game) State() AppState {
	return g.state.Current()
}

// StateHistory returns every state entered so far.
func (g *Game) StateHistory() []AppState {
	return g.state.History()
}

// Swarm returns the crawler population, or nil before Running.
func (g *Game) Swarm() *systems.Swarm {
	return g.swarm
}

// Params returns the GPU parameter buffer, or nil before Running.
func (g *Game) Params() *gpuparams.ParamBuffer {
	return g.params
}

// Camera returns the canvas presentation transform.
func (g *Game) Camera() *camera.Camera {
	return g.camera
}

// Tick returns the number of simulation ticks run so far.
func (g *Game) Tick() uint64 {
	if g.swarm == nil {
		return 0
	}
	return g.swarm.Ticks()
}

// FrameCounts returns how many update calls ran and how many of them fired
// a simulation tick.
func (g *Game) FrameCounts() (frames, simTicks uint64) {
	return g.perfCollector.Totals()
}

// Resets returns how many times the reset control was used.
func (g *Game) Resets() int {
	return g.resets
}

// ExitRequested reports whether the exit control was used.
func (g *Game) ExitRequested() bool {
	return g.exitRequested
}

// ExportCanvas writes the current canvas to an image file.
// Only available once the compute stage exists.
func (g *Game) ExportCanvas(path string) error {
	if g.compute == nil {
		return fmt.Errorf("no canvas in state %s (headless=%v)", g.state.Current(), g.headless)
	}
	return g.compute.Export(path)
}

// WaitAssets blocks until every issued map load has finished.
func (g *Game) WaitAssets() {
	g.assetServer.Wait()
}

// Unload releases GPU resources and closes output files.
func (g *Game) Unload() {
	if g.compute != nil {
		g.compute.Unload()
		g.compute = nil
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
