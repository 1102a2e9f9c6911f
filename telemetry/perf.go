package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one frame update.
const (
	PhasePreprocess = "preprocess"
	PhaseSwarm      = "swarm"
	PhaseEffects    = "effects"
	PhaseParamSync  = "param_sync"
	PhaseDispatch   = "dispatch"
	PhaseTelemetry  = "telemetry"
)

// perfPhases is the fixed reporting order of phases.
var perfPhases = []string{
	PhasePreprocess, PhaseSwarm, PhaseEffects,
	PhaseParamSync, PhaseDispatch, PhaseTelemetry,
}

// Phases returns the phase names in reporting order.
func Phases() []string {
	out := make([]string, len(perfPhases))
	copy(out, perfPhases)
	return out
}

// FrameSample is the timing of one update call.
type FrameSample struct {
	State    string // Application state the frame ran in
	Start    time.Time
	Duration time.Duration
	SimTicks int // Simulation clock firings inside the frame (0 or 1)
	Phases   map[string]time.Duration
}

// PerfCollector times update calls over a ring of the most recent frames.
//
// A frame is one call into the update loop, whatever the state. A simulation
// tick is one firing of the fixed-period clock and happens in at most one
// frame per period, so the two rates differ whenever the render rate is not
// the tick rate.
type PerfCollector struct {
	now func() time.Time

	ring   []FrameSample
	next   int
	filled int

	cur        FrameSample
	inFrame    bool
	phase      string
	phaseStart time.Time

	totalFrames   uint64
	totalSimTicks uint64

	lastPresent time.Time
	presentGap  time.Duration
}

// NewPerfCollector creates a collector averaging over the last window frames.
func NewPerfCollector(window int) *PerfCollector {
	return NewPerfCollectorWithClock(window, time.Now)
}

// NewPerfCollectorWithClock is NewPerfCollector with an explicit time source.
func NewPerfCollectorWithClock(window int, now func() time.Time) *PerfCollector {
	if window < 1 {
		window = 60
	}
	if now == nil {
		now = time.Now
	}
	return &PerfCollector{
		now:  now,
		ring: make([]FrameSample, window),
	}
}

// BeginFrame starts timing an update call made in the given state.
func (p *PerfCollector) BeginFrame(state string) {
	p.cur = FrameSample{
		State:  state,
		Start:  p.now(),
		Phases: make(map[string]time.Duration),
	}
	p.phase = ""
	p.inFrame = true
}

// Phase closes the running phase, if any, and opens the named one.
func (p *PerfCollector) Phase(name string) {
	if !p.inFrame {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phase = name
	p.phaseStart = now
}

// SimTick records a simulation clock firing in the current frame.
func (p *PerfCollector) SimTick() {
	if p.inFrame {
		p.cur.SimTicks++
	}
}

// EndFrame closes the running phase and stores the frame.
func (p *PerfCollector) EndFrame() {
	if !p.inFrame {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.cur.Duration = now.Sub(p.cur.Start)
	p.inFrame = false

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
	p.totalFrames++
	p.totalSimTicks += uint64(p.cur.SimTicks)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.cur.Phases[p.phase] += now.Sub(p.phaseStart)
		p.phase = ""
	}
}

// Present records the gap since the previous presented frame.
func (p *PerfCollector) Present() {
	now := p.now()
	if !p.lastPresent.IsZero() {
		p.presentGap = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// Totals returns the frame and simulation tick counts since creation.
func (p *PerfCollector) Totals() (frames, simTicks uint64) {
	return p.totalFrames, p.totalSimTicks
}

// PerfStats aggregates the frames currently in the window.
type PerfStats struct {
	Frames      int
	StateFrames map[string]int // Frames per application state

	AvgFrame time.Duration
	P95Frame time.Duration
	MaxFrame time.Duration

	// Simulation ticks fired in the window and their wall-clock rate
	SimTicks    int
	SimTickRate float64

	PhaseAvg map[string]time.Duration // Average per frame
	PhasePct map[string]float64       // Share of the average frame

	PresentGap time.Duration
	FPS        float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		StateFrames: make(map[string]int),
		PhaseAvg:    make(map[string]time.Duration),
		PhasePct:    make(map[string]float64),
		PresentGap:  p.presentGap,
	}
	if p.presentGap > 0 {
		s.FPS = float64(time.Second) / float64(p.presentGap)
	}
	if p.filled == 0 {
		return s
	}

	durations := make([]float64, 0, p.filled)
	phaseSum := make(map[string]time.Duration)
	first, last := p.ring[0].Start, time.Time{}
	for _, f := range p.ring[:p.filled] {
		durations = append(durations, float64(f.Duration))
		s.StateFrames[f.State]++
		s.SimTicks += f.SimTicks
		for name, d := range f.Phases {
			phaseSum[name] += d
		}
		if f.Start.Before(first) {
			first = f.Start
		}
		if end := f.Start.Add(f.Duration); end.After(last) {
			last = end
		}
	}
	sort.Float64s(durations)

	s.Frames = p.filled
	s.AvgFrame = time.Duration(stat.Mean(durations, nil))
	s.P95Frame = time.Duration(Percentile(durations, 0.95))
	s.MaxFrame = time.Duration(durations[len(durations)-1])

	if span := last.Sub(first); span > 0 {
		s.SimTickRate = float64(s.SimTicks) / span.Seconds()
	}

	for name, sum := range phaseSum {
		avg := sum / time.Duration(p.filled)
		s.PhaseAvg[name] = avg
		if s.AvgFrame > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgFrame) * 100
		}
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"frames", s.Frames,
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"p95_frame_us", s.P95Frame.Microseconds(),
		"sim_ticks", s.SimTicks,
		"sim_ticks_per_sec", s.SimTickRate,
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range perfPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("p95_frame_us", s.P95Frame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Int("sim_ticks", s.SimTicks),
		slog.Float64("sim_ticks_per_sec", s.SimTickRate),
	}
	for state, n := range s.StateFrames {
		attrs = append(attrs, slog.Int("frames_"+state, n))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      uint64  `csv:"window_end"` // Simulation tick the row was written at
	Frames         int     `csv:"frames"`
	AvgFrameUS     int64   `csv:"avg_frame_us"`
	P95FrameUS     int64   `csv:"p95_frame_us"`
	MaxFrameUS     int64   `csv:"max_frame_us"`
	SimTicks       int     `csv:"sim_ticks"`
	SimTicksPerSec float64 `csv:"sim_ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	PreprocessPct  float64 `csv:"preprocess_pct"`
	SwarmPct       float64 `csv:"swarm_pct"`
	EffectsPct     float64 `csv:"effects_pct"`
	ParamSyncPct   float64 `csv:"param_sync_pct"`
	DispatchPct    float64 `csv:"dispatch_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		Frames:         s.Frames,
		AvgFrameUS:     s.AvgFrame.Microseconds(),
		P95FrameUS:     s.P95Frame.Microseconds(),
		MaxFrameUS:     s.MaxFrame.Microseconds(),
		SimTicks:       s.SimTicks,
		SimTicksPerSec: s.SimTickRate,
		FPS:            s.FPS,
		PreprocessPct:  s.PhasePct[PhasePreprocess],
		SwarmPct:       s.PhasePct[PhaseSwarm],
		EffectsPct:     s.PhasePct[PhaseEffects],
		ParamSyncPct:   s.PhasePct[PhaseParamSync],
		DispatchPct:    s.PhasePct[PhaseDispatch],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
