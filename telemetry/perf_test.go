package telemetry

import (
	"math"
	"testing"
	"time"
)

// stepClock is a manual time source for the perf collector.
type stepClock struct {
	t time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) now() time.Time          { return c.t }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPerfCollector_BasicTiming(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(10, clk.now)

	for i := 0; i < 5; i++ {
		pc.BeginFrame("running")
		pc.Phase(PhaseSwarm)
		clk.advance(100 * time.Microsecond)
		pc.Phase(PhaseParamSync)
		clk.advance(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.Frames != 5 {
		t.Errorf("expected 5 frames, got %d", stats.Frames)
	}
	if stats.AvgFrame != 300*time.Microsecond {
		t.Errorf("expected 300µs average frame, got %v", stats.AvgFrame)
	}
	if stats.PhaseAvg[PhaseSwarm] != 100*time.Microsecond {
		t.Errorf("expected 100µs swarm phase, got %v", stats.PhaseAvg[PhaseSwarm])
	}
	if stats.PhaseAvg[PhaseParamSync] != 200*time.Microsecond {
		t.Errorf("expected 200µs param_sync phase, got %v", stats.PhaseAvg[PhaseParamSync])
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(10, clk.now)

	for i := 0; i < 5; i++ {
		pc.BeginFrame("running")
		pc.Phase("fast")
		clk.advance(10 * time.Microsecond)
		pc.Phase("slow")
		clk.advance(90 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if got := stats.PhasePct["fast"]; math.Abs(got-10) > 1e-9 {
		t.Errorf("expected fast phase at 10%%, got %v%%", got)
	}
	if got := stats.PhasePct["slow"]; math.Abs(got-90) > 1e-9 {
		t.Errorf("expected slow phase at 90%%, got %v%%", got)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(5, clk.now)

	// Five slow frames followed by five fast ones push the slow ones out.
	for i := 0; i < 10; i++ {
		d := time.Millisecond
		if i < 5 {
			d = 10 * time.Millisecond
		}
		pc.BeginFrame("running")
		clk.advance(d)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.Frames != 5 {
		t.Errorf("expected window of 5 frames, got %d", stats.Frames)
	}
	if stats.MaxFrame != time.Millisecond {
		t.Errorf("expected slow frames evicted, max frame is %v", stats.MaxFrame)
	}
	if frames, _ := pc.Totals(); frames != 10 {
		t.Errorf("expected 10 total frames, got %d", frames)
	}
}

func TestPerfCollector_FramesAndSimTicksDiffer(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(100, clk.now)

	// 8ms frames against a 16ms simulation clock: every other frame ticks.
	for i := 0; i < 40; i++ {
		pc.BeginFrame("running")
		clk.advance(8 * time.Millisecond)
		if i%2 == 1 {
			pc.SimTick()
		}
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.Frames != 40 {
		t.Errorf("expected 40 frames, got %d", stats.Frames)
	}
	if stats.SimTicks != 20 {
		t.Errorf("expected 20 simulation ticks, got %d", stats.SimTicks)
	}
	// 20 ticks over 320ms of wall time
	if stats.SimTickRate < 62.4 || stats.SimTickRate > 62.6 {
		t.Errorf("expected 62.5 sim ticks/s, got %v", stats.SimTickRate)
	}
	if _, ticks := pc.Totals(); ticks != 20 {
		t.Errorf("expected 20 total sim ticks, got %d", ticks)
	}
}

func TestPerfCollector_StateFrames(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(10, clk.now)

	for _, state := range []string{"preload", "preprocessing", "preprocessing", "running"} {
		pc.BeginFrame(state)
		clk.advance(time.Millisecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.StateFrames["preprocessing"] != 2 {
		t.Errorf("expected 2 preprocessing frames, got %d", stats.StateFrames["preprocessing"])
	}
	if stats.StateFrames["preload"] != 1 || stats.StateFrames["running"] != 1 {
		t.Errorf("unexpected state counts %v", stats.StateFrames)
	}
}

func TestPerfCollector_P95(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(20, clk.now)

	for i := 0; i < 20; i++ {
		d := time.Millisecond
		if i == 19 {
			d = 21 * time.Millisecond
		}
		pc.BeginFrame("running")
		clk.advance(d)
		pc.EndFrame()
	}

	stats := pc.Stats()

	// 0.95 * 19 = 18.05: 95% of the way between 1ms and 21ms is 2ms
	if d := stats.P95Frame - 2*time.Millisecond; d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("expected 2ms p95, got %v", stats.P95Frame)
	}
	if stats.MaxFrame != 21*time.Millisecond {
		t.Errorf("expected 21ms max, got %v", stats.MaxFrame)
	}
}

func TestPerfCollector_PhaseOutsideFrameIgnored(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(10, clk.now)

	pc.Phase(PhaseSwarm)
	pc.SimTick()
	pc.EndFrame()

	if stats := pc.Stats(); stats.Frames != 0 || stats.SimTicks != 0 {
		t.Errorf("expected no frames recorded, got %+v", stats)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrame != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil || stats.StateFrames == nil {
		t.Error("expected non-nil maps")
	}
}

func TestPerfCollector_Present(t *testing.T) {
	clk := newStepClock()
	pc := NewPerfCollectorWithClock(10, clk.now)

	pc.Present()
	clk.advance(16 * time.Millisecond)
	pc.Present()

	stats := pc.Stats()

	if stats.PresentGap != 16*time.Millisecond {
		t.Errorf("expected 16ms present gap, got %v", stats.PresentGap)
	}
	if stats.FPS != 62.5 {
		t.Errorf("expected 62.5 FPS, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		Frames:      4,
		AvgFrame:    1500 * time.Microsecond,
		SimTicks:    2,
		SimTickRate: 62.5,
		PhasePct:    map[string]float64{PhaseDispatch: 40},
	}

	row := s.ToCSV(120)

	if row.WindowEnd != 120 || row.Frames != 4 || row.SimTicks != 2 {
		t.Errorf("unexpected row %+v", row)
	}
	if row.AvgFrameUS != 1500 || row.DispatchPct != 40 || row.SwarmPct != 0 {
		t.Errorf("unexpected timings %+v", row)
	}
}
