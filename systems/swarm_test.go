package systems

import (
	"testing"
	"time"

	"github.com/bartgut/PerlinMapVisualizer/components"
)

func testSwarmParams(count int) SwarmParams {
	return SwarmParams{
		Count:        count,
		MaxRadius:    2,
		RadiusStep:   2,
		AlphaStep:    0.001,
		GroupEvery:   5,
		GroupColor:   components.Color{R: 1, A: 1},
		DefaultColor: components.Color{R: 1, G: 1, B: 1, A: 0.6},
	}
}

func newTestSwarm(count int, growthFrame uint32) *Swarm {
	gen := NewPositionGenerator(testNoiseParams(), 1104, 872)
	return NewSwarm(testSwarmParams(count), gen, growthFrame)
}

func TestNewSwarmGroups(t *testing.T) {
	const n = 1300
	s := newTestSwarm(n, 1)

	if s.Len() != n {
		t.Fatalf("expected %d crawlers, got %d", n, s.Len())
	}

	accent := 0
	for i, c := range s.Crawlers() {
		if c.ID != uint32(i) {
			t.Fatalf("crawler %d has id %d", i, c.ID)
		}
		wantAccent := i%5 == 0
		if (c.Group == components.GroupAccent) != wantAccent {
			t.Errorf("crawler %d: group %d, accent expected %v", i, c.Group, wantAccent)
		}
		if c.Group == components.GroupAccent {
			accent++
			if c.Color != (components.Color{R: 1, A: 1}) {
				t.Errorf("accent crawler %d has color %+v", i, c.Color)
			}
		} else if c.Color.A != 0.6 {
			t.Errorf("default crawler %d has alpha %f", i, c.Color.A)
		}
	}

	if want := (n + 4) / 5; accent != want {
		t.Errorf("expected %d accent crawlers, got %d", want, accent)
	}
}

func TestNewSwarmSharedSpawnFrame(t *testing.T) {
	s := newTestSwarm(100, 7)
	for _, c := range s.Crawlers() {
		if want := s.gen.PositionFor(c.ID, 7); c.Pos != want {
			t.Fatalf("crawler %d spawned at %v, want %v", c.ID, c.Pos, want)
		}
		if c.PulseRadius != 0 || c.MaxRadius != 2 {
			t.Errorf("crawler %d: radius %d/%d", c.ID, c.PulseRadius, c.MaxRadius)
		}
	}
	if s.GrowthFrame() != 7 {
		t.Errorf("spawning must not move the counter, got %d", s.GrowthFrame())
	}
}

func TestTickSingleCounterAdvance(t *testing.T) {
	s := newTestSwarm(100, 1)

	// Half the population is one step from completing its pulse
	for i := range s.crawlers {
		if i%2 == 0 {
			s.crawlers[i].PulseRadius = 2
		}
	}

	res := s.Tick()
	if !res.Advanced {
		t.Fatal("expected the counter to advance")
	}
	if res.Repositioned != 50 {
		t.Fatalf("expected 50 repositioned crawlers, got %d", res.Repositioned)
	}
	if s.GrowthFrame() != 2 {
		t.Fatalf("expected growth frame 2, got %d", s.GrowthFrame())
	}

	for i, c := range s.Crawlers() {
		if i%2 == 0 {
			if c.PulseRadius != 0 {
				t.Errorf("crawler %d: radius %d after reset", i, c.PulseRadius)
			}
			if want := s.gen.PositionFor(c.ID, 2); c.Pos != want {
				t.Errorf("crawler %d at %v, want %v (frame 2)", i, c.Pos, want)
			}
		} else {
			if c.PulseRadius != 2 {
				t.Errorf("crawler %d: radius %d, want 2", i, c.PulseRadius)
			}
			if want := s.gen.PositionFor(c.ID, 1); c.Pos != want {
				t.Errorf("crawler %d moved without completing a pulse", i)
			}
		}
	}
}

func TestTickCycle(t *testing.T) {
	s := newTestSwarm(10, 1)

	// radius 0 -> 2: no crawler completes
	res := s.Tick()
	if res.Advanced || res.Repositioned != 0 {
		t.Fatalf("tick 1: %+v", res)
	}

	// radius 2 -> 4 > 2: every crawler completes, counter moves once
	res = s.Tick()
	if !res.Advanced || res.Repositioned != 10 {
		t.Fatalf("tick 2: %+v", res)
	}
	if s.GrowthFrame() != 2 {
		t.Errorf("expected growth frame 2, got %d", s.GrowthFrame())
	}
	if s.Ticks() != 2 {
		t.Errorf("expected 2 ticks, got %d", s.Ticks())
	}

	for _, c := range s.Crawlers() {
		if c.PulseRadius > c.MaxRadius {
			t.Errorf("crawler %d radius %d exceeds cap", c.ID, c.PulseRadius)
		}
	}
}

func TestTickFadesAlpha(t *testing.T) {
	s := newTestSwarm(5, 1)
	before := make([]components.Color, s.Len())
	for i, c := range s.Crawlers() {
		before[i] = c.Color
	}

	for i := 0; i < 10; i++ {
		s.Tick()
	}

	for i, c := range s.Crawlers() {
		if c.Color.R != before[i].R || c.Color.G != before[i].G || c.Color.B != before[i].B {
			t.Errorf("crawler %d RGB changed", i)
		}
		if d := c.Color.A - before[i].A; d < 0.0099 || d > 0.0101 {
			t.Errorf("crawler %d alpha moved by %f, want 0.01", i, d)
		}
	}
}

func TestCheckIdentitiesPanics(t *testing.T) {
	s := newTestSwarm(3, 1)
	s.crawlers[2].ID = 0

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate crawler id")
		}
	}()
	s.checkIdentities()
}

func TestClockFiresOncePerAdvance(t *testing.T) {
	c := NewClock(16 * time.Millisecond)

	if c.Advance(10 * time.Millisecond) {
		t.Error("fired before the period elapsed")
	}
	if !c.Advance(10 * time.Millisecond) {
		t.Error("expected fire at 20ms")
	}
	// 4ms carried over
	if c.Advance(11 * time.Millisecond) {
		t.Error("fired at 15ms accumulated")
	}
	if !c.Advance(time.Millisecond) {
		t.Error("expected fire at 16ms accumulated")
	}

	// A long frame still fires only once
	if !c.Advance(time.Second) {
		t.Error("expected fire on long frame")
	}
	if c.Advance(0) {
		t.Error("fired twice for one long frame")
	}
}
