package systems

import (
	"fmt"

	"github.com/bartgut/PerlinMapVisualizer/components"
)

// SwarmParams configures the crawler population.
type SwarmParams struct {
	Count        int
	MaxRadius    uint32
	RadiusStep   uint32
	AlphaStep    float32
	GroupEvery   int // Every Nth crawler by creation index joins GroupAccent
	GroupColor   components.Color
	DefaultColor components.Color
}

// TickResult summarizes one simulation tick.
type TickResult struct {
	Repositioned int  // Crawlers that completed a pulse and moved
	Advanced     bool // Whether the growth frame counter moved this tick
}

// Swarm owns the fixed crawler population and the shared growth frame counter.
type Swarm struct {
	crawlers    []components.Crawler
	gen         *PositionGenerator
	params      SwarmParams
	growthFrame uint32
	ticks       uint64
}

// NewSwarm spawns params.Count crawlers in one batch. Every crawler is placed
// using the same growthFrame value; only the crawler id differs.
func NewSwarm(params SwarmParams, gen *PositionGenerator, growthFrame uint32) *Swarm {
	if params.GroupEvery <= 0 {
		params.GroupEvery = 5
	}
	s := &Swarm{
		crawlers:    make([]components.Crawler, params.Count),
		gen:         gen,
		params:      params,
		growthFrame: growthFrame,
	}

	for i := range s.crawlers {
		id := uint32(i)
		group := components.GroupDefault
		color := params.DefaultColor
		if i%params.GroupEvery == 0 {
			group = components.GroupAccent
			color = params.GroupColor
		}
		s.crawlers[i] = components.Crawler{
			ID:        id,
			Pos:       gen.PositionFor(id, growthFrame),
			MaxRadius: params.MaxRadius,
			Color:     color,
			Group:     group,
		}
	}

	s.checkIdentities()
	return s
}

// checkIdentities panics if two crawlers share an id.
func (s *Swarm) checkIdentities() {
	seen := make(map[uint32]int, len(s.crawlers))
	for i, c := range s.crawlers {
		if j, dup := seen[c.ID]; dup {
			panic(fmt.Sprintf("systems: crawler id %d used at index %d and %d", c.ID, j, i))
		}
		seen[c.ID] = i
	}
}

// Tick advances every crawler by one step.
// The growth frame counter moves at most once per tick: the first crawler to
// complete its pulse advances it, and every crawler repositioned in this tick
// uses that same value.
func (s *Swarm) Tick() TickResult {
	var res TickResult
	for i := range s.crawlers {
		c := &s.crawlers[i]
		c.Fade(s.params.AlphaStep)
		if !c.Pulse(s.params.RadiusStep) {
			continue
		}
		if !res.Advanced {
			s.growthFrame++
			res.Advanced = true
		}
		c.Pos = s.gen.PositionFor(c.ID, s.growthFrame)
		res.Repositioned++
	}
	s.ticks++
	return res
}

// Crawlers returns the population in creation order.
// The slice is owned by the swarm and is only valid until the next Tick.
func (s *Swarm) Crawlers() []components.Crawler {
	return s.crawlers
}

// Len returns the fixed population size.
func (s *Swarm) Len() int {
	return len(s.crawlers)
}

// GrowthFrame returns the shared growth frame counter.
func (s *Swarm) GrowthFrame() uint32 {
	return s.growthFrame
}

// Ticks returns how many simulation ticks have run.
func (s *Swarm) Ticks() uint64 {
	return s.ticks
}
