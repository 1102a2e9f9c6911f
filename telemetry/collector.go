package telemetry

import "github.com/bartgut/PerlinMapVisualizer/components"

// Collector accumulates swarm tick results within windows and produces WindowStats.
type Collector struct {
	windowDurationTicks uint64
	tickPeriod          float64

	// Current window tracking
	windowStartTick uint64

	// Counters for current window
	frameAdvances int
	repositions   int
}

// NewCollector creates a new stats collector.
// windowTicks: how many swarm ticks each stats window spans
// tickPeriod: seconds per swarm tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, tickPeriod float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: uint64(windowTicks),
		tickPeriod:          tickPeriod,
	}
}

// RecordTick records the outcome of one swarm tick.
func (c *Collector) RecordTick(repositioned int, advanced bool) {
	c.repositions += repositioned
	if advanced {
		c.frameAdvances++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the crawlers' current state and resets
// counters for the next window.
func (c *Collector) Flush(currentTick uint64, growthFrame uint32, crawlers []components.Crawler) WindowStats {
	sample := SampleSwarm(crawlers)
	alphaMean, alphaP10, alphaP50, alphaP90 := ComputeAlphaStats(sample.Alpha)
	meanX, spreadX := ComputeSpread(sample.X)
	meanY, spreadY := ComputeSpread(sample.Y)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.tickPeriod,

		GrowthFrame:   growthFrame,
		FrameAdvances: c.frameAdvances,
		Repositions:   c.repositions,

		Crawlers: len(crawlers),
		Accent:   sample.Accent,

		AlphaMean: alphaMean,
		AlphaP10:  alphaP10,
		AlphaP50:  alphaP50,
		AlphaP90:  alphaP90,

		MeanX:   meanX,
		MeanY:   meanY,
		SpreadX: spreadX,
		SpreadY: spreadY,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.frameAdvances = 0
	c.repositions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
