package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bartgut/PerlinMapVisualizer/components"
)

// WindowStats holds aggregated swarm statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counter state at window end
	GrowthFrame   uint32 `csv:"growth_frame"`
	FrameAdvances int    `csv:"frame_advances"` // Growth frame increments during the window
	Repositions   int    `csv:"repositions"`    // Crawlers moved during the window

	// Population at window end
	Crawlers int `csv:"crawlers"`
	Accent   int `csv:"accent"`

	// Alpha distribution (sampled at window end)
	AlphaMean float64 `csv:"alpha_mean"`
	AlphaP10  float64 `csv:"alpha_p10"`
	AlphaP50  float64 `csv:"alpha_p50"`
	AlphaP90  float64 `csv:"alpha_p90"`

	// Positional spread (sampled at window end)
	MeanX   float64 `csv:"mean_x"`
	MeanY   float64 `csv:"mean_y"`
	SpreadX float64 `csv:"spread_x"` // Standard deviation of x
	SpreadY float64 `csv:"spread_y"` // Standard deviation of y
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation between closest ranks
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// SwarmSample holds per-crawler values gathered at window end.
type SwarmSample struct {
	Alpha  []float64
	X, Y   []float64
	Accent int
}

// SampleSwarm gathers the values WindowStats is computed from.
func SampleSwarm(crawlers []components.Crawler) SwarmSample {
	s := SwarmSample{
		Alpha: make([]float64, len(crawlers)),
		X:     make([]float64, len(crawlers)),
		Y:     make([]float64, len(crawlers)),
	}
	for i, c := range crawlers {
		s.Alpha[i] = float64(c.Color.A)
		s.X[i] = float64(c.Pos.X)
		s.Y[i] = float64(c.Pos.Y)
		if c.Group == components.GroupAccent {
			s.Accent++
		}
	}
	return s
}

// ComputeAlphaStats calculates mean and percentiles of alpha values.
func ComputeAlphaStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// ComputeSpread returns the mean and population standard deviation of values.
func ComputeSpread(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Uint64("growth_frame", uint64(s.GrowthFrame)),
		slog.Int("frame_advances", s.FrameAdvances),
		slog.Int("repositions", s.Repositions),
		slog.Int("crawlers", s.Crawlers),
		slog.Int("accent", s.Accent),
		slog.Float64("alpha_mean", s.AlphaMean),
		slog.Float64("alpha_p50", s.AlphaP50),
		slog.Float64("spread_x", s.SpreadX),
		slog.Float64("spread_y", s.SpreadY),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"growth_frame", s.GrowthFrame,
		"repositions", s.Repositions,
		"alpha_mean", s.AlphaMean,
		"spread_x", s.SpreadX,
		"spread_y", s.SpreadY,
	)
}
