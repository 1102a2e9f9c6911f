package systems

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/bartgut/PerlinMapVisualizer/components"
)

// NoiseParams configures the procedural placement field.
type NoiseParams struct {
	Seed        int64
	TimeScale   float64 // Noise-space step per growth frame
	XMultiplier float64 // Per-agent offset on the x sample axis
	YMultiplier float64 // Per-agent offset on the y sample axis
}

// PositionGenerator maps (agent id, growth frame) to a canvas pixel.
// It holds no mutable state; the same inputs always give the same output.
type PositionGenerator struct {
	field         opensimplex.Noise
	params        NoiseParams
	width, height uint32
}

// NewPositionGenerator creates a generator for a width x height canvas.
func NewPositionGenerator(params NoiseParams, width, height uint32) *PositionGenerator {
	return &PositionGenerator{
		field:  opensimplex.New(params.Seed),
		params: params,
		width:  width,
		height: height,
	}
}

// PositionFor returns the pixel for the given agent at the given growth frame.
// The two axes sample the field at different per-agent offsets so x and y
// are decorrelated.
func (g *PositionGenerator) PositionFor(agentID, growthFrame uint32) components.Position {
	t := g.params.TimeScale * float64(growthFrame)
	id := float64(agentID)

	nx := g.field.Eval2(t+g.params.XMultiplier*id, 0)
	ny := g.field.Eval2(t+g.params.YMultiplier*id, 0)

	return components.Position{
		X: remapToPixel(nx, g.width),
		Y: remapToPixel(ny, g.height),
	}
}

// remapToPixel maps a noise sample in [-1, 1] onto [0, extent).
// Rounding can land exactly on extent; that edge is folded onto extent-1.
func remapToPixel(n float64, extent uint32) uint32 {
	if extent == 0 {
		return 0
	}
	if math.IsNaN(n) {
		n = 0
	}
	v := math.Round((n + 1) / 2 * float64(extent))
	if v <= 0 {
		return 0
	}
	if v >= float64(extent) {
		return extent - 1
	}
	return uint32(v)
}
