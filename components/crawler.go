// Package components defines the crawler agent record.
package components

// Group selects which visual class a crawler belongs to.
type Group uint32

const (
	GroupDefault Group = iota // Translucent near-white crawlers
	GroupAccent               // Opaque red crawlers, every Nth by creation order
)

// Position is an integer pixel coordinate on the canvas.
type Position struct {
	X, Y uint32
}

// Color is an RGBA value with float channels.
// RGB stays fixed after creation; only A changes.
type Color struct {
	R, G, B, A float32
}

// ColorFromArray builds a Color from an [r, g, b, a] array.
func ColorFromArray(c [4]float32) Color {
	return Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Crawler is one animated point of the swarm.
type Crawler struct {
	ID          uint32 // Stable identity, never reused
	Pos         Position
	PulseRadius uint32 // Current bloom progress in [0, MaxRadius]
	MaxRadius   uint32
	Color       Color
	Group       Group
}

// Fade raises the alpha channel by step, leaving RGB untouched.
// Alpha is not clamped.
func (c *Crawler) Fade(step float32) {
	c.Color.A += step
}

// Pulse advances the pulse radius by step and reports whether it
// overflowed MaxRadius. On overflow the radius is reset to zero.
func (c *Crawler) Pulse(step uint32) bool {
	c.PulseRadius += step
	if c.PulseRadius > c.MaxRadius {
		c.PulseRadius = 0
		return true
	}
	return false
}
