// Package camera provides the canvas presentation transform.
package camera

import "math"

// Camera places the canvas on screen. The canvas is drawn centered on the
// viewport at a fixed pixel scale and may be rotated about its center.
type Camera struct {
	// Rotation about the canvas center, in radians
	Rotation float32

	// Screen pixels per canvas pixel (1 = 1:1)
	PixelScale float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Canvas dimensions
	CanvasW, CanvasH float32
}

// New creates a camera showing the canvas at the given scale with no rotation.
func New(viewportW, viewportH, canvasW, canvasH, pixelScale float32) *Camera {
	if pixelScale <= 0 {
		pixelScale = 1
	}
	return &Camera{
		PixelScale: pixelScale,
		ViewportW:  viewportW,
		ViewportH:  viewportH,
		CanvasW:    canvasW,
		CanvasH:    canvasH,
	}
}

// Rotate turns the canvas about its center by delta radians, wrapped to [0, 2π).
func (c *Camera) Rotate(delta float32) {
	c.Rotation = wrapAngle(c.Rotation + delta)
}

// Reset restores the identity rotation.
func (c *Camera) Reset() {
	c.Rotation = 0
}

// RotationDegrees returns the rotation in degrees, as raylib draw calls expect.
func (c *Camera) RotationDegrees() float32 {
	return c.Rotation * 180 / math.Pi
}

// Dest returns the on-screen rectangle of the unrotated canvas: its center
// and its scaled size.
func (c *Camera) Dest() (cx, cy, w, h float32) {
	return c.ViewportW / 2, c.ViewportH / 2, c.CanvasW * c.PixelScale, c.CanvasH * c.PixelScale
}

// ScreenToCanvas maps a screen point to canvas coordinates, undoing the
// rotation about the canvas center and the pixel scale.
func (c *Camera) ScreenToCanvas(sx, sy float32) (px, py float32) {
	dx := sx - c.ViewportW/2
	dy := sy - c.ViewportH/2

	sin, cos := math.Sincos(float64(-c.Rotation))
	rx := dx*float32(cos) - dy*float32(sin)
	ry := dx*float32(sin) + dy*float32(cos)

	return rx/c.PixelScale + c.CanvasW/2, ry/c.PixelScale + c.CanvasH/2
}

// PixelAt returns the canvas pixel under a screen point. ok is false when
// the point falls outside the rotated canvas.
func (c *Camera) PixelAt(sx, sy float32) (x, y int, ok bool) {
	px, py := c.ScreenToCanvas(sx, sy)
	if px < 0 || py < 0 || px >= c.CanvasW || py >= c.CanvasH {
		return 0, 0, false
	}
	return int(px), int(py), true
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

func wrapAngle(a float32) float32 {
	const tau = 2 * math.Pi
	r := float32(math.Mod(float64(a), tau))
	if r < 0 {
		r += tau
	}
	return r
}
