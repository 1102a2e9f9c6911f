package systems

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mask colors written by Threshold.
var (
	MaskFeature    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	MaskBackground = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Classifier binarizes pixels by Euclidean RGB distance to a target color.
type Classifier struct {
	Target    r3.Vec
	Threshold float64
}

// NewClassifier creates a classifier from an RGB target in 0-255 channel units.
func NewClassifier(target [3]float64, threshold float64) Classifier {
	return Classifier{
		Target:    r3.Vec{X: target[0], Y: target[1], Z: target[2]},
		Threshold: threshold,
	}
}

// IsFeature reports whether the pixel is strictly closer than the threshold.
// A pixel exactly at the threshold distance is background.
func (c Classifier) IsFeature(r, g, b uint8) bool {
	p := r3.Vec{X: float64(r), Y: float64(g), Z: float64(b)}
	return r3.Norm(r3.Sub(p, c.Target)) < c.Threshold
}

// Threshold overwrites every pixel of img with MaskFeature or MaskBackground
// in a single pass. It does not allocate.
func Threshold(img *image.RGBA, c Classifier) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4 : x*4+4 : x*4+4]
			m := MaskBackground
			if c.IsFeature(px[0], px[1], px[2]) {
				m = MaskFeature
			}
			px[0], px[1], px[2], px[3] = m.R, m.G, m.B, m.A
		}
	}
}
