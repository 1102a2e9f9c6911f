package systems

import (
	"image"
	"log/slog"
)

// MapSource is a map image owned by the asset layer.
type MapSource interface {
	Name() string
	// Image returns the decoded pixels once loading has finished.
	Image() (*image.RGBA, bool)
	// MarkThresholded records that the pixels now hold a binary mask.
	MarkThresholded()
	// MarkStorage switches the texture usage to GPU-readable storage.
	MarkStorage()
}

// MapKind identifies one of the two preprocessed maps.
type MapKind int

const (
	MapPlain   MapKind = iota // Background map
	MapTraffic                // Feature map
)

func (k MapKind) String() string {
	switch k {
	case MapPlain:
		return "plain"
	case MapTraffic:
		return "traffic"
	default:
		return "unknown"
	}
}

type mapSlot struct {
	src         MapSource
	classifier  Classifier
	thresholded bool
}

// Preprocessor turns both source maps into binary masks once each has loaded.
// Each map is processed at most once; Update can be called every frame.
type Preprocessor struct {
	slots [2]mapSlot
}

// NewPreprocessor creates a preprocessor for the plain and traffic maps.
func NewPreprocessor(plain, traffic MapSource, plainC, trafficC Classifier) *Preprocessor {
	return &Preprocessor{
		slots: [2]mapSlot{
			MapPlain:   {src: plain, classifier: plainC},
			MapTraffic: {src: traffic, classifier: trafficC},
		},
	}
}

// Update thresholds any map that has finished loading and is still pending.
// Returns true once both maps are thresholded.
// A map that never loads keeps the preprocessor pending forever.
func (p *Preprocessor) Update() bool {
	for i := range p.slots {
		slot := &p.slots[i]
		if slot.thresholded {
			continue
		}
		img, ok := slot.src.Image()
		if !ok {
			continue
		}

		Threshold(img, slot.classifier)
		slot.src.MarkThresholded()
		slot.src.MarkStorage()
		slot.thresholded = true

		slog.Info("map thresholded",
			"map", MapKind(i).String(),
			"name", slot.src.Name(),
			"width", img.Bounds().Dx(),
			"height", img.Bounds().Dy(),
			"threshold", slot.classifier.Threshold,
		)
	}
	return p.Ready()
}

// Ready reports whether both maps are thresholded.
func (p *Preprocessor) Ready() bool {
	return p.slots[MapPlain].thresholded && p.slots[MapTraffic].thresholded
}

// Thresholded reports whether the given map has been processed.
func (p *Preprocessor) Thresholded(kind MapKind) bool {
	return p.slots[kind].thresholded
}
