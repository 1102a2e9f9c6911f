// Package gpuparams packs crawler state into the parameter buffer consumed by
// the compute kernel.
package gpuparams

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bartgut/PerlinMapVisualizer/components"
)

// Byte layout of one crawler slot. Must match the Crawler struct in the
// compute shader (std430, vec4 aligned to 16 bytes).
const (
	offsetPosX   = 0
	offsetPosY   = 4
	offsetRadius = 8
	offsetColor  = 16
	offsetGroup  = 32

	// SlotSize is the stride of one crawler in the parameter buffer.
	SlotSize = 48
)

// CrawlerSlot is the GPU-facing snapshot of one crawler.
type CrawlerSlot struct {
	X, Y        uint32
	PulseRadius uint32
	Color       [4]float32
	Group       uint32
}

// ParamBuffer is the fixed-capacity crawler parameter buffer handed to the
// compute kernel. Its length is set once and never changes.
type ParamBuffer struct {
	slots []CrawlerSlot
	data  []byte
	syncs uint64
}

// NewParamBuffer creates a buffer with room for exactly capacity crawlers.
func NewParamBuffer(capacity int) *ParamBuffer {
	return &ParamBuffer{
		slots: make([]CrawlerSlot, capacity),
		data:  make([]byte, capacity*SlotSize),
	}
}

// Sync overwrites every slot with the matching crawler, in iteration order.
// A population that does not match the buffer capacity is a broken invariant
// and panics rather than truncating or wrapping.
func (b *ParamBuffer) Sync(crawlers []components.Crawler) {
	if len(crawlers) != len(b.slots) {
		panic(fmt.Sprintf("gpuparams: %d crawlers do not fit parameter buffer of capacity %d", len(crawlers), len(b.slots)))
	}

	for i := range crawlers {
		c := &crawlers[i]
		slot := CrawlerSlot{
			X:           c.Pos.X,
			Y:           c.Pos.Y,
			PulseRadius: c.PulseRadius,
			Color:       [4]float32{c.Color.R, c.Color.G, c.Color.B, c.Color.A},
			Group:       uint32(c.Group),
		}
		b.slots[i] = slot
		packSlot(b.data[i*SlotSize:(i+1)*SlotSize], slot)
	}
	b.syncs++
}

// packSlot writes slot into dst using the shader's byte offsets.
// Padding bytes are left zero.
func packSlot(dst []byte, slot CrawlerSlot) {
	le := binary.LittleEndian
	le.PutUint32(dst[offsetPosX:], slot.X)
	le.PutUint32(dst[offsetPosY:], slot.Y)
	le.PutUint32(dst[offsetRadius:], slot.PulseRadius)
	for j, v := range slot.Color {
		le.PutUint32(dst[offsetColor+j*4:], math.Float32bits(v))
	}
	le.PutUint32(dst[offsetGroup:], slot.Group)
}

// UnpackSlot decodes the slot at index i from the packed bytes.
func (b *ParamBuffer) UnpackSlot(i int) CrawlerSlot {
	src := b.data[i*SlotSize : (i+1)*SlotSize]
	le := binary.LittleEndian
	var slot CrawlerSlot
	slot.X = le.Uint32(src[offsetPosX:])
	slot.Y = le.Uint32(src[offsetPosY:])
	slot.PulseRadius = le.Uint32(src[offsetRadius:])
	for j := range slot.Color {
		slot.Color[j] = math.Float32frombits(le.Uint32(src[offsetColor+j*4:]))
	}
	slot.Group = le.Uint32(src[offsetGroup:])
	return slot
}

// Slots returns the unpacked snapshots in crawler order.
func (b *ParamBuffer) Slots() []CrawlerSlot {
	return b.slots
}

// Bytes returns the packed buffer as uploaded to the GPU.
func (b *ParamBuffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer capacity in crawlers.
func (b *ParamBuffer) Len() int {
	return len(b.slots)
}

// Syncs returns how many times the buffer has been fully rewritten.
func (b *ParamBuffer) Syncs() uint64 {
	return b.syncs
}
