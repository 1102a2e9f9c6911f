// Package assets loads map images asynchronously and tracks their lifecycle.
//
// Images are decoded without any color management, so pixel values reach the
// thresholding pass exactly as stored in the file (linear, not sRGB-corrected).
package assets

import (
	"fmt"
	"image"
	_ "image/jpeg" // map sets ship as JPEG
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// State is a map asset's lifecycle stage.
type State int32

const (
	StateUnloaded State = iota
	StateLoaded
	StateThresholded
	StateGPUReady
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateThresholded:
		return "thresholded"
	case StateGPUReady:
		return "gpu_ready"
	default:
		return "unknown"
	}
}

// Usage describes how the GPU may access an image's texture.
type Usage uint8

const (
	UsageSampled Usage = iota // Default: sampled texture
	UsageStorage              // Readable as a storage image by a compute kernel
)

// Handle refers to an image owned by the asset server.
// It is safe to poll from the frame loop while the load is in flight.
type Handle struct {
	name string

	mu    sync.Mutex
	img   *image.RGBA
	state State
	usage Usage
	err   error
}

// Name returns the asset file name.
func (h *Handle) Name() string {
	return h.name
}

// Image returns the decoded pixels once the load has finished.
func (h *Handle) Image() (*image.RGBA, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateUnloaded {
		return nil, false
	}
	return h.img, true
}

// State returns the lifecycle stage.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Usage returns the texture usage.
func (h *Handle) Usage() Usage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.usage
}

// Err returns the load error, if any. A failed handle stays unloaded.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// MarkThresholded records that the pixels hold a binary mask.
func (h *Handle) MarkThresholded() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateLoaded {
		h.state = StateThresholded
	}
}

// MarkStorage switches the texture to storage usage, making it GPU-ready.
func (h *Handle) MarkStorage() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.usage = UsageStorage
	if h.state == StateThresholded {
		h.state = StateGPUReady
	}
}

func (h *Handle) finish(img *image.RGBA, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.err = err
		return
	}
	h.img = img
	h.state = StateLoaded
}

// Server decodes images from a filesystem into canvas-sized RGBA buffers.
type Server struct {
	fsys          fs.FS
	width, height int
	wg            sync.WaitGroup
}

// NewServer creates a server reading from fsys. Every image is delivered at
// width x height; sources of another size are rescaled.
func NewServer(fsys fs.FS, width, height int) *Server {
	return &Server{fsys: fsys, width: width, height: height}
}

// Load starts decoding name in the background and returns its handle immediately.
func (s *Server) Load(name string) *Handle {
	h := &Handle{name: name}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		img, err := s.decodeFile(name)
		h.finish(img, err)
		if err != nil {
			slog.Error("asset load failed", "name", name, "error", err)
			return
		}
		slog.Info("asset loaded", "name", name, "elapsed_ms", time.Since(start).Milliseconds())
	}()
	return h
}

// Wait blocks until every load issued so far has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) decodeFile(name string) (*image.RGBA, error) {
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	img, err := Decode(f, s.width, s.height)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// Decode reads an image and converts it to a width x height RGBA buffer.
func Decode(r io.Reader, width, height int) (*image.RGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		draw.Copy(dst, image.Point{}, src, sb, draw.Src, nil)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return dst, nil
}
