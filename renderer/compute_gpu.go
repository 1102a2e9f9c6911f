package renderer

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/bartgut/PerlinMapVisualizer/camera"
	"github.com/bartgut/PerlinMapVisualizer/gpuparams"
)

// OpenGL enums passed through rlgl.
const (
	glComputeShader int32 = 0x91B9
	glDynamicCopy   int32 = 0x88EA
)

// Image units the kernel reads and writes.
const (
	unitCanvas  = 0
	unitPlain   = 1
	unitTraffic = 2

	bindingParams = 0
)

// ComputeOptions configures the compute stage.
type ComputeOptions struct {
	ShaderPath   string
	EntryPoint   string
	Width        int
	Height       int
	TileSize     int
	GroupsX      uint32 // Dispatch grid, one group per tile
	GroupsY      uint32
	CrawlerCount int
}

// ComputeStage owns the GPU side of a frame: the crawler parameter SSBO,
// the two read-only mask images and the output canvas image.
type ComputeStage struct {
	program uint32
	ssbo    uint32
	bufSize uint32

	plainTex   rl.Texture2D
	trafficTex rl.Texture2D
	canvasTex  rl.Texture2D

	width, height    int32
	groupsX, groupsY uint32
	black            []color.RGBA
}

// NewComputeStage compiles the kernel and uploads the thresholded masks.
// Requires an OpenGL 4.3 context; raylib must be built with -tags opengl43.
func NewComputeStage(opts ComputeOptions, plain, traffic *image.RGBA) (*ComputeStage, error) {
	if opts.GroupsX == 0 || opts.GroupsY == 0 {
		return nil, fmt.Errorf("empty dispatch grid %dx%d", opts.GroupsX, opts.GroupsY)
	}
	src, err := os.ReadFile(opts.ShaderPath)
	if err != nil {
		return nil, fmt.Errorf("reading compute shader: %w", err)
	}

	code := gpuparams.PrepareShaderSource(string(src), map[string]string{
		"ENTRY_POINT":   opts.EntryPoint,
		"CRAWLER_COUNT": fmt.Sprint(opts.CrawlerCount),
		"TILE_SIZE":     fmt.Sprint(opts.TileSize),
	})

	shaderID := rl.CompileShader(code, glComputeShader)
	if shaderID == 0 {
		return nil, fmt.Errorf("compiling compute shader %s", opts.ShaderPath)
	}
	program := rl.LoadComputeShaderProgram(shaderID)
	if program == 0 {
		return nil, fmt.Errorf("linking compute shader %s", opts.ShaderPath)
	}

	s := &ComputeStage{
		program: program,
		bufSize: uint32(opts.CrawlerCount * gpuparams.SlotSize),
		width:   int32(opts.Width),
		height:  int32(opts.Height),
		groupsX: opts.GroupsX,
		groupsY: opts.GroupsY,
		black:   make([]color.RGBA, opts.Width*opts.Height),
	}
	for i := range s.black {
		s.black[i] = color.RGBA{A: 255}
	}

	s.ssbo = rl.LoadShaderBuffer(s.bufSize, nil, glDynamicCopy)
	s.plainTex = loadMaskTexture(plain)
	s.trafficTex = loadMaskTexture(traffic)

	img := rl.GenImageColor(opts.Width, opts.Height, rl.Black)
	s.canvasTex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	slog.Info("compute stage ready",
		"shader", opts.ShaderPath,
		"entry_point", opts.EntryPoint,
		"groups_x", s.groupsX,
		"groups_y", s.groupsY,
		"param_bytes", s.bufSize,
	)
	return s, nil
}

// loadMaskTexture uploads a thresholded mask as an RGBA8 texture.
func loadMaskTexture(mask *image.RGBA) rl.Texture2D {
	b := mask.Bounds()
	img := rl.GenImageColor(b.Dx(), b.Dy(), rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	pixels := make([]color.RGBA, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+4]
			pixels[y*b.Dx()+x] = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
		}
	}
	rl.UpdateTexture(tex, pixels)
	return tex
}

// Dispatch uploads the packed crawler parameters and runs the kernel once.
// The kernel's output is not read back.
func (s *ComputeStage) Dispatch(params []byte) {
	if uint32(len(params)) != s.bufSize {
		panic(fmt.Sprintf("renderer: parameter upload of %d bytes, buffer holds %d", len(params), s.bufSize))
	}
	if len(params) > 0 {
		rl.UpdateShaderBuffer(s.ssbo, unsafe.Pointer(&params[0]), s.bufSize, 0)
	}

	format := int32(rl.UncompressedR8g8b8a8)
	rl.EnableShader(s.program)
	rl.BindShaderBuffer(s.ssbo, bindingParams)
	rl.BindImageTexture(s.canvasTex.ID, unitCanvas, format, false)
	rl.BindImageTexture(s.plainTex.ID, unitPlain, format, true)
	rl.BindImageTexture(s.trafficTex.ID, unitTraffic, format, true)
	rl.ComputeShaderDispatch(s.groupsX, s.groupsY, 1)
	rl.DisableShader()
}

// Clear paints the output canvas black.
func (s *ComputeStage) Clear() {
	rl.UpdateTexture(s.canvasTex, s.black)
}

// Draw presents the canvas through the camera transform.
func (s *ComputeStage) Draw(cam *camera.Camera) {
	cx, cy, w, h := cam.Dest()
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(s.width), Height: float32(s.height)}
	dst := rl.Rectangle{X: cx, Y: cy, Width: w, Height: h}
	origin := rl.Vector2{X: w / 2, Y: h / 2}
	rl.DrawTexturePro(s.canvasTex, src, dst, origin, cam.RotationDegrees(), rl.White)
}

// Export reads the canvas back from the GPU and writes it to path.
// The format follows the file extension.
func (s *ComputeStage) Export(path string) error {
	img := rl.LoadImageFromTexture(s.canvasTex)
	ok := rl.ExportImage(*img, path)
	rl.UnloadImage(img)
	if !ok {
		return fmt.Errorf("exporting canvas to %s", path)
	}
	return nil
}

// Unload releases GPU resources.
func (s *ComputeStage) Unload() {
	rl.UnloadShaderBuffer(s.ssbo)
	rl.UnloadShaderProgram(s.program)
	rl.UnloadTexture(s.plainTex)
	rl.UnloadTexture(s.trafficTex)
	rl.UnloadTexture(s.canvasTex)
}
