package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// frameDelta returns the last frame's duration as measured by raylib.
func frameDelta() time.Duration {
	return time.Duration(float64(rl.GetFrameTime()) * float64(time.Second))
}

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyEscape) {
		g.exitRequested = true
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}
