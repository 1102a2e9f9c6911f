// Package ui draws the visualizer's on-screen overlays.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	Padding        int32
	LineHeight     int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 200},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.White,
		Padding:        10,
		LineHeight:     16,
		FontSize:       12,
		HeaderFontSize: 16,
	}
}

// DrawPanel draws a bordered translucent panel background.
func (t Theme) DrawPanel(x, y, w, h int32) {
	rl.DrawRectangle(x, y, w, h, t.PanelBg)
	rl.DrawRectangleLines(x, y, w, h, t.PanelBorder)
}
