package ui

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/math"
)

// Stats is what the debug overlay shows.
type Stats struct {
	FPS           float64
	FrameTimeMs   float64
	MeshName      string
	NormalMapping bool
}

// Overlay lays out the debug text in the top left corner.
type Overlay struct {
	Visible bool
	Color   math.Vec4
	// Margin from the window edge, in pixels.
	Margin float32

	font *Font
	data DrawData
}

func NewOverlay(font *Font) *Overlay {
	return &Overlay{
		Color:  math.NewVec4(1, 1, 1, 1),
		Margin: 8,
		font:   font,
	}
}

func (o *Overlay) Font() *Font {
	return o.font
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Lines formats stats into the overlay text.
func (o *Overlay) Lines(stats Stats) []string {
	return []string{
		fmt.Sprintf("FPS %.1f (%.2f ms)", stats.FPS, stats.FrameTimeMs),
		fmt.Sprintf("Mesh: %s", stats.MeshName),
		fmt.Sprintf("Normal mapping: %s", onOff(stats.NormalMapping)),
	}
}

// Build returns this frame's draw data for a width x height framebuffer.
// It returns nil while the overlay is hidden. The returned data is reused
// by the next call.
func (o *Overlay) Build(stats Stats, width, height uint32) *DrawData {
	if !o.Visible || o.font == nil || width == 0 || height == 0 {
		return nil
	}
	o.data.Reset()
	y := o.Margin
	for _, line := range o.Lines(stats) {
		o.addText(line, o.Margin, y, float32(width), float32(height))
		y += o.font.LineHeight
	}
	return &o.data
}

// addText appends one quad per glyph. Pixel coordinates have their origin
// in the top left corner and map to clip space where Y grows downwards.
func (o *Overlay) addText(text string, x, y, width, height float32) {
	f := o.font
	var prev rune
	for i, r := range text {
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		if i > 0 {
			x += f.Kerning(prev, r)
		}
		prev = r
		if g.Width > 0 && g.Height > 0 {
			px0 := x + g.XOffset
			py0 := y + g.YOffset
			px1 := px0 + g.Width
			py1 := py0 + g.Height
			o.data.AddQuad(
				px0/width*2-1, py0/height*2-1,
				px1/width*2-1, py1/height*2-1,
				g.X/f.AtlasWidth, g.Y/f.AtlasHeight,
				(g.X+g.Width)/f.AtlasWidth, (g.Y+g.Height)/f.AtlasHeight,
				o.Color,
			)
		}
		x += g.XAdvance
	}
}
