package ui

import (
	"testing"
)

func testFont() *Font {
	glyphs := map[rune]Glyph{}
	for r := ' '; r <= '~'; r++ {
		glyphs[r] = Glyph{X: float32(r-' ') * 8, Width: 8, Height: 16, XAdvance: 9}
	}
	glyphs[' '] = Glyph{XAdvance: 9}
	return NewFont(18, 1024, 16, glyphs)
}

func TestHiddenOverlayBuildsNothing(t *testing.T) {
	o := NewOverlay(testFont())
	if d := o.Build(Stats{}, 800, 600); d != nil {
		t.Fatalf("hidden overlay built %d vertices", len(d.Vertices))
	}
}

func TestOverlayQuadsPerGlyph(t *testing.T) {
	o := NewOverlay(testFont())
	o.Visible = true
	stats := Stats{FPS: 60, FrameTimeMs: 16.67, MeshName: "crate", NormalMapping: true}
	d := o.Build(stats, 800, 600)

	glyphs := 0
	for _, line := range o.Lines(stats) {
		for _, r := range line {
			if r != ' ' {
				glyphs++
			}
		}
	}
	if len(d.Vertices) != glyphs*4 || len(d.Indices) != glyphs*6 {
		t.Fatalf("got %d vertices %d indices for %d glyphs", len(d.Vertices), len(d.Indices), glyphs)
	}
	for i, v := range d.Vertices {
		if v.Position.X < -1 || v.Position.X > 1 || v.Position.Y < -1 || v.Position.Y > 1 {
			t.Fatalf("vertex %d at %+v is off screen", i, v.Position)
		}
	}
	// First glyph starts at the margin in the top left.
	if x := d.Vertices[0].Position.X; x != 8.0/800*2-1 {
		t.Errorf("first glyph x = %f", x)
	}
}

func TestOverlayReusesBuffer(t *testing.T) {
	o := NewOverlay(testFont())
	o.Visible = true
	first := len(o.Build(Stats{MeshName: "a"}, 800, 600).Vertices)
	second := len(o.Build(Stats{MeshName: "a"}, 800, 600).Vertices)
	if first != second {
		t.Errorf("second build has %d vertices, first had %d", second, first)
	}
}

func TestMeasure(t *testing.T) {
	f := testFont()
	if w := f.Measure("ab c"); w != 36 {
		t.Errorf("Measure = %f, want 36", w)
	}
}
