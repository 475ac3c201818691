package ui

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"
)

// Glyph is one character cell of the atlas, in pixels.
type Glyph struct {
	X, Y          float32
	Width, Height float32
	XOffset       float32
	YOffset       float32
	XAdvance      float32
}

type kerningPair struct {
	first, second rune
}

// Font is a bitmap font with a single atlas page.
type Font struct {
	LineHeight  float32
	AtlasWidth  float32
	AtlasHeight float32
	// AtlasPath is the page image, resolved next to the descriptor.
	AtlasPath string

	glyphs  map[rune]Glyph
	kerning map[kerningPair]float32
}

func NewFont(lineHeight, atlasWidth, atlasHeight float32, glyphs map[rune]Glyph) *Font {
	return &Font{
		LineHeight:  lineHeight,
		AtlasWidth:  atlasWidth,
		AtlasHeight: atlasHeight,
		glyphs:      glyphs,
		kerning:     make(map[kerningPair]float32),
	}
}

// LoadFont reads an AngelCode .fnt descriptor. Only the first page is used.
func LoadFont(path string) (*Font, error) {
	bf, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", path, err)
	}
	desc := bf.Descriptor

	glyphs := make(map[rune]Glyph, len(desc.Chars))
	for _, c := range desc.Chars {
		if c.Page != 0 {
			continue
		}
		glyphs[rune(c.ID)] = Glyph{
			X:        float32(c.X),
			Y:        float32(c.Y),
			Width:    float32(c.Width),
			Height:   float32(c.Height),
			XOffset:  float32(c.XOffset),
			YOffset:  float32(c.YOffset),
			XAdvance: float32(c.XAdvance),
		}
	}
	f := NewFont(float32(desc.Common.LineHeight), float32(desc.Common.ScaleW), float32(desc.Common.ScaleH), glyphs)
	for pair, k := range desc.Kerning {
		f.kerning[kerningPair{first: rune(pair.First), second: rune(pair.Second)}] = float32(k.Amount)
	}
	for _, page := range desc.Pages {
		if page.ID == 0 {
			f.AtlasPath = filepath.Join(filepath.Dir(path), page.File)
		}
	}
	return f, nil
}

func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

func (f *Font) Kerning(first, second rune) float32 {
	return f.kerning[kerningPair{first: first, second: second}]
}

// Measure returns the advance width of text in pixels.
func (f *Font) Measure(text string) float32 {
	var w float32
	var prev rune
	for i, r := range text {
		g, ok := f.glyphs[r]
		if !ok {
			continue
		}
		if i > 0 {
			w += f.Kerning(prev, r)
		}
		w += g.XAdvance
		prev = r
	}
	return w
}
