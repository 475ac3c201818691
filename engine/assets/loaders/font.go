package loaders

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/ui"
)

// systemFontSize is the pixel size TrueType fonts are rasterized at.
const systemFontSize = 18

// LoadFont loads the overlay font and its atlas. AngelCode descriptors
// (.fnt) bring their own atlas page; TrueType and OpenType files are
// rasterized into one.
func LoadFont(path string) (*ui.Font, renderer.TextureData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fnt":
		f, err := ui.LoadFont(path)
		if err != nil {
			return nil, renderer.TextureData{}, err
		}
		atlas, err := LoadImage(f.AtlasPath, false)
		if err != nil {
			return nil, renderer.TextureData{}, err
		}
		return f, atlas, nil
	case ".ttf", ".otf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, renderer.TextureData{}, err
		}
		return RasterizeFont(data, systemFontSize)
	default:
		return nil, renderer.TextureData{}, fmt.Errorf("unsupported font format %q", path)
	}
}

// RasterizeFont draws the printable ASCII range into a 16 column grid,
// white on transparent, and describes every cell as a glyph.
func RasterizeFont(data []byte, size float64) (*ui.Font, renderer.TextureData, error) {
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, renderer.TextureData{}, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, renderer.TextureData{}, err
	}
	defer face.Close()

	const first, last, columns = ' ', '~', 16
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	cellHeight := ascent + metrics.Descent.Ceil()

	cellWidth := 0
	for r := rune(first); r <= last; r++ {
		if adv, ok := face.GlyphAdvance(r); ok && adv.Ceil() > cellWidth {
			cellWidth = adv.Ceil()
		}
	}
	// One pixel of padding keeps linear filtering from bleeding.
	cellWidth++
	cellHeight++

	count := int(last-first) + 1
	rows := (count + columns - 1) / columns
	atlas := image.NewRGBA(image.Rect(0, 0, columns*cellWidth, rows*cellHeight))
	drawer := font.Drawer{Dst: atlas, Src: image.White, Face: face}

	glyphs := make(map[rune]ui.Glyph, count)
	for i := 0; i < count; i++ {
		r := rune(first + i)
		x := (i % columns) * cellWidth
		y := (i / columns) * cellHeight
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		drawer.Dot = fixed.P(x, y+ascent)
		drawer.DrawString(string(r))
		glyphs[r] = ui.Glyph{
			X:        float32(x),
			Y:        float32(y),
			Width:    float32(cellWidth),
			Height:   float32(cellHeight),
			XAdvance: float32(adv.Ceil()),
		}
	}

	bounds := atlas.Bounds()
	f := ui.NewFont(float32(metrics.Height.Ceil()), float32(bounds.Dx()), float32(bounds.Dy()), glyphs)
	return f, renderer.TextureData{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: atlas.Pix,
	}, nil
}
