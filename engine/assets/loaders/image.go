package loaders

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/prism/engine/renderer"
)

// LoadImage decodes an image file into RGBA texture data. Rows are flipped
// for scene textures; atlases addressed in pixels keep their top row first.
func LoadImage(path string, flip bool) (renderer.TextureData, error) {
	file, err := os.Open(path)
	if err != nil {
		return renderer.TextureData{}, err
	}
	defer file.Close()

	data, err := DecodeImage(file, flip)
	if err != nil {
		return renderer.TextureData{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return data, nil
}

// DecodeImage converts any registered format to 8-bit RGBA. With flip the
// first row in memory is the bottom of the picture, matching the texture
// coordinates written by the model exporter.
func DecodeImage(r io.Reader, flip bool) (renderer.TextureData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return renderer.TextureData{}, err
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	pixels := rgba.Pix
	if flip {
		pixels = flipRows(rgba.Pix, rgba.Stride, bounds.Dy())
	}
	return renderer.TextureData{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: pixels,
	}, nil
}

func flipRows(pix []byte, stride, height int) []byte {
	out := make([]byte, len(pix))
	for y := 0; y < height; y++ {
		copy(out[(height-1-y)*stride:(height-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

// SolidTexture is a 1x1 texture of a single color.
func SolidTexture(c color.RGBA) renderer.TextureData {
	return renderer.TextureData{
		Width:  1,
		Height: 1,
		Pixels: []byte{c.R, c.G, c.B, c.A},
	}
}
