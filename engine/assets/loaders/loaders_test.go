package loaders

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/scene"
)

const cubeFace = `
o Floor
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
usemtl stone
f 1/1/1 2/2/1 3/3/1 4/4/1
o Crate
v 0 1 0
v 1 1 0
v 1 2 0
usemtl wood
f 5/1/1 6/2/1 7/3/1
`

const materials = `
# two materials
newmtl stone
Kd 0.5 0.5 0.5
map_Kd stone.png
map_Bump -bm 1.0 stone_n.png

newmtl wood
Kd 1 0.8 0.6
d 0.5
map_Kd wood.png
`

func TestParseMTL(t *testing.T) {
	mats, err := ParseMTL(strings.NewReader(materials), "tex")
	if err != nil {
		t.Fatal(err)
	}
	if len(mats) != 2 {
		t.Fatalf("got %d materials, want 2", len(mats))
	}
	stone := mats["stone"]
	if stone.DiffuseMap != filepath.Join("tex", "stone.png") {
		t.Errorf("stone diffuse = %q", stone.DiffuseMap)
	}
	if stone.NormalMap != filepath.Join("tex", "stone_n.png") {
		t.Errorf("stone normal map = %q", stone.NormalMap)
	}
	wood := mats["wood"]
	if wood.NormalMap != "" {
		t.Errorf("wood has normal map %q", wood.NormalMap)
	}
	if wood.DiffuseColor.W != 0.5 || wood.DiffuseColor.Y != 0.8 {
		t.Errorf("wood color = %+v", wood.DiffuseColor)
	}
}

func TestDecodeOBJ(t *testing.T) {
	mats, err := ParseMTL(strings.NewReader(materials), "")
	if err != nil {
		t.Fatal(err)
	}
	cam := scene.NewCamera(core.DefaultConfig().Camera)
	s, err := DecodeOBJ(strings.NewReader(cubeFace), "test.obj", mats, cam)
	if err != nil {
		t.Fatal(err)
	}

	if len(s.TangentMeshes) != 1 || len(s.Meshes) != 1 {
		t.Fatalf("got %d plain and %d tangent meshes, want 1 and 1", len(s.Meshes), len(s.TangentMeshes))
	}
	floor := s.TangentMeshes[0]
	if len(floor.Vertices) != 4 || len(floor.Indices) != 6 {
		t.Errorf("quad has %d vertices and %d indices, want 4 and 6", len(floor.Vertices), len(floor.Indices))
	}
	if floor.NormalMapIndex != 0 {
		t.Errorf("floor normal map index = %d", floor.NormalMapIndex)
	}
	crate := s.Meshes[0]
	if len(crate.Indices) != 3 {
		t.Errorf("triangle has %d indices", len(crate.Indices))
	}
	if s.Textures.Len() != 2 || s.NormalMaps.Len() != 1 {
		t.Errorf("%d textures and %d normal maps, want 2 and 1", s.Textures.Len(), s.NormalMaps.Len())
	}
	if floor.IndexOffset != 3 {
		t.Errorf("tangent meshes start at index %d, want 3", floor.IndexOffset)
	}
	if len(s.DebugNames) != 2 {
		t.Errorf("debug names = %v", s.DebugNames)
	}
}

func TestDecodeOBJRejectsPentagon(t *testing.T) {
	src := "o P\nusemtl none\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nv -1 0 0\nf 1 2 3 4 5\n"
	cam := scene.NewCamera(core.DefaultConfig().Camera)
	_, err := DecodeOBJ(strings.NewReader(src), "p.obj", nil, cam)
	if !errors.Is(err, core.ErrGeometryAssumption) {
		t.Fatalf("err = %v, want ErrGeometryAssumption", err)
	}
}

func TestParseLights(t *testing.T) {
	src := `
pna 0 5 0 1 1 1
dir 0 -1 0 0.2 0.2 0.2
pwa 1 2 3 1 0 0 0.5
spo 0 0 0 0 0 -2 1 1 1 60 30 2
# comments and unknown lines are skipped
amb 0.1
`
	var lights scene.Lights
	if err := ParseLights(strings.NewReader(src), &lights); err != nil {
		t.Fatal(err)
	}
	if len(lights.Unattenuated) != 1 || len(lights.Directional) != 1 || len(lights.Point) != 1 || len(lights.Spot) != 1 {
		t.Fatalf("unexpected light counts: %+v", lights)
	}
	spot := lights.Spot[0]
	if spot.Direction.Z != -2 {
		t.Errorf("spot direction = %+v, want target minus position", spot.Direction)
	}
	if gomath.Abs(float64(spot.CosPenumbra)-0.5) > 1e-5 {
		t.Errorf("cos penumbra = %f, want 0.5", spot.CosPenumbra)
	}
	if lights.Point[0].Falloff != 0.5 {
		t.Errorf("falloff = %f", lights.Point[0].Falloff)
	}
}

func TestParseLightsCapacity(t *testing.T) {
	src := "dir 0 -1 0 1 1 1\ndir 0 -1 0 1 1 1\ndir 0 -1 0 1 1 1\n"
	var lights scene.Lights
	err := ParseLights(strings.NewReader(src), &lights)
	if !errors.Is(err, core.ErrLightCapacity) {
		t.Fatalf("err = %v, want ErrLightCapacity", err)
	}
}

func TestParseLightsShortLine(t *testing.T) {
	var lights scene.Lights
	if err := ParseLights(strings.NewReader("pwa 1 2 3 1 1 1\n"), &lights); err == nil {
		t.Fatal("expected an error for a point light without falloff")
	}
}

func TestDecodeImageFlipsRows(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	flipped, err := DecodeImage(bytes.NewReader(buf.Bytes()), true)
	if err != nil {
		t.Fatal(err)
	}
	if flipped.Width != 1 || flipped.Height != 2 || len(flipped.Pixels) != 8 {
		t.Fatalf("got %dx%d with %d bytes", flipped.Width, flipped.Height, len(flipped.Pixels))
	}
	if flipped.Pixels[2] != 255 || flipped.Pixels[4] != 255 {
		t.Errorf("rows not flipped: %v", flipped.Pixels)
	}

	kept, err := DecodeImage(bytes.NewReader(buf.Bytes()), false)
	if err != nil {
		t.Fatal(err)
	}
	if kept.Pixels[0] != 255 || kept.Pixels[6] != 255 {
		t.Errorf("rows flipped: %v", kept.Pixels)
	}
}

func TestLoadTexturesFallsBack(t *testing.T) {
	out := LoadTextures([]string{"", filepath.Join(t.TempDir(), "missing.png")}, FallbackNormalMap)
	for i, tex := range out {
		if tex.Width != 1 || tex.Height != 1 {
			t.Fatalf("texture %d is %dx%d, want 1x1", i, tex.Width, tex.Height)
		}
		if !bytes.Equal(tex.Pixels, []byte{128, 128, 255, 255}) {
			t.Errorf("texture %d pixels = %v", i, tex.Pixels)
		}
	}
}

func TestBytesToBytecode(t *testing.T) {
	code, err := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 2 || code[0] != spirvMagic || code[1] != 0x00010000 {
		t.Fatalf("code = %#x", code)
	}
	if _, err := bytesToBytecode([]byte{1, 2, 3}); err == nil {
		t.Error("expected an error for a truncated module")
	}
	if _, err := bytesToBytecode([]byte{0, 0, 0, 0}); err == nil {
		t.Error("expected an error for a bad magic number")
	}
}

func TestRasterizeFont(t *testing.T) {
	f, atlas, err := RasterizeFont(goregular.TTF, 16)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := f.Glyph('A')
	if !ok {
		t.Fatal("glyph A missing")
	}
	if g.XAdvance <= 0 || g.Width <= 0 {
		t.Errorf("glyph A = %+v", g)
	}
	if uint32(f.AtlasWidth) != atlas.Width || len(atlas.Pixels) != int(atlas.Width*atlas.Height*4) {
		t.Errorf("atlas %dx%d with %d bytes, font says %.0f wide", atlas.Width, atlas.Height, len(atlas.Pixels), f.AtlasWidth)
	}
	var lit bool
	for i := 3; i < len(atlas.Pixels); i += 4 {
		if atlas.Pixels[i] != 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Error("atlas is empty")
	}
}
