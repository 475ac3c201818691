package renderer

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/renderer/hal/haltest"
	"github.com/spaghettifunk/prism/engine/scene"
)

// fakeWindow implements Surface over a haltest surface.
type fakeWindow struct {
	surface *haltest.Surface
	width   uint32
	height  uint32
	resized bool
	waits   int
	// sizes, when set, are returned by successive FramebufferSize calls
	// before falling back to width and height.
	sizes [][2]uint32
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{surface: haltest.NewSurface(), width: 800, height: 600}
}

func (w *fakeWindow) Handle() hal.Surface { return w.surface }

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	if len(w.sizes) > 0 {
		s := w.sizes[0]
		w.sizes = w.sizes[1:]
		return s[0], s[1]
	}
	return w.width, w.height
}

func (w *fakeWindow) WaitEvents() { w.waits++ }

func (w *fakeWindow) ConsumeResized() bool {
	r := w.resized
	w.resized = false
	return r
}

var spirv = []uint32{0x07230203, 0x00010000}

func quadMesh[V scene.VertexKind](name string, vertices []V, texture int32) scene.Mesh[V] {
	return scene.NewMesh(name, vertices, []uint32{0, 1, 2, 2, 3, 0}, texture)
}

func quadVertices() []scene.Vertex {
	return []scene.Vertex{
		{Position: math.NewVec3(0, 0, 0), TexCoord: math.NewVec2(0, 0)},
		{Position: math.NewVec3(1, 0, 0), TexCoord: math.NewVec2(1, 0)},
		{Position: math.NewVec3(1, 1, 0), TexCoord: math.NewVec2(1, 1)},
		{Position: math.NewVec3(0, 1, 0), TexCoord: math.NewVec2(0, 1)},
	}
}

// testScene has two textures, one normal map, two plain meshes and one
// tangent mesh sharing its texture with the first plain mesh.
func testScene() *scene.Scene {
	s := scene.New("test.obj", scene.NewCamera(core.DefaultConfig().Camera))
	s.Meshes = []scene.Mesh[scene.Vertex]{
		quadMesh("floor", quadVertices(), s.Textures.Add("a.png")),
		quadMesh("wall", quadVertices(), s.Textures.Add("b.png")),
	}
	tm := quadMesh("crate", scene.ComputeTangents(quadVertices(), []uint32{0, 1, 2, 2, 3, 0}), s.Textures.Add("a.png"))
	tm.NormalMapIndex = s.NormalMaps.Add("n.png")
	s.TangentMeshes = []scene.Mesh[scene.VertexWithTangent]{tm}
	s.DebugNames = []string{"floor", "wall", "crate"}
	s.AssignOffsets()
	_ = s.Lights.AddDirectional(scene.DirectionalLight{Direction: math.NewVec4(0, -1, 0, 0), Color: math.NewVec4(1, 1, 1, 1)})
	return s
}

func solidTexture(w, h uint32) TextureData {
	px := make([]byte, w*h*4)
	for i := range px {
		px[i] = 0xff
	}
	return TextureData{Width: w, Height: h, Pixels: px}
}

func testAssets(s *scene.Scene) Assets {
	a := Assets{
		Shaders: Shaders{
			Basic:         ShaderPair{Vertex: spirv, Fragment: spirv},
			NormalMapping: ShaderPair{Vertex: spirv, Fragment: spirv},
			Overlay:       ShaderPair{Vertex: spirv, Fragment: spirv},
		},
	}
	for range s.Textures.Len() {
		a.Textures = append(a.Textures, solidTexture(2, 2))
	}
	for range s.NormalMaps.Len() {
		a.NormalMaps = append(a.NormalMaps, solidTexture(2, 2))
	}
	font := solidTexture(4, 4)
	a.FontAtlas = &font
	return a
}

func testConfig() core.RendererConfig {
	return core.DefaultConfig().Renderer
}

func newTestRenderer(t *testing.T, adapter *haltest.Adapter) (*Renderer, *haltest.Device, *fakeWindow) {
	t.Helper()
	win := newFakeWindow()
	r := New(testConfig(), win)
	s := testScene()
	if err := r.Initialize(&haltest.Instance{AdapterList: []*haltest.Adapter{adapter}}, s, testAssets(s)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return r, adapter.Opened, win
}
