package scene

import (
	"bytes"
	"encoding/binary"
	"errors"
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

func quad() ([]Vertex, []uint32) {
	verts := []Vertex{
		{Position: math.NewVec3(0, 0, 0), TexCoord: math.NewVec2(0, 0), Normal: math.NewVec3(0, 0, 1)},
		{Position: math.NewVec3(1, 0, 0), TexCoord: math.NewVec2(1, 0), Normal: math.NewVec3(0, 0, 1)},
		{Position: math.NewVec3(1, 1, 0), TexCoord: math.NewVec2(1, 1), Normal: math.NewVec3(0, 0, 1)},
		{Position: math.NewVec3(0, 1, 0), TexCoord: math.NewVec2(0, 1), Normal: math.NewVec3(0, 0, 1)},
	}
	idx, _ := Triangulate([]uint32{0, 1, 2, 3})
	return verts, idx
}

func testScene() *Scene {
	s := New("assets/test.obj", NewCamera(core.DefaultConfig().Camera))
	verts, idx := quad()
	s.Meshes = append(s.Meshes,
		NewMesh("floor", verts, idx, s.Textures.Add("floor.png")),
		NewMesh("wall", verts, idx, s.Textures.Add("wall.png")),
	)
	bumped := NewMesh("crate", ComputeTangents(verts, idx), idx, s.Textures.Add("floor.png"))
	bumped.NormalMapIndex = s.NormalMaps.Add("crate_n.png")
	bumped.InitTransform = math.NewMat4Translation(math.NewVec3(1, 2, 3))
	s.TangentMeshes = append(s.TangentMeshes, bumped)
	s.DebugNames = []string{"floor", "wall", "crate"}
	s.AssignOffsets()
	return s
}

func TestTextureSetDeduplicates(t *testing.T) {
	ts := NewTextureSet()
	a := ts.Add("brick.png")
	b := ts.Add("stone.png")
	c := ts.Add("brick.png")
	if a != c {
		t.Errorf("same path got indices %d and %d", a, c)
	}
	if a == b {
		t.Errorf("distinct paths share index %d", a)
	}
	if ts.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ts.Len())
	}
}

func TestTriangulate(t *testing.T) {
	got, err := Triangulate([]uint32{4, 5, 6, 7})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{4, 5, 6, 6, 7, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Triangulate(quad) = %v, want %v", got, want)
		}
	}
	if _, err := Triangulate([]uint32{0, 1, 2, 3, 4}); !errors.Is(err, core.ErrGeometryAssumption) {
		t.Errorf("pentagon error = %v, want ErrGeometryAssumption", err)
	}
}

func TestMeshValidate(t *testing.T) {
	verts, _ := quad()
	m := NewMesh("broken", verts, []uint32{0, 1}, 0)
	if err := m.Validate(); !errors.Is(err, core.ErrGeometryAssumption) {
		t.Errorf("partial triangle error = %v", err)
	}
	m.Indices = []uint32{0, 1, 9}
	if err := m.Validate(); !errors.Is(err, core.ErrGeometryAssumption) {
		t.Errorf("out of range index error = %v", err)
	}
}

func TestComputeTangentsFollowsU(t *testing.T) {
	verts, idx := quad()
	out := ComputeTangents(verts, idx)
	for i, v := range out {
		if !v.Tangent.Compare(math.NewVec3(1, 0, 0), 1e-5) {
			t.Errorf("vertex %d tangent = %+v, want +X", i, v.Tangent)
		}
		if v.Position != verts[i].Position {
			t.Errorf("vertex %d position changed", i)
		}
	}
}

func TestComputeTangentsSkipsDegenerateUV(t *testing.T) {
	verts, idx := quad()
	for i := range verts {
		verts[i].TexCoord = math.NewVec2(0.5, 0.5)
	}
	for i, v := range ComputeTangents(verts, idx) {
		if v.Tangent != (math.Vec3{}) {
			t.Errorf("vertex %d tangent = %+v, want zero", i, v.Tangent)
		}
	}
}

func TestAssignOffsets(t *testing.T) {
	s := testScene()
	if s.Meshes[1].IndexOffset != 6 || s.Meshes[1].VertexOffset != 4 {
		t.Errorf("second plain mesh offsets = %d/%d", s.Meshes[1].IndexOffset, s.Meshes[1].VertexOffset)
	}
	// Tangent indices follow all plain indices; tangent vertices restart at zero.
	if s.TangentMeshes[0].IndexOffset != 12 || s.TangentMeshes[0].VertexOffset != 0 {
		t.Errorf("tangent mesh offsets = %d/%d", s.TangentMeshes[0].IndexOffset, s.TangentMeshes[0].VertexOffset)
	}
	wantVB := 8*VertexStride[Vertex]() + 4*VertexStride[VertexWithTangent]()
	if got := uint32(len(s.VertexData())); got != wantVB {
		t.Errorf("vertex data = %d bytes, want %d", got, wantVB)
	}
	if got := len(s.IndexData()); got != 18*4 {
		t.Errorf("index data = %d bytes, want %d", got, 18*4)
	}
}

func TestDrawGroupsAreTextureMajor(t *testing.T) {
	groups := testScene().DrawGroups()
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Plain) != 1 || len(groups[0].Tangent) != 1 {
		t.Errorf("floor group = %+v", groups[0])
	}
	if len(groups[1].Plain) != 1 || groups[1].Plain[0] != 1 {
		t.Errorf("wall group = %+v", groups[1])
	}
}

func TestDebugNamesCycle(t *testing.T) {
	s := testScene()
	if got := s.NextDebugName(); got != "wall" {
		t.Errorf("next = %q", got)
	}
	s.PrevDebugName()
	if got := s.PrevDebugName(); got != "crate" {
		t.Errorf("prev wraps to %q, want crate", got)
	}
}

func TestLightCapacity(t *testing.T) {
	var l Lights
	for i := 0; i < MaxLightsPerKind; i++ {
		if err := l.AddSpot(SpotLight{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.AddSpot(SpotLight{}); !errors.Is(err, core.ErrLightCapacity) {
		t.Errorf("third spot light error = %v, want ErrLightCapacity", err)
	}
	if len(l.Spot) != MaxLightsPerKind {
		t.Errorf("rejected light was stored")
	}
}

func TestPackLightLayout(t *testing.T) {
	var l Lights
	_ = l.AddPoint(PointLight{Position: math.NewVec4(1, 2, 3, 1), Falloff: 0.5})
	_ = l.AddSpot(SpotLight{CosPenumbra: 0.9, CosUmbra: 0.8, Falloff: 2})
	_ = l.AddSpot(SpotLight{Falloff: 7})

	buf := make([]byte, FragmentUniformSize)
	PackFragmentUniform(buf, &l, math.NewVec3(4, 5, 6))

	f := func(off int) float32 { return gomath.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	counts := []uint32{0, 0, 1, 2}
	for i, want := range counts {
		if got := binary.LittleEndian.Uint32(buf[i*4:]); got != want {
			t.Errorf("count %d = %d, want %d", i, got, want)
		}
	}
	if f(144) != 1 || f(152) != 3 || f(144+32) != 0.5 {
		t.Errorf("point light packed wrong")
	}
	if f(240+48) != 0.9 || f(240+52) != 0.8 || f(240+56) != 2 {
		t.Errorf("first spot light cone packed wrong")
	}
	if f(240+64+56) != 7 {
		t.Errorf("second spot light at %d", 240+64)
	}
	if f(LightsSize) != 4 || f(LightsSize+8) != 6 {
		t.Errorf("eye position packed wrong")
	}
	if LightsSize != 368 || FragmentUniformSize != 384 {
		t.Errorf("sizes = %d/%d", LightsSize, FragmentUniformSize)
	}
}

type keys map[core.KeyCode]bool

func (k keys) IsKeyDown(key core.KeyCode) bool { return k[key] }

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(core.DefaultConfig().Camera)
	if gomath.Abs(float64(c.Yaw+90)) > 1e-4 || c.Pitch != 0 {
		t.Errorf("yaw/pitch = %f/%f, want -90/0", c.Yaw, c.Pitch)
	}
	c.ProcessKeyboard(keys{core.KEY_W: true}, 1)
	if !c.Position.Compare(math.NewVec3(0, 0, 0.5), 1e-5) {
		t.Errorf("after W for 1s position = %+v", c.Position)
	}
}

func TestCameraPitchClamp(t *testing.T) {
	c := NewCamera(core.DefaultConfig().Camera)
	yaw := c.Yaw
	c.ProcessMouse(400, 300)
	// First event only records the position.
	if c.Pitch != 0 || c.Yaw != yaw {
		t.Fatalf("first mouse event moved the camera")
	}
	c.ProcessMouse(400, -10000)
	if c.Pitch != MaxPitchDegrees {
		t.Errorf("pitch = %f, want %f", c.Pitch, MaxPitchDegrees)
	}
	c.ProcessMouse(400, 20000)
	if c.Pitch != -MaxPitchDegrees {
		t.Errorf("pitch = %f, want %f", c.Pitch, -MaxPitchDegrees)
	}
	if c.Front.Y > 0 {
		t.Errorf("front %+v should point down", c.Front)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	s := testScene()
	path := filepath.Join(t.TempDir(), "cache", "scene.bin")
	if err := WriteCache(path, s); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCache(path, s.Source, s.Camera)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.VertexData(), s.VertexData()) || !bytes.Equal(got.IndexData(), s.IndexData()) {
		t.Errorf("geometry differs after reload")
	}
	tm := got.TangentMeshes[0]
	if tm.Name != "crate" || tm.NormalMapIndex != 0 || tm.IndexOffset != 12 || tm.InitTransform.Data[13] != 2 {
		t.Errorf("tangent mesh = %s nm=%d io=%d", tm.Name, tm.NormalMapIndex, tm.IndexOffset)
	}
	if got.Textures.Len() != 2 || got.NormalMaps.Paths()[0] != "crate_n.png" || len(got.DebugNames) != 3 {
		t.Errorf("texture tables differ after reload")
	}
}

func TestCacheRejectsOtherSource(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeCache(&buf, testScene()); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if _, err := DecodeCache(bytes.NewReader(data), "other.obj", nil); !errors.Is(err, core.ErrInvalidCache) {
		t.Errorf("wrong source error = %v", err)
	}
	if _, err := DecodeCache(bytes.NewReader(data[:len(data)/2]), "assets/test.obj", nil); !errors.Is(err, core.ErrInvalidCache) {
		t.Errorf("truncated cache error = %v", err)
	}
}
