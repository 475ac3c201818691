package scene

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

// Scene holds everything loaded from disk. GPU copies live in the
// renderer; the scene itself is plain CPU data.
type Scene struct {
	// Source the scene was loaded from, used as the cache key.
	Source string

	Meshes        []Mesh[Vertex]
	TangentMeshes []Mesh[VertexWithTangent]
	Textures      *TextureSet
	NormalMaps    *TextureSet
	Lights        Lights
	Camera        *Camera

	DebugNames    []string
	DebugIndex    int
	DebugMode     bool
	NormalMapping bool
}

func New(source string, camera *Camera) *Scene {
	return &Scene{
		Source:     source,
		Textures:   NewTextureSet(),
		NormalMaps: NewTextureSet(),
		Camera:     camera,
		// Only takes effect for meshes that have a normal map.
		NormalMapping: true,
	}
}

// DrawGroup lists the meshes sharing one texture.
type DrawGroup struct {
	Texture int32
	Plain   []int
	Tangent []int
}

// AssignOffsets lays meshes out in the shared buffers. Plain vertices come
// first and tangent vertices second, each counted from the start of their
// own vertex binding. Indices run through plain meshes then tangent meshes.
func (s *Scene) AssignOffsets() {
	var indexOffset, vertexOffset int32
	for i := range s.Meshes {
		s.Meshes[i].IndexOffset = indexOffset
		s.Meshes[i].VertexOffset = vertexOffset
		indexOffset += int32(len(s.Meshes[i].Indices))
		vertexOffset += int32(len(s.Meshes[i].Vertices))
	}
	vertexOffset = 0
	for i := range s.TangentMeshes {
		s.TangentMeshes[i].IndexOffset = indexOffset
		s.TangentMeshes[i].VertexOffset = vertexOffset
		indexOffset += int32(len(s.TangentMeshes[i].Indices))
		vertexOffset += int32(len(s.TangentMeshes[i].Vertices))
	}
}

func (s *Scene) MeshCount() int {
	return len(s.Meshes) + len(s.TangentMeshes)
}

func (s *Scene) PlainVertexCount() int {
	n := 0
	for i := range s.Meshes {
		n += len(s.Meshes[i].Vertices)
	}
	return n
}

func (s *Scene) TangentVertexCount() int {
	n := 0
	for i := range s.TangentMeshes {
		n += len(s.TangentMeshes[i].Vertices)
	}
	return n
}

func (s *Scene) IndexCount() int {
	n := 0
	for i := range s.Meshes {
		n += len(s.Meshes[i].Indices)
	}
	for i := range s.TangentMeshes {
		n += len(s.TangentMeshes[i].Indices)
	}
	return n
}

// PlainVertexBytes is the size of the plain-vertex region that precedes
// the tangent vertices in the shared vertex buffer.
func (s *Scene) PlainVertexBytes() uint64 {
	return uint64(s.PlainVertexCount()) * uint64(VertexStride[Vertex]())
}

// VertexData returns the packed contents of the shared vertex buffer.
func (s *Scene) VertexData() []byte {
	size := s.PlainVertexBytes() + uint64(s.TangentVertexCount())*uint64(VertexStride[VertexWithTangent]())
	out := make([]byte, 0, size)
	for i := range s.Meshes {
		out = append(out, sliceBytes(s.Meshes[i].Vertices)...)
	}
	for i := range s.TangentMeshes {
		out = append(out, sliceBytes(s.TangentMeshes[i].Vertices)...)
	}
	return out
}

// IndexData returns the packed contents of the shared index buffer.
func (s *Scene) IndexData() []byte {
	out := make([]byte, 0, s.IndexCount()*4)
	for i := range s.Meshes {
		out = append(out, sliceBytes(s.Meshes[i].Indices)...)
	}
	for i := range s.TangentMeshes {
		out = append(out, sliceBytes(s.TangentMeshes[i].Indices)...)
	}
	return out
}

// DrawGroups groups meshes by texture in texture order.
func (s *Scene) DrawGroups() []DrawGroup {
	groups := make([]DrawGroup, s.Textures.Len())
	for t := range groups {
		groups[t].Texture = int32(t)
	}
	for i := range s.Meshes {
		t := s.Meshes[i].TextureIndex
		groups[t].Plain = append(groups[t].Plain, i)
	}
	for i := range s.TangentMeshes {
		t := s.TangentMeshes[i].TextureIndex
		groups[t].Tangent = append(groups[t].Tangent, i)
	}
	return groups
}

// Validate checks every mesh and every texture reference.
func (s *Scene) Validate() error {
	for i := range s.Meshes {
		if err := s.Meshes[i].Validate(); err != nil {
			return err
		}
		if err := checkIndex(s.Meshes[i].Name, "texture", s.Meshes[i].TextureIndex, s.Textures.Len()); err != nil {
			return err
		}
	}
	for i := range s.TangentMeshes {
		m := &s.TangentMeshes[i]
		if err := m.Validate(); err != nil {
			return err
		}
		if err := checkIndex(m.Name, "texture", m.TextureIndex, s.Textures.Len()); err != nil {
			return err
		}
		if err := checkIndex(m.Name, "normal map", m.NormalMapIndex, s.NormalMaps.Len()); err != nil {
			return err
		}
	}
	return nil
}

func checkIndex(mesh, what string, idx int32, n int) error {
	if idx < 0 || int(idx) >= n {
		return fmt.Errorf("mesh %q %s index %d out of %d: %w", mesh, what, idx, n, core.ErrGeometryAssumption)
	}
	return nil
}

// NextDebugName and PrevDebugName cycle the mesh name shown in the overlay.
func (s *Scene) NextDebugName() string {
	if len(s.DebugNames) == 0 {
		return ""
	}
	s.DebugIndex = (s.DebugIndex + 1) % len(s.DebugNames)
	return s.DebugNames[s.DebugIndex]
}

func (s *Scene) PrevDebugName() string {
	if len(s.DebugNames) == 0 {
		return ""
	}
	s.DebugIndex--
	if s.DebugIndex < 0 {
		s.DebugIndex = len(s.DebugNames) - 1
	}
	return s.DebugNames[s.DebugIndex]
}

func (s *Scene) CurrentDebugName() string {
	if len(s.DebugNames) == 0 {
		return ""
	}
	return s.DebugNames[s.DebugIndex]
}
