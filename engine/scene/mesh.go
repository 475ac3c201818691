package scene

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// NoNormalMap marks a mesh without a normal map.
const NoNormalMap int32 = -1

// Mesh is one drawable piece of the scene. IndexOffset and VertexOffset
// locate it inside the shared index and vertex buffers; they are fixed by
// Scene.AssignOffsets and never change after upload.
type Mesh[V VertexKind] struct {
	Name           string
	Vertices       []V
	Indices        []uint32
	IndexOffset    int32
	VertexOffset   int32
	InitTransform  math.Mat4
	TextureIndex   int32
	NormalMapIndex int32
}

func NewMesh[V VertexKind](name string, vertices []V, indices []uint32, texture int32) Mesh[V] {
	return Mesh[V]{
		Name:           name,
		Vertices:       vertices,
		Indices:        indices,
		InitTransform:  math.NewMat4Identity(),
		TextureIndex:   texture,
		NormalMapIndex: NoNormalMap,
	}
}

// Validate checks that the mesh is a list of whole triangles referencing
// existing vertices.
func (m *Mesh[V]) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q has %d indices: %w", m.Name, len(m.Indices), core.ErrGeometryAssumption)
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("mesh %q index %d out of %d vertices: %w", m.Name, idx, len(m.Vertices), core.ErrGeometryAssumption)
		}
	}
	return nil
}

// Triangulate turns a polygon face into triangle indices. Triangles pass
// through, quads become (0,1,2) (2,3,0), anything else is rejected.
func Triangulate(face []uint32) ([]uint32, error) {
	switch len(face) {
	case 3:
		return []uint32{face[0], face[1], face[2]}, nil
	case 4:
		return []uint32{face[0], face[1], face[2], face[2], face[3], face[0]}, nil
	default:
		return nil, fmt.Errorf("face with %d vertices: %w", len(face), core.ErrGeometryAssumption)
	}
}
