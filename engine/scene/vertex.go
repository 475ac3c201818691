package scene

import (
	"unsafe"

	"github.com/spaghettifunk/prism/engine/math"
)

// Vertex is the layout of every plain mesh.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    math.Vec4
	TexCoord math.Vec2
}

// VertexWithTangent is the layout of normal-mapped meshes.
type VertexWithTangent struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    math.Vec4
	TexCoord math.Vec2
	Tangent  math.Vec3
}

// VertexKind is the set of vertex layouts a Mesh can carry. The layout is
// fixed at compile time because pipelines bake it in.
type VertexKind interface {
	Vertex | VertexWithTangent
}

// VertexStride is the size in bytes of one V.
func VertexStride[V VertexKind]() uint32 {
	var v V
	return uint32(unsafe.Sizeof(v))
}

// Attribute offsets, shared by both layouts up to the tangent.
const (
	OffsetPosition = uint32(unsafe.Offsetof(Vertex{}.Position))
	OffsetNormal   = uint32(unsafe.Offsetof(Vertex{}.Normal))
	OffsetColor    = uint32(unsafe.Offsetof(Vertex{}.Color))
	OffsetTexCoord = uint32(unsafe.Offsetof(Vertex{}.TexCoord))
	OffsetTangent  = uint32(unsafe.Offsetof(VertexWithTangent{}.Tangent))
)

func (v Vertex) WithTangent(t math.Vec3) VertexWithTangent {
	return VertexWithTangent{
		Position: v.Position,
		Normal:   v.Normal,
		Color:    v.Color,
		TexCoord: v.TexCoord,
		Tangent:  t,
	}
}

// sliceBytes views a vertex or index slice as raw bytes without copying.
func sliceBytes[T VertexKind | uint32](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
