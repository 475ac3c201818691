package ui

import (
	"unsafe"

	"github.com/spaghettifunk/prism/engine/math"
)

// Vertex is one corner of an overlay quad. Positions are in normalized
// device coordinates, so the overlay needs no uniforms.
type Vertex struct {
	Position math.Vec2
	TexCoord math.Vec2
	Color    math.Vec4
}

const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

const (
	OffsetPosition = uint32(unsafe.Offsetof(Vertex{}.Position))
	OffsetTexCoord = uint32(unsafe.Offsetof(Vertex{}.TexCoord))
	OffsetColor    = uint32(unsafe.Offsetof(Vertex{}.Color))
)

// DrawData is the overlay geometry of one frame. The renderer uploads and
// draws it as is.
type DrawData struct {
	Vertices []Vertex
	Indices  []uint32
}

func (d *DrawData) Empty() bool {
	return d == nil || len(d.Indices) == 0
}

func (d *DrawData) Reset() {
	d.Vertices = d.Vertices[:0]
	d.Indices = d.Indices[:0]
}

// AddQuad appends an axis aligned quad from (x0,y0) to (x1,y1) sampling
// the atlas from (u0,v0) to (u1,v1).
func (d *DrawData) AddQuad(x0, y0, x1, y1, u0, v0, u1, v1 float32, color math.Vec4) {
	base := uint32(len(d.Vertices))
	d.Vertices = append(d.Vertices,
		Vertex{Position: math.NewVec2(x0, y0), TexCoord: math.NewVec2(u0, v0), Color: color},
		Vertex{Position: math.NewVec2(x1, y0), TexCoord: math.NewVec2(u1, v0), Color: color},
		Vertex{Position: math.NewVec2(x1, y1), TexCoord: math.NewVec2(u1, v1), Color: color},
		Vertex{Position: math.NewVec2(x0, y1), TexCoord: math.NewVec2(u0, v1), Color: color},
	)
	d.Indices = append(d.Indices, base, base+1, base+2, base+2, base+3, base)
}

func (d *DrawData) VertexBytes() []byte {
	if len(d.Vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&d.Vertices[0])), len(d.Vertices)*int(VertexSize))
}

func (d *DrawData) IndexBytes() []byte {
	if len(d.Indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&d.Indices[0])), len(d.Indices)*4)
}
