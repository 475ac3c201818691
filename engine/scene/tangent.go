package scene

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// ComputeTangents derives a per-vertex tangent from positions and texture
// coordinates. Each triangle contributes its tangent to its three corners;
// the sum is then normalized. Triangles with degenerate UVs are skipped.
func ComputeTangents(vertices []Vertex, indices []uint32) []VertexWithTangent {
	sums := make([]math.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		edge1 := v1.Position.Sub(v0.Position)
		edge2 := v2.Position.Sub(v0.Position)
		duv1 := v1.TexCoord.Sub(v0.TexCoord)
		duv2 := v2.TexCoord.Sub(v0.TexCoord)

		det := duv1.X*duv2.Y - duv2.X*duv1.Y
		if det == 0 {
			continue
		}
		f := 1.0 / det
		t := edge1.MulScalar(duv2.Y).Sub(edge2.MulScalar(duv1.Y)).MulScalar(f)

		sums[i0] = sums[i0].Add(t)
		sums[i1] = sums[i1].Add(t)
		sums[i2] = sums[i2].Add(t)
	}

	out := make([]VertexWithTangent, len(vertices))
	for i, v := range vertices {
		out[i] = v.WithTangent(sums[i].Normalized())
	}
	return out
}
