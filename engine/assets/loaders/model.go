package loaders

import (
	"fmt"
	"io"
	"os"

	"github.com/mokiat/go-data-front/decoder/obj"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

// LoadOBJ builds a scene from a Wavefront model and its material library.
// Every material group of every object becomes one mesh; groups whose
// material has a normal map become tangent meshes.
func LoadOBJ(objPath, mtlPath string, camera *scene.Camera) (*scene.Scene, error) {
	materials, err := LoadMTL(mtlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials %s: %w", mtlPath, err)
	}

	file, err := os.Open(objPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := DecodeOBJ(file, objPath, materials, camera)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", objPath, err)
	}
	core.LogInfo("Loaded %s: %d meshes, %d tangent meshes, %d textures, %d normal maps.",
		objPath, len(s.Meshes), len(s.TangentMeshes), s.Textures.Len(), s.NormalMaps.Len())
	return s, nil
}

func DecodeOBJ(r io.Reader, source string, materials map[string]Material, camera *scene.Camera) (*scene.Scene, error) {
	model, err := obj.NewDecoder(obj.DefaultLimits()).Decode(r)
	if err != nil {
		return nil, err
	}

	s := scene.New(source, camera)
	for _, object := range model.Objects {
		for _, mesh := range object.Meshes {
			name := object.Name
			if len(object.Meshes) > 1 {
				name = fmt.Sprintf("%s/%s", object.Name, mesh.MaterialName)
			}

			mat, ok := materials[mesh.MaterialName]
			if !ok {
				mat = Material{Name: mesh.MaterialName, DiffuseColor: math.NewVec4(1, 1, 1, 1)}
			}

			vertices, indices, err := buildMesh(model, mesh, mat.DiffuseColor)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", name, err)
			}
			if len(indices) == 0 {
				continue
			}

			texture := s.Textures.Add(mat.DiffuseMap)
			if mat.NormalMap == "" {
				s.Meshes = append(s.Meshes, scene.NewMesh(name, vertices, indices, texture))
			} else {
				m := scene.NewMesh(name, scene.ComputeTangents(vertices, indices), indices, texture)
				m.NormalMapIndex = s.NormalMaps.Add(mat.NormalMap)
				s.TangentMeshes = append(s.TangentMeshes, m)
			}
			s.DebugNames = append(s.DebugNames, name)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.AssignOffsets()
	return s, nil
}

// buildMesh deduplicates the face corners of one material group into a
// vertex list and triangulates the faces.
func buildMesh(model *obj.Model, mesh *obj.Mesh, color math.Vec4) ([]scene.Vertex, []uint32, error) {
	var vertices []scene.Vertex
	var indices []uint32
	unique := make(map[obj.Reference]uint32)

	for _, face := range mesh.Faces {
		corners := make([]uint32, 0, len(face.References))
		for _, ref := range face.References {
			idx, ok := unique[ref]
			if !ok {
				idx = uint32(len(vertices))
				unique[ref] = idx
				vertices = append(vertices, vertexFromReference(model, ref, color))
			}
			corners = append(corners, idx)
		}
		tris, err := scene.Triangulate(corners)
		if err != nil {
			return nil, nil, err
		}
		indices = append(indices, tris...)
	}
	return vertices, indices, nil
}

func vertexFromReference(model *obj.Model, ref obj.Reference, color math.Vec4) scene.Vertex {
	p := model.GetVertexFromReference(ref)
	v := scene.Vertex{
		Position: math.NewVec3(float32(p.X), float32(p.Y), float32(p.Z)),
		Color:    color,
	}
	if ref.HasNormal() {
		n := model.GetNormalFromReference(ref)
		v.Normal = math.NewVec3(float32(n.X), float32(n.Y), float32(n.Z))
	}
	if ref.HasTexCoord() {
		t := model.GetTexCoordFromReference(ref)
		v.TexCoord = math.NewVec2(float32(t.U), float32(t.V))
	}
	return v
}
