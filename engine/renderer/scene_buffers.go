package renderer

import (
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/scene"
)

// SceneBuffers holds the GPU copies of a scene: one vertex buffer with the
// plain vertices followed by the tangent ones, one index buffer, and the
// uniform buffer, mapped for the whole lifetime of the scene.
type SceneBuffers struct {
	Vertices *Buffer
	Indices  *Buffer
	Uniforms *Buffer
	// UniformData is the persistent mapping of Uniforms.
	UniformData []byte
	// TangentVertexOffset is where binding 1 starts in Vertices.
	TangentVertexOffset uint64
}

func NewSceneBuffers(alloc *Allocator, s *scene.Scene, layout UniformLayout) (*SceneBuffers, error) {
	sb := &SceneBuffers{TangentVertexOffset: s.PlainVertexBytes()}
	var err error

	sb.Vertices, err = alloc.UploadToDeviceLocal(s.VertexData(), hal.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	sb.Indices, err = alloc.UploadToDeviceLocal(s.IndexData(), hal.BufferUsageIndex)
	if err != nil {
		sb.Destroy()
		return nil, err
	}
	sb.Uniforms, err = alloc.CreateBuffer(layout.Size(), hal.BufferUsageUniform, hal.MemoryPropertyHostVisible|hal.MemoryPropertyHostCoherent)
	if err != nil {
		sb.Destroy()
		return nil, err
	}
	sb.UniformData, err = sb.Uniforms.Map()
	if err != nil {
		sb.Destroy()
		return nil, err
	}
	clear(sb.UniformData)
	return sb, nil
}

func (sb *SceneBuffers) Bind(cb hal.CommandBuffer) {
	cb.BindVertexBuffer(PlainVertexBinding, sb.Vertices.Handle, 0)
	cb.BindVertexBuffer(TangentVertexBinding, sb.Vertices.Handle, sb.TangentVertexOffset)
	cb.BindIndexBuffer(sb.Indices.Handle, 0)
}

func (sb *SceneBuffers) Destroy() {
	if sb == nil {
		return
	}
	sb.UniformData = nil
	sb.Uniforms.Destroy()
	sb.Indices.Destroy()
	sb.Vertices.Destroy()
}
