package renderer

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/scene"
)

// MaxFramesInFlight is how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

// Uniform block sizes in bytes.
const (
	// view followed by projection
	ViewProjectionSize uint64 = 128
	FragmentSize       uint64 = scene.FragmentUniformSize
	ModelSize          uint64 = 64
)

// UniformLayout is the one place that knows where each uniform lives in
// the shared uniform buffer. The uniform writer and the descriptor writes
// both ask it, so they cannot disagree.
//
// Each frame in flight owns a contiguous slice:
//
//	[ view/projection | fragment (lights, eye) | model 0 | model 1 | ... ]
//
// every entry starting on the device's uniform offset alignment. Plain
// meshes take the first model slots, tangent meshes follow.
type UniformLayout struct {
	alignment uint64
	meshes    int

	vpStride    uint64
	fragStride  uint64
	modelStride uint64
}

func NewUniformLayout(alignment uint64, meshes int) UniformLayout {
	return UniformLayout{
		alignment:   alignment,
		meshes:      meshes,
		vpStride:    math.AlignUp(ViewProjectionSize, alignment),
		fragStride:  math.AlignUp(FragmentSize, alignment),
		modelStride: math.AlignUp(ModelSize, alignment),
	}
}

func (l UniformLayout) Meshes() int {
	return l.meshes
}

func (l UniformLayout) FrameStride() uint64 {
	return l.vpStride + l.fragStride + uint64(l.meshes)*l.modelStride
}

// Size is the whole buffer, all frames included.
func (l UniformLayout) Size() uint64 {
	return MaxFramesInFlight * l.FrameStride()
}

func (l UniformLayout) FrameBase(frame int) uint64 {
	return uint64(frame) * l.FrameStride()
}

func (l UniformLayout) ViewProjectionOffset(frame int) uint64 {
	return l.FrameBase(frame)
}

func (l UniformLayout) FragmentOffset(frame int) uint64 {
	return l.FrameBase(frame) + l.vpStride
}

// ModelOffset locates the model matrix of mesh, counted over plain meshes
// first and tangent meshes after.
func (l UniformLayout) ModelOffset(frame, mesh int) uint64 {
	return l.FrameBase(frame) + l.vpStride + l.fragStride + uint64(mesh)*l.modelStride
}

// DescriptorIndex maps (frame, kind, i) to a position in the flat list of
// descriptor sets. Within a frame the order is the global set, one set per
// texture, one per normal map, one per plain mesh, one per tangent mesh.
// The overlay's font set comes after all frames.
type DescriptorIndex struct {
	Textures      int
	NormalMaps    int
	Meshes        int
	TangentMeshes int
}

func NewDescriptorIndex(s *scene.Scene) DescriptorIndex {
	return DescriptorIndex{
		Textures:      s.Textures.Len(),
		NormalMaps:    s.NormalMaps.Len(),
		Meshes:        len(s.Meshes),
		TangentMeshes: len(s.TangentMeshes),
	}
}

func (d DescriptorIndex) SetsPerFrame() int {
	return 1 + d.Textures + d.NormalMaps + d.Meshes + d.TangentMeshes
}

func (d DescriptorIndex) base(frame int) int {
	return frame * d.SetsPerFrame()
}

func (d DescriptorIndex) Global(frame int) int {
	return d.base(frame)
}

func (d DescriptorIndex) Texture(frame, texture int) int {
	return d.base(frame) + 1 + texture
}

func (d DescriptorIndex) NormalMap(frame, normalMap int) int {
	return d.base(frame) + 1 + d.Textures + normalMap
}

func (d DescriptorIndex) Mesh(frame, mesh int) int {
	return d.base(frame) + 1 + d.Textures + d.NormalMaps + mesh
}

func (d DescriptorIndex) TangentMesh(frame, mesh int) int {
	return d.Mesh(frame, d.Meshes+mesh)
}

func (d DescriptorIndex) Overlay() int {
	return MaxFramesInFlight * d.SetsPerFrame()
}

// TotalSets counts every set, overlay included.
func (d DescriptorIndex) TotalSets() int {
	return d.Overlay() + 1
}

// PoolSizes is exactly what the sets need: the global set carries two
// uniform buffers, each mesh set one, and every texture, normal map and the
// overlay font one sampler.
func (d DescriptorIndex) PoolSizes() hal.DescriptorPoolDescriptor {
	return hal.DescriptorPoolDescriptor{
		MaxSets:               uint32(d.TotalSets()),
		UniformBuffers:        uint32(MaxFramesInFlight * (d.Meshes + d.TangentMeshes + 2)),
		CombinedImageSamplers: uint32(MaxFramesInFlight*(d.Textures+d.NormalMaps) + 1),
	}
}
