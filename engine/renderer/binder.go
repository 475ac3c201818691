package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Binder owns the descriptor set layouts, the pool, every set allocated
// from it and the sampler all textures share.
//
// Set layouts:
//
//	global  binding 0 view/projection (vertex), binding 1 lights and eye (fragment)
//	sampler binding 0 combined image sampler (fragment)
//	model   binding 0 model matrix (vertex)
type Binder struct {
	GlobalLayout  hal.DescriptorSetLayout
	SamplerLayout hal.DescriptorSetLayout
	ModelLayout   hal.DescriptorSetLayout
	Sampler       hal.Sampler

	Pool  hal.DescriptorPool
	Sets  []hal.DescriptorSet
	Index DescriptorIndex
}

func NewBinder(device *Device, maxAnisotropy float32) (*Binder, error) {
	dev := device.Handle
	b := &Binder{}
	var err error

	b.GlobalLayout, err = dev.CreateDescriptorSetLayout([]hal.DescriptorBinding{
		{Binding: 0, Type: hal.DescriptorTypeUniformBuffer, Stages: hal.ShaderStageVertex},
		{Binding: 1, Type: hal.DescriptorTypeUniformBuffer, Stages: hal.ShaderStageFragment},
	})
	if err != nil {
		return nil, fmt.Errorf("global set layout: %w", err)
	}
	b.SamplerLayout, err = dev.CreateDescriptorSetLayout([]hal.DescriptorBinding{
		{Binding: 0, Type: hal.DescriptorTypeCombinedImageSampler, Stages: hal.ShaderStageFragment},
	})
	if err != nil {
		b.Destroy(device)
		return nil, fmt.Errorf("sampler set layout: %w", err)
	}
	b.ModelLayout, err = dev.CreateDescriptorSetLayout([]hal.DescriptorBinding{
		{Binding: 0, Type: hal.DescriptorTypeUniformBuffer, Stages: hal.ShaderStageVertex},
	})
	if err != nil {
		b.Destroy(device)
		return nil, fmt.Errorf("model set layout: %w", err)
	}

	anisotropy := maxAnisotropy
	if limit := device.Limits.MaxSamplerAnisotropy; limit > 0 && anisotropy > limit {
		anisotropy = limit
	}
	b.Sampler, err = dev.CreateSampler(hal.SamplerDescriptor{MaxAnisotropy: anisotropy})
	if err != nil {
		b.Destroy(device)
		return nil, fmt.Errorf("texture sampler: %w", err)
	}
	return b, nil
}

// MeshSetLayouts is the pipeline layout of the plain pipelines.
func (b *Binder) MeshSetLayouts() []hal.DescriptorSetLayout {
	return []hal.DescriptorSetLayout{b.GlobalLayout, b.SamplerLayout, b.ModelLayout}
}

// NormalMappingSetLayouts adds the normal map sampler before the model set.
func (b *Binder) NormalMappingSetLayouts() []hal.DescriptorSetLayout {
	return []hal.DescriptorSetLayout{b.GlobalLayout, b.SamplerLayout, b.SamplerLayout, b.ModelLayout}
}

func (b *Binder) OverlaySetLayouts() []hal.DescriptorSetLayout {
	return []hal.DescriptorSetLayout{b.SamplerLayout}
}

// Allocate creates a pool sized exactly for index and allocates every set
// in index order.
func (b *Binder) Allocate(device *Device, index DescriptorIndex) error {
	pool, err := device.Handle.CreateDescriptorPool(index.PoolSizes())
	if err != nil {
		return fmt.Errorf("descriptor pool: %w", err)
	}
	b.Pool = pool
	b.Index = index

	layouts := make([]hal.DescriptorSetLayout, 0, index.TotalSets())
	for f := 0; f < MaxFramesInFlight; f++ {
		layouts = append(layouts, b.GlobalLayout)
		for i := 0; i < index.Textures+index.NormalMaps; i++ {
			layouts = append(layouts, b.SamplerLayout)
		}
		for i := 0; i < index.Meshes+index.TangentMeshes; i++ {
			layouts = append(layouts, b.ModelLayout)
		}
	}
	layouts = append(layouts, b.SamplerLayout)

	b.Sets, err = device.Handle.AllocateDescriptorSets(pool, layouts)
	if err != nil {
		return fmt.Errorf("allocating %d descriptor sets: %w", len(layouts), err)
	}
	core.LogDebug("Allocated %d descriptor sets (%d per frame).", len(b.Sets), index.SetsPerFrame())
	return nil
}

func (b *Binder) Set(i int) hal.DescriptorSet {
	return b.Sets[i]
}

func (b *Binder) imageWrite(set hal.DescriptorSet, img *Image) hal.DescriptorWrite {
	return hal.DescriptorWrite{
		Set:     set,
		Binding: 0,
		Type:    hal.DescriptorTypeCombinedImageSampler,
		View:    img.View,
		Sampler: b.Sampler,
	}
}

// Write points every set at its data. Uniform ranges come from layout so
// they match what the frame loop writes.
func (b *Binder) Write(device *Device, uniforms *Buffer, layout UniformLayout, textures, normalMaps *TextureArray, font *Image) {
	idx := b.Index
	var writes []hal.DescriptorWrite
	for f := 0; f < MaxFramesInFlight; f++ {
		global := b.Set(idx.Global(f))
		writes = append(writes,
			hal.DescriptorWrite{
				Set: global, Binding: 0, Type: hal.DescriptorTypeUniformBuffer,
				Buffer: uniforms.Handle, Offset: layout.ViewProjectionOffset(f), Range: ViewProjectionSize,
			},
			hal.DescriptorWrite{
				Set: global, Binding: 1, Type: hal.DescriptorTypeUniformBuffer,
				Buffer: uniforms.Handle, Offset: layout.FragmentOffset(f), Range: FragmentSize,
			},
		)
		for t := 0; t < idx.Textures; t++ {
			writes = append(writes, b.imageWrite(b.Set(idx.Texture(f, t)), textures.Images[t]))
		}
		for n := 0; n < idx.NormalMaps; n++ {
			writes = append(writes, b.imageWrite(b.Set(idx.NormalMap(f, n)), normalMaps.Images[n]))
		}
		for m := 0; m < idx.Meshes+idx.TangentMeshes; m++ {
			writes = append(writes, hal.DescriptorWrite{
				Set: b.Set(idx.Mesh(f, m)), Binding: 0, Type: hal.DescriptorTypeUniformBuffer,
				Buffer: uniforms.Handle, Offset: layout.ModelOffset(f, m), Range: ModelSize,
			})
		}
	}
	if font.Valid() {
		writes = append(writes, b.imageWrite(b.Set(idx.Overlay()), font))
	}
	device.Handle.UpdateDescriptorSets(writes)
}

// Destroy releases the pool (and with it every set), the layouts and the
// sampler.
func (b *Binder) Destroy(device *Device) {
	dev := device.Handle
	if b.Pool != nil {
		dev.DestroyDescriptorPool(b.Pool)
		b.Pool = nil
		b.Sets = nil
	}
	for _, l := range []*hal.DescriptorSetLayout{&b.GlobalLayout, &b.SamplerLayout, &b.ModelLayout} {
		if *l != nil {
			dev.DestroyDescriptorSetLayout(*l)
			*l = nil
		}
	}
	if b.Sampler != nil {
		dev.DestroySampler(b.Sampler)
		b.Sampler = nil
	}
}
