package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

func (d *VulkanDevice) CreateDescriptorPool(desc hal.DescriptorPoolDescriptor) (hal.DescriptorPool, error) {
	var poolSizes []vk.DescriptorPoolSize
	if desc.UniformBuffers > 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: desc.UniformBuffers,
		})
	}
	if desc.CombinedImageSamplers > 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: desc.CombinedImageSamplers,
		})
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       desc.MaxSets,
	}
	var pool vk.DescriptorPool
	if err := check(vk.CreateDescriptorPool(d.LogicalDevice, &poolInfo, d.Allocator, &pool), "vkCreateDescriptorPool"); err != nil {
		return nil, err
	}
	return wrap("descpool", pool), nil
}

func (d *VulkanDevice) DestroyDescriptorPool(pool hal.DescriptorPool) {
	if p := raw[vk.DescriptorPool](pool); p != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(d.LogicalDevice, p, d.Allocator)
	}
}

// AllocateDescriptorSets allocates one set per layout in a single call.
// A pool that is too small reports core.ErrDescriptorPoolExhausted.
func (d *VulkanDevice) AllocateDescriptorSets(pool hal.DescriptorPool, layouts []hal.DescriptorSetLayout) ([]hal.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	setLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		setLayouts[i] = raw[vk.DescriptorSetLayout](l)
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     raw[vk.DescriptorPool](pool),
		DescriptorSetCount: uint32(len(setLayouts)),
		PSetLayouts:        setLayouts,
	}

	sets := make([]vk.DescriptorSet, len(setLayouts))
	if err := d.locks.SafeCall(DescriptorPoolManagement, func() error {
		return check(vk.AllocateDescriptorSets(d.LogicalDevice, &allocInfo, &sets[0]), "vkAllocateDescriptorSets")
	}); err != nil {
		return nil, fmt.Errorf("failed to allocate %d descriptor sets: %w", len(sets), err)
	}

	out := make([]hal.DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = wrap("descset", s)
	}
	return out, nil
}

func (d *VulkanDevice) UpdateDescriptorSets(writes []hal.DescriptorWrite) {
	if len(writes) == 0 {
		return
	}
	descriptorWrites := make([]vk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          raw[vk.DescriptorSet](w.Set),
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorType(w.Type),
			DescriptorCount: 1,
		}
		switch w.Type {
		case hal.DescriptorTypeUniformBuffer:
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: raw[vk.Buffer](w.Buffer),
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(w.Range),
			}}
		case hal.DescriptorTypeCombinedImageSampler:
			write.PImageInfo = []vk.DescriptorImageInfo{{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				ImageView:   raw[vk.ImageView](w.View),
				Sampler:     raw[vk.Sampler](w.Sampler),
			}}
		}
		descriptorWrites[i] = write
	}
	vk.UpdateDescriptorSets(d.LogicalDevice, uint32(len(descriptorWrites)), descriptorWrites, 0, nil)
}
