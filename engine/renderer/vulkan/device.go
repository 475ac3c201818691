package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

type VulkanDevice struct {
	adapter       *Adapter
	LogicalDevice vk.Device
	Allocator     *vk.AllocationCallbacks

	graphics *Queue
	present  *Queue

	GraphicsCommandPool vk.CommandPool

	locks *VulkanLockPool
}

func newDevice(adapter *Adapter, logical vk.Device, desc hal.DeviceDescriptor) (*VulkanDevice, error) {
	d := &VulkanDevice{
		adapter:       adapter,
		LogicalDevice: logical,
		Allocator:     adapter.instance.Allocator,
		locks:         NewVulkanLockPool(),
	}
	d.locks.SetQueueFamily(desc.GraphicsFamily)
	d.locks.SetQueueFamily(desc.PresentFamily)

	core.LogDebug("Obtaining queues...")
	d.graphics = d.queue("graphics", desc.GraphicsFamily)
	d.present = d.queue("present", desc.PresentFamily)

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: desc.GraphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := check(vk.CreateCommandPool(logical, &poolCreateInfo, d.Allocator, &d.GraphicsCommandPool), "vkCreateCommandPool"); err != nil {
		vk.DestroyDevice(logical, d.Allocator)
		return nil, fmt.Errorf("failed to create graphics command pool: %w", err)
	}
	core.LogDebug("Graphics command pool created.")
	return d, nil
}

func (d *VulkanDevice) queue(name string, family uint32) *Queue {
	var q vk.Queue
	vk.GetDeviceQueue(d.LogicalDevice, family, 0, &q)
	return &Queue{name: name, Handle: q, family: family, locks: d.locks}
}

func (d *VulkanDevice) GraphicsQueue() hal.Queue { return d.graphics }
func (d *VulkanDevice) PresentQueue() hal.Queue  { return d.present }

func (d *VulkanDevice) AllocateMemory(size uint64, memoryTypeIndex uint32) (hal.Memory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIndex,
	}
	var mem vk.DeviceMemory
	if err := check(vk.AllocateMemory(d.LogicalDevice, &allocInfo, d.Allocator, &mem), "vkAllocateMemory"); err != nil {
		return nil, fmt.Errorf("failed to allocate %d bytes from memory type %d: %w", size, memoryTypeIndex, err)
	}
	return wrap("memory", mem), nil
}

func (d *VulkanDevice) FreeMemory(memory hal.Memory) {
	if m := raw[vk.DeviceMemory](memory); m != vk.NullDeviceMemory {
		vk.FreeMemory(d.LogicalDevice, m, d.Allocator)
	}
}

func (d *VulkanDevice) MapMemory(memory hal.Memory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	res := vk.MapMemory(d.LogicalDevice, raw[vk.DeviceMemory](memory), vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)
	if err := check(res, "vkMapMemory"); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *VulkanDevice) UnmapMemory(memory hal.Memory) {
	vk.UnmapMemory(d.LogicalDevice, raw[vk.DeviceMemory](memory))
}

func (d *VulkanDevice) CreateBuffer(desc hal.BufferDescriptor) (hal.Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       vk.BufferUsageFlags(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := check(vk.CreateBuffer(d.LogicalDevice, &bufferInfo, d.Allocator, &buf), "vkCreateBuffer"); err != nil {
		return nil, err
	}
	return wrap("buffer", buf), nil
}

func (d *VulkanDevice) DestroyBuffer(buffer hal.Buffer) {
	if b := raw[vk.Buffer](buffer); b != vk.NullBuffer {
		vk.DestroyBuffer(d.LogicalDevice, b, d.Allocator)
	}
}

func (d *VulkanDevice) BufferMemoryRequirements(buffer hal.Buffer) hal.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, raw[vk.Buffer](buffer), &req)
	req.Deref()
	return memoryRequirements(req)
}

func (d *VulkanDevice) BindBufferMemory(buffer hal.Buffer, memory hal.Memory, offset uint64) error {
	res := vk.BindBufferMemory(d.LogicalDevice, raw[vk.Buffer](buffer), raw[vk.DeviceMemory](memory), vk.DeviceSize(offset))
	return check(res, "vkBindBufferMemory")
}

func (d *VulkanDevice) CreateImage(desc hal.ImageDescriptor) (hal.Image, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vk.Format(desc.Format),
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCountFlagBits(desc.Samples),
	}
	var img vk.Image
	if err := check(vk.CreateImage(d.LogicalDevice, &imageInfo, d.Allocator, &img), "vkCreateImage"); err != nil {
		return nil, err
	}
	return &image{id: core.NewResourceID("image"), Handle: img, Format: desc.Format, owned: true}, nil
}

func (d *VulkanDevice) DestroyImage(img hal.Image) {
	i, ok := img.(*image)
	if !ok || i == nil || !i.owned {
		return
	}
	vk.DestroyImage(d.LogicalDevice, i.Handle, d.Allocator)
}

func (d *VulkanDevice) ImageMemoryRequirements(img hal.Image) hal.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.LogicalDevice, rawImage(img), &req)
	req.Deref()
	return memoryRequirements(req)
}

func (d *VulkanDevice) BindImageMemory(img hal.Image, memory hal.Memory, offset uint64) error {
	res := vk.BindImageMemory(d.LogicalDevice, rawImage(img), raw[vk.DeviceMemory](memory), vk.DeviceSize(offset))
	return check(res, "vkBindImageMemory")
}

func (d *VulkanDevice) CreateImageView(img hal.Image, format hal.Format, aspect hal.ImageAspect) (hal.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    rawImage(img),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := check(vk.CreateImageView(d.LogicalDevice, &viewInfo, d.Allocator, &view), "vkCreateImageView"); err != nil {
		return nil, err
	}
	return wrap("imageview", view), nil
}

func (d *VulkanDevice) DestroyImageView(view hal.ImageView) {
	if v := raw[vk.ImageView](view); v != vk.NullImageView {
		vk.DestroyImageView(d.LogicalDevice, v, d.Allocator)
	}
}

func (d *VulkanDevice) CreateSampler(desc hal.SamplerDescriptor) (hal.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vkBool(desc.MaxAnisotropy > 1),
		MaxAnisotropy:           desc.MaxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}
	var sampler vk.Sampler
	if err := check(vk.CreateSampler(d.LogicalDevice, &samplerInfo, d.Allocator, &sampler), "vkCreateSampler"); err != nil {
		return nil, err
	}
	return wrap("sampler", sampler), nil
}

func (d *VulkanDevice) DestroySampler(sampler hal.Sampler) {
	if s := raw[vk.Sampler](sampler); s != vk.NullSampler {
		vk.DestroySampler(d.LogicalDevice, s, d.Allocator)
	}
}

func (d *VulkanDevice) WaitIdle() error {
	return check(vk.DeviceWaitIdle(d.LogicalDevice), "vkDeviceWaitIdle")
}

func (d *VulkanDevice) Destroy() {
	if d.LogicalDevice == nil {
		return
	}
	core.LogDebug("Destroying command pools...")
	vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, d.Allocator)
	d.GraphicsCommandPool = vk.CommandPool(vk.NullHandle)

	core.LogDebug("Destroying logical device...")
	vk.DestroyDevice(d.LogicalDevice, d.Allocator)
	d.LogicalDevice = nil
}

func memoryRequirements(req vk.MemoryRequirements) hal.MemoryRequirements {
	return hal.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

var _ hal.Device = (*VulkanDevice)(nil)
