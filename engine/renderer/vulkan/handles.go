package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// object pairs a raw Vulkan handle with the id the engine logs it under.
type object[T any] struct {
	id     core.ResourceID
	Handle T
}

func (o *object[T]) ID() core.ResourceID { return o.id }

func wrap[T any](kind string, handle T) *object[T] {
	return &object[T]{id: core.NewResourceID(kind), Handle: handle}
}

// raw returns the Vulkan handle behind r, or the zero handle for nil.
func raw[T any](r hal.Resource) T {
	var zero T
	if r == nil {
		return zero
	}
	if o, ok := r.(*object[T]); ok && o != nil {
		return o.Handle
	}
	return zero
}

type image struct {
	id     core.ResourceID
	Handle vk.Image
	Format hal.Format
	// Swapchain images belong to their swapchain and are never destroyed here.
	owned bool
}

func (i *image) ID() core.ResourceID { return i.id }

func rawImage(r hal.Image) vk.Image {
	if img, ok := r.(*image); ok && img != nil {
		return img.Handle
	}
	return vk.NullImage
}

type swapchain struct {
	id     core.ResourceID
	Handle vk.Swapchain
	Format hal.Format
	images []hal.Image
}

func (s *swapchain) ID() core.ResourceID { return s.id }

func rawSwapchain(r hal.Swapchain) vk.Swapchain {
	if sc, ok := r.(*swapchain); ok && sc != nil {
		return sc.Handle
	}
	return vk.NullSwapchain
}

type (
	surfaceObject     = object[vk.Surface]
	memoryObject      = object[vk.DeviceMemory]
	bufferObject      = object[vk.Buffer]
	viewObject        = object[vk.ImageView]
	samplerObject     = object[vk.Sampler]
	renderPassObject  = object[vk.RenderPass]
	framebufferObject = object[vk.Framebuffer]
	shaderObject      = object[vk.ShaderModule]
	setLayoutObject   = object[vk.DescriptorSetLayout]
	pipelineLayout    = object[vk.PipelineLayout]
	pipelineObject    = object[vk.Pipeline]
	poolObject        = object[vk.DescriptorPool]
	setObject         = object[vk.DescriptorSet]
	semaphoreObject   = object[vk.Semaphore]
	fenceObject       = object[vk.Fence]
)

var (
	_ hal.Surface             = (*surfaceObject)(nil)
	_ hal.Memory              = (*memoryObject)(nil)
	_ hal.Buffer              = (*bufferObject)(nil)
	_ hal.Image               = (*image)(nil)
	_ hal.ImageView           = (*viewObject)(nil)
	_ hal.Sampler             = (*samplerObject)(nil)
	_ hal.Swapchain           = (*swapchain)(nil)
	_ hal.RenderPass          = (*renderPassObject)(nil)
	_ hal.Framebuffer         = (*framebufferObject)(nil)
	_ hal.ShaderModule        = (*shaderObject)(nil)
	_ hal.DescriptorSetLayout = (*setLayoutObject)(nil)
	_ hal.PipelineLayout      = (*pipelineLayout)(nil)
	_ hal.Pipeline            = (*pipelineObject)(nil)
	_ hal.DescriptorPool      = (*poolObject)(nil)
	_ hal.DescriptorSet       = (*setObject)(nil)
	_ hal.Semaphore           = (*semaphoreObject)(nil)
	_ hal.Fence               = (*fenceObject)(nil)
)
