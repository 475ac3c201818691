// Package hal is the thin hardware layer the renderer is written against.
// The Vulkan backend implements it for real GPUs; haltest implements it
// in memory for tests.
package hal

import (
	"github.com/spaghettifunk/prism/engine/core"
)

// Resource is implemented by every backend object handle.
type Resource interface {
	ID() core.ResourceID
}

type (
	Surface             interface{ Resource }
	Memory              interface{ Resource }
	Buffer              interface{ Resource }
	Image               interface{ Resource }
	ImageView           interface{ Resource }
	Sampler             interface{ Resource }
	Swapchain           interface{ Resource }
	RenderPass          interface{ Resource }
	Framebuffer         interface{ Resource }
	ShaderModule        interface{ Resource }
	DescriptorSetLayout interface{ Resource }
	PipelineLayout      interface{ Resource }
	Pipeline            interface{ Resource }
	DescriptorPool      interface{ Resource }
	DescriptorSet       interface{ Resource }
	Semaphore           interface{ Resource }
	Fence               interface{ Resource }
)

type Instance interface {
	// Adapters lists physical devices in driver enumeration order.
	Adapters() ([]Adapter, error)
	Destroy()
}

type Adapter interface {
	Name() string
	Limits() Limits
	MemoryTypes() []MemoryType
	QueueFamilies(surface Surface) []QueueFamily
	Extensions() []string
	SupportsSamplerAnisotropy() bool
	SurfaceFormats(surface Surface) []SurfaceFormat
	PresentModes(surface Surface) []PresentMode
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	// FormatFeatures returns the optimal-tiling features of format.
	FormatFeatures(format Format) FormatFeature
	Open(desc DeviceDescriptor) (Device, error)
}

type Device interface {
	GraphicsQueue() Queue
	PresentQueue() Queue

	AllocateMemory(size uint64, memoryTypeIndex uint32) (Memory, error)
	FreeMemory(memory Memory)
	// MapMemory returns a byte view of the mapped range. It stays valid until UnmapMemory.
	MapMemory(memory Memory, offset, size uint64) ([]byte, error)
	UnmapMemory(memory Memory)

	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	DestroyBuffer(buffer Buffer)
	BufferMemoryRequirements(buffer Buffer) MemoryRequirements
	BindBufferMemory(buffer Buffer, memory Memory, offset uint64) error

	CreateImage(desc ImageDescriptor) (Image, error)
	DestroyImage(image Image)
	ImageMemoryRequirements(image Image) MemoryRequirements
	BindImageMemory(image Image, memory Memory, offset uint64) error
	CreateImageView(image Image, format Format, aspect ImageAspect) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	DestroySampler(sampler Sampler)

	CreateSwapchain(desc SwapchainDescriptor) (Swapchain, error)
	DestroySwapchain(swapchain Swapchain)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	// AcquireNextImage wraps core.ErrStaleSurface when the swapchain is out of date.
	AcquireNextImage(swapchain Swapchain, signal Semaphore) (index uint32, suboptimal bool, err error)

	CreateRenderPass(desc RenderPassDescriptor) (RenderPass, error)
	DestroyRenderPass(renderPass RenderPass)
	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipeline(desc *GraphicsPipelineDescriptor) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateDescriptorPool(desc DescriptorPoolDescriptor) (DescriptorPool, error)
	DestroyDescriptorPool(pool DescriptorPool)
	// AllocateDescriptorSets wraps core.ErrDescriptorPoolExhausted when the pool is too small.
	AllocateDescriptorSets(pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)
	UpdateDescriptorSets(writes []DescriptorWrite)

	AllocateCommandBuffers(count uint32) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	WaitForFence(fence Fence, timeoutNs uint64) error
	ResetFence(fence Fence) error

	WaitIdle() error
	Destroy()
}

type Queue interface {
	Submit(info SubmitInfo, fence Fence) error
	// Present wraps core.ErrStaleSurface when the swapchain is out of date.
	Present(info PresentInfo) (suboptimal bool, err error)
	WaitIdle() error
}

type CommandBuffer interface {
	Resource

	Reset() error
	Begin(oneTimeSubmit bool) error
	End() error

	BeginRenderPass(renderPass RenderPass, framebuffer Framebuffer, extent Extent2D, clear ClearValues)
	EndRenderPass()
	SetViewport(extent Extent2D)
	SetScissor(extent Extent2D)

	BindPipeline(pipeline Pipeline)
	BindVertexBuffer(binding uint32, buffer Buffer, offset uint64)
	// BindIndexBuffer binds 32-bit indices.
	BindIndexBuffer(buffer Buffer, offset uint64)
	BindDescriptorSets(layout PipelineLayout, firstSet uint32, sets []DescriptorSet)
	DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32)

	CopyBuffer(src, dst Buffer, size uint64)
	CopyBufferToImage(src Buffer, srcOffset uint64, dst Image, extent Extent2D)
	TransitionImageLayout(image Image, from, to ImageLayout)
}
