// Package haltest provides an in-memory hal implementation. It keeps
// count of every live object, logs device and queue calls in order, and
// signals fences as soon as work is submitted.
package haltest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

var errNotSignaled = errors.New("haltest: waiting on a fence that was never submitted")

type object struct {
	id   core.ResourceID
	kind string
}

func (o *object) ID() core.ResourceID { return o.id }

// Instance lists a fixed set of adapters.
type Instance struct {
	AdapterList []*Adapter
	Destroyed   bool
}

func (i *Instance) Adapters() ([]hal.Adapter, error) {
	out := make([]hal.Adapter, len(i.AdapterList))
	for n, a := range i.AdapterList {
		out[n] = a
	}
	return out, nil
}

func (i *Instance) Destroy() { i.Destroyed = true }

// Surface is a stand-in for a window surface.
type Surface struct{ object }

func NewSurface() *Surface {
	return &Surface{object{id: "surface-0", kind: "surface"}}
}

// Adapter describes a fake physical device. The zero value is unusable;
// start from NewAdapter and change what the test needs.
type Adapter struct {
	AdapterName       string
	AdapterLimits     hal.Limits
	Types             []hal.MemoryType
	Families          []hal.QueueFamily
	Exts              []string
	Anisotropy        bool
	Formats           []hal.SurfaceFormat
	Modes             []hal.PresentMode
	Capabilities      hal.SurfaceCapabilities
	Features          map[hal.Format]hal.FormatFeature
	BufferAlignment   uint64
	ImageAlignment    uint64
	MemoryBudget      uint64
	OpenedWith        *hal.DeviceDescriptor
	Opened            *Device
	CapabilitiesError error
}

// NewAdapter returns an adapter that satisfies every renderer requirement:
// one graphics+present family, swapchain extension, anisotropy, an sRGB
// surface format, mailbox and fifo, 8x MSAA and a 256 byte uniform alignment.
func NewAdapter(name string) *Adapter {
	return &Adapter{
		AdapterName: name,
		AdapterLimits: hal.Limits{
			MinUniformBufferOffsetAlignment: 256,
			FramebufferColorSampleCounts:    hal.SampleCount1 | hal.SampleCount2 | hal.SampleCount4 | hal.SampleCount8,
			FramebufferDepthSampleCounts:    hal.SampleCount1 | hal.SampleCount2 | hal.SampleCount4 | hal.SampleCount8,
			MaxSamplerAnisotropy:            16,
		},
		Types: []hal.MemoryType{
			{PropertyFlags: hal.MemoryPropertyDeviceLocal},
			{PropertyFlags: hal.MemoryPropertyHostVisible | hal.MemoryPropertyHostCoherent},
		},
		Families:   []hal.QueueFamily{{Index: 0, Graphics: true, Present: true}},
		Exts:       []string{"VK_KHR_swapchain"},
		Anisotropy: true,
		Formats: []hal.SurfaceFormat{
			{Format: hal.FormatB8G8R8A8Unorm, ColorSpace: hal.ColorSpaceSrgbNonlinear},
			{Format: hal.FormatB8G8R8A8Srgb, ColorSpace: hal.ColorSpaceSrgbNonlinear},
		},
		Modes: []hal.PresentMode{hal.PresentModeFifo, hal.PresentModeMailbox},
		Capabilities: hal.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  hal.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent: hal.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: hal.Extent2D{Width: 4096, Height: 4096},
		},
		Features: map[hal.Format]hal.FormatFeature{
			hal.FormatR8G8B8A8Srgb: hal.FormatFeatureSampledImage | hal.FormatFeatureTransferDst,
			hal.FormatD32Sfloat:    hal.FormatFeatureDepthStencilAttachment,
		},
		BufferAlignment: 16,
		ImageAlignment:  256,
	}
}

func (a *Adapter) Name() string { return a.AdapterName }
func (a *Adapter) Limits() hal.Limits { return a.AdapterLimits }
func (a *Adapter) MemoryTypes() []hal.MemoryType { return a.Types }
func (a *Adapter) Extensions() []string { return a.Exts }
func (a *Adapter) SupportsSamplerAnisotropy() bool { return a.Anisotropy }

func (a *Adapter) QueueFamilies(hal.Surface) []hal.QueueFamily { return a.Families }
func (a *Adapter) SurfaceFormats(hal.Surface) []hal.SurfaceFormat { return a.Formats }
func (a *Adapter) PresentModes(hal.Surface) []hal.PresentMode { return a.Modes }
func (a *Adapter) FormatFeatures(format hal.Format) hal.FormatFeature { return a.Features[format] }

func (a *Adapter) SurfaceCapabilities(hal.Surface) (hal.SurfaceCapabilities, error) {
	return a.Capabilities, a.CapabilitiesError
}

func (a *Adapter) Open(desc hal.DeviceDescriptor) (hal.Device, error) {
	a.OpenedWith = &desc
	a.Opened = NewDevice(a)
	return a.Opened, nil
}

// Device is the fake logical device. Every Create*/Allocate* registers an
// object, every Destroy*/Free* removes one; Live and Leaks report what is left.
type Device struct {
	mu      sync.Mutex
	adapter *Adapter
	nextID  map[string]int
	objects map[core.ResourceID]string
	used    uint64

	// Calls logs device and queue level calls in order.
	Calls []string
	// DoubleFrees lists ids destroyed while not alive.
	DoubleFrees []core.ResourceID
	// Released lists the kind of every destroyed object in order.
	Released []string

	Images       map[core.ResourceID]hal.ImageDescriptor
	Framebuffers map[core.ResourceID]hal.FramebufferDescriptor
	Pipelines    map[core.ResourceID]*hal.GraphicsPipelineDescriptor
	Writes       []hal.DescriptorWrite

	// Fault injection.
	FailCreateBuffer bool
	FailBindBuffer   bool
	FailCreateImage  bool
	FailAllocate     bool
	StaleAcquire     func(n int) bool
	StalePresent     func(n int) bool
	PresentError     func(n int) error
	OnWaitForFence   func(fence hal.Fence)

	acquires int
	presents int
	graphics *Queue
	present  *Queue
}

func NewDevice(adapter *Adapter) *Device {
	d := &Device{
		adapter:      adapter,
		nextID:       make(map[string]int),
		objects:      make(map[core.ResourceID]string),
		Images:       make(map[core.ResourceID]hal.ImageDescriptor),
		Framebuffers: make(map[core.ResourceID]hal.FramebufferDescriptor),
		Pipelines:    make(map[core.ResourceID]*hal.GraphicsPipelineDescriptor),
	}
	d.graphics = &Queue{device: d, name: "graphics"}
	d.present = &Queue{device: d, name: "present"}
	return d
}

func (d *Device) newObject(kind string) object {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.nextID[kind]
	d.nextID[kind] = n + 1
	id := core.ResourceID(fmt.Sprintf("%s-%d", kind, n))
	d.objects[id] = kind
	return object{id: id, kind: kind}
}

func (d *Device) release(r hal.Resource) {
	if r == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[r.ID()]; !ok {
		d.DoubleFrees = append(d.DoubleFrees, r.ID())
		return
	}
	d.Released = append(d.Released, d.objects[r.ID()])
	delete(d.objects, r.ID())
	delete(d.Images, r.ID())
	delete(d.Framebuffers, r.ID())
	delete(d.Pipelines, r.ID())
}

func (d *Device) log(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

// Live returns how many objects of kind are alive. An empty kind counts all.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.objects {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

// Leaks lists the ids still alive, sorted.
func (d *Device) Leaks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.objects))
	for id := range d.objects {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

// ResetCalls clears the call log and the release log.
func (d *Device) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = nil
	d.Released = nil
}

func (d *Device) GraphicsQueue() hal.Queue { return d.graphics }
func (d *Device) PresentQueue() hal.Queue { return d.present }

type Memory struct {
	object
	Size      uint64
	TypeIndex uint32
	Data      []byte
	Mapped    bool
}

func (d *Device) AllocateMemory(size uint64, memoryTypeIndex uint32) (hal.Memory, error) {
	if d.FailAllocate {
		return nil, core.ErrOutOfDeviceMemory
	}
	if budget := d.adapter.MemoryBudget; budget > 0 && d.used+size > budget {
		return nil, core.ErrOutOfDeviceMemory
	}
	d.used += size
	return &Memory{object: d.newObject("memory"), Size: size, TypeIndex: memoryTypeIndex, Data: make([]byte, size)}, nil
}

func (d *Device) FreeMemory(memory hal.Memory) {
	if m, ok := memory.(*Memory); ok && d.alive(m.id) {
		d.used -= m.Size
	}
	d.release(memory)
}

func (d *Device) alive(id core.ResourceID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.objects[id]
	return ok
}

func (d *Device) MapMemory(memory hal.Memory, offset, size uint64) ([]byte, error) {
	m := memory.(*Memory)
	if offset+size > m.Size {
		return nil, fmt.Errorf("haltest: map [%d,%d) outside %d bytes", offset, offset+size, m.Size)
	}
	m.Mapped = true
	return m.Data[offset : offset+size], nil
}

func (d *Device) UnmapMemory(memory hal.Memory) {
	memory.(*Memory).Mapped = false
}

type Buffer struct {
	object
	Desc   hal.BufferDescriptor
	Memory *Memory
	Offset uint64
}

// Bytes returns the backing bytes of a bound buffer.
func (b *Buffer) Bytes() []byte {
	return b.Memory.Data[b.Offset : b.Offset+b.Desc.Size]
}

func (d *Device) CreateBuffer(desc hal.BufferDescriptor) (hal.Buffer, error) {
	if d.FailCreateBuffer {
		return nil, core.ErrResourceCreation
	}
	return &Buffer{object: d.newObject("buffer"), Desc: desc}, nil
}

func (d *Device) DestroyBuffer(buffer hal.Buffer) { d.release(buffer) }

func (d *Device) allMemoryTypes() uint32 {
	return uint32(1)<<uint32(len(d.adapter.Types)) - 1
}

func (d *Device) BufferMemoryRequirements(buffer hal.Buffer) hal.MemoryRequirements {
	b := buffer.(*Buffer)
	return hal.MemoryRequirements{Size: b.Desc.Size, Alignment: d.adapter.BufferAlignment, MemoryTypeBits: d.allMemoryTypes()}
}

func (d *Device) BindBufferMemory(buffer hal.Buffer, memory hal.Memory, offset uint64) error {
	if d.FailBindBuffer {
		return core.ErrResourceCreation
	}
	b := buffer.(*Buffer)
	b.Memory = memory.(*Memory)
	b.Offset = offset
	return nil
}

type Image struct {
	object
	Desc   hal.ImageDescriptor
	Memory *Memory
	Offset uint64
	Layout hal.ImageLayout
	// CopyOffset is the source buffer offset of the last upload.
	CopyOffset uint64
	// Owned by a swapchain rather than created through CreateImage.
	Presentable bool
}

func (d *Device) CreateImage(desc hal.ImageDescriptor) (hal.Image, error) {
	if d.FailCreateImage {
		return nil, core.ErrResourceCreation
	}
	img := &Image{object: d.newObject("image"), Desc: desc}
	d.mu.Lock()
	d.Images[img.id] = desc
	d.mu.Unlock()
	return img, nil
}

func (d *Device) DestroyImage(image hal.Image) { d.release(image) }

func (d *Device) ImageMemoryRequirements(image hal.Image) hal.MemoryRequirements {
	img := image.(*Image)
	samples := uint64(img.Desc.Samples)
	if samples == 0 {
		samples = 1
	}
	size := uint64(img.Desc.Extent.Width) * uint64(img.Desc.Extent.Height) * 4 * samples
	return hal.MemoryRequirements{Size: size, Alignment: d.adapter.ImageAlignment, MemoryTypeBits: d.allMemoryTypes()}
}

func (d *Device) BindImageMemory(image hal.Image, memory hal.Memory, offset uint64) error {
	img := image.(*Image)
	img.Memory = memory.(*Memory)
	img.Offset = offset
	return nil
}

type ImageView struct {
	object
	Image  *Image
	Format hal.Format
	Aspect hal.ImageAspect
}

func (d *Device) CreateImageView(image hal.Image, format hal.Format, aspect hal.ImageAspect) (hal.ImageView, error) {
	return &ImageView{object: d.newObject("imageview"), Image: image.(*Image), Format: format, Aspect: aspect}, nil
}

func (d *Device) DestroyImageView(view hal.ImageView) { d.release(view) }

type Sampler struct {
	object
	Desc hal.SamplerDescriptor
}

func (d *Device) CreateSampler(desc hal.SamplerDescriptor) (hal.Sampler, error) {
	return &Sampler{object: d.newObject("sampler"), Desc: desc}, nil
}

func (d *Device) DestroySampler(sampler hal.Sampler) { d.release(sampler) }

type Swapchain struct {
	object
	Desc   hal.SwapchainDescriptor
	images []hal.Image
}

func (d *Device) CreateSwapchain(desc hal.SwapchainDescriptor) (hal.Swapchain, error) {
	sc := &Swapchain{object: d.newObject("swapchain"), Desc: desc}
	for i := uint32(0); i < desc.MinImageCount; i++ {
		sc.images = append(sc.images, &Image{
			object:      object{id: core.ResourceID(fmt.Sprintf("%s-image-%d", sc.id, i)), kind: "swapchain-image"},
			Desc:        hal.ImageDescriptor{Extent: desc.Extent, Format: desc.Format.Format, Samples: hal.SampleCount1},
			Presentable: true,
		})
	}
	d.log("CreateSwapchain %dx%d images=%d", desc.Extent.Width, desc.Extent.Height, desc.MinImageCount)
	return sc, nil
}

func (d *Device) DestroySwapchain(swapchain hal.Swapchain) {
	d.log("DestroySwapchain")
	d.release(swapchain)
}

func (d *Device) SwapchainImages(swapchain hal.Swapchain) ([]hal.Image, error) {
	return swapchain.(*Swapchain).images, nil
}

func (d *Device) AcquireNextImage(swapchain hal.Swapchain, signal hal.Semaphore) (uint32, bool, error) {
	n := d.acquires
	d.acquires++
	if d.StaleAcquire != nil && d.StaleAcquire(n) {
		d.log("AcquireNextImage stale")
		return 0, false, core.ErrStaleSurface
	}
	sc := swapchain.(*Swapchain)
	index := uint32(n) % uint32(len(sc.images))
	d.log("AcquireNextImage %d", index)
	return index, false, nil
}

type RenderPass struct {
	object
	Desc hal.RenderPassDescriptor
}

func (d *Device) CreateRenderPass(desc hal.RenderPassDescriptor) (hal.RenderPass, error) {
	return &RenderPass{object: d.newObject("renderpass"), Desc: desc}, nil
}

func (d *Device) DestroyRenderPass(renderPass hal.RenderPass) { d.release(renderPass) }

type Framebuffer struct {
	object
	Desc hal.FramebufferDescriptor
}

func (d *Device) CreateFramebuffer(desc hal.FramebufferDescriptor) (hal.Framebuffer, error) {
	fb := &Framebuffer{object: d.newObject("framebuffer"), Desc: desc}
	d.mu.Lock()
	d.Framebuffers[fb.id] = desc
	d.mu.Unlock()
	return fb, nil
}

func (d *Device) DestroyFramebuffer(framebuffer hal.Framebuffer) { d.release(framebuffer) }

type ShaderModule struct {
	object
	Code []uint32
}

func (d *Device) CreateShaderModule(code []uint32) (hal.ShaderModule, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("haltest: empty shader: %w", core.ErrResourceCreation)
	}
	return &ShaderModule{object: d.newObject("shader"), Code: code}, nil
}

func (d *Device) DestroyShaderModule(module hal.ShaderModule) { d.release(module) }

type DescriptorSetLayout struct {
	object
	Bindings []hal.DescriptorBinding
}

func (d *Device) CreateDescriptorSetLayout(bindings []hal.DescriptorBinding) (hal.DescriptorSetLayout, error) {
	return &DescriptorSetLayout{object: d.newObject("setlayout"), Bindings: bindings}, nil
}

func (d *Device) DestroyDescriptorSetLayout(layout hal.DescriptorSetLayout) { d.release(layout) }

type PipelineLayout struct {
	object
	SetLayouts []hal.DescriptorSetLayout
}

func (d *Device) CreatePipelineLayout(setLayouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	return &PipelineLayout{object: d.newObject("pipelinelayout"), SetLayouts: setLayouts}, nil
}

func (d *Device) DestroyPipelineLayout(layout hal.PipelineLayout) { d.release(layout) }

func (d *Device) CreateGraphicsPipeline(desc *hal.GraphicsPipelineDescriptor) (hal.Pipeline, error) {
	o := d.newObject("pipeline")
	p := &o
	copied := *desc
	d.mu.Lock()
	d.Pipelines[o.id] = &copied
	d.mu.Unlock()
	return p, nil
}

func (d *Device) DestroyPipeline(pipeline hal.Pipeline) { d.release(pipeline) }

// DescriptorPool enforces its capacities like a real pool would.
type DescriptorPool struct {
	object
	Desc         hal.DescriptorPoolDescriptor
	Sets         uint32
	Uniforms     uint32
	Samplers     uint32
	AllocatedIDs []core.ResourceID
}

func (d *Device) CreateDescriptorPool(desc hal.DescriptorPoolDescriptor) (hal.DescriptorPool, error) {
	return &DescriptorPool{object: d.newObject("descpool"), Desc: desc}, nil
}

func (d *Device) DestroyDescriptorPool(pool hal.DescriptorPool) {
	// sets die with their pool
	p := pool.(*DescriptorPool)
	for _, id := range p.AllocatedIDs {
		d.release(&object{id: id})
	}
	d.release(pool)
}

type DescriptorSet struct {
	object
	Layout *DescriptorSetLayout
}

func (d *Device) AllocateDescriptorSets(pool hal.DescriptorPool, layouts []hal.DescriptorSetLayout) ([]hal.DescriptorSet, error) {
	p := pool.(*DescriptorPool)
	sets, uniforms, samplers := p.Sets, p.Uniforms, p.Samplers
	for _, l := range layouts {
		sets++
		for _, b := range l.(*DescriptorSetLayout).Bindings {
			switch b.Type {
			case hal.DescriptorTypeUniformBuffer:
				uniforms++
			case hal.DescriptorTypeCombinedImageSampler:
				samplers++
			}
		}
	}
	if sets > p.Desc.MaxSets || uniforms > p.Desc.UniformBuffers || samplers > p.Desc.CombinedImageSamplers {
		return nil, fmt.Errorf("haltest: sets=%d/%d uniforms=%d/%d samplers=%d/%d: %w",
			sets, p.Desc.MaxSets, uniforms, p.Desc.UniformBuffers, samplers, p.Desc.CombinedImageSamplers, core.ErrDescriptorPoolExhausted)
	}
	p.Sets, p.Uniforms, p.Samplers = sets, uniforms, samplers

	out := make([]hal.DescriptorSet, len(layouts))
	for i, l := range layouts {
		s := &DescriptorSet{object: d.newObject("descset"), Layout: l.(*DescriptorSetLayout)}
		p.AllocatedIDs = append(p.AllocatedIDs, s.id)
		out[i] = s
	}
	return out, nil
}

func (d *Device) UpdateDescriptorSets(writes []hal.DescriptorWrite) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Writes = append(d.Writes, writes...)
}

func (d *Device) AllocateCommandBuffers(count uint32) ([]hal.CommandBuffer, error) {
	out := make([]hal.CommandBuffer, count)
	for i := range out {
		out[i] = &CommandBuffer{object: d.newObject("cmdbuf"), device: d}
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(buffers []hal.CommandBuffer) {
	for _, b := range buffers {
		d.release(b)
	}
}

type Semaphore struct{ object }

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	return &Semaphore{d.newObject("semaphore")}, nil
}

func (d *Device) DestroySemaphore(semaphore hal.Semaphore) { d.release(semaphore) }

type Fence struct {
	object
	Signaled bool
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	return &Fence{object: d.newObject("fence"), Signaled: signaled}, nil
}

func (d *Device) DestroyFence(fence hal.Fence) { d.release(fence) }

func (d *Device) WaitForFence(fence hal.Fence, timeoutNs uint64) error {
	d.log("WaitForFence %s", fence.ID())
	if d.OnWaitForFence != nil {
		d.OnWaitForFence(fence)
	}
	if !fence.(*Fence).Signaled {
		return errNotSignaled
	}
	return nil
}

func (d *Device) ResetFence(fence hal.Fence) error {
	d.log("ResetFence %s", fence.ID())
	fence.(*Fence).Signaled = false
	return nil
}

func (d *Device) WaitIdle() error {
	d.log("WaitIdle")
	return nil
}

func (d *Device) Destroy() {
	d.log("DestroyDevice")
}

type Queue struct {
	device *Device
	name   string
}

// Submit runs the recorded transfer commands and signals the fence at once.
func (q *Queue) Submit(info hal.SubmitInfo, fence hal.Fence) error {
	cb := info.CommandBuffer.(*CommandBuffer)
	q.device.log("Submit %s", cb.id)
	for _, run := range cb.transfers {
		run()
	}
	if fence != nil {
		fence.(*Fence).Signaled = true
	}
	return nil
}

func (q *Queue) Present(info hal.PresentInfo) (bool, error) {
	d := q.device
	n := d.presents
	d.presents++
	if d.StalePresent != nil && d.StalePresent(n) {
		d.log("Present %d stale", info.ImageIndex)
		return false, core.ErrStaleSurface
	}
	if d.PresentError != nil {
		if err := d.PresentError(n); err != nil {
			d.log("Present %d failed", info.ImageIndex)
			return false, err
		}
	}
	d.log("Present %d", info.ImageIndex)
	return false, nil
}

func (q *Queue) WaitIdle() error {
	q.device.log("QueueWaitIdle %s", q.name)
	return nil
}

// CommandBuffer records a readable trace of every command.
type CommandBuffer struct {
	object
	device    *Device
	Commands  []string
	Recording bool
	transfers []func()
}

func (c *CommandBuffer) record(format string, args ...interface{}) {
	c.Commands = append(c.Commands, fmt.Sprintf(format, args...))
}

func (c *CommandBuffer) Reset() error {
	c.Commands = nil
	c.transfers = nil
	c.Recording = false
	return nil
}

func (c *CommandBuffer) Begin(oneTimeSubmit bool) error {
	if c.Recording {
		return errors.New("haltest: Begin on a recording command buffer")
	}
	c.Recording = true
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.Recording {
		return errors.New("haltest: End without Begin")
	}
	c.Recording = false
	return nil
}

func (c *CommandBuffer) BeginRenderPass(renderPass hal.RenderPass, framebuffer hal.Framebuffer, extent hal.Extent2D, clear hal.ClearValues) {
	c.record("BeginRenderPass %s %dx%d color=%v depth=%v", framebuffer.ID(), extent.Width, extent.Height, clear.Color, clear.Depth)
}

func (c *CommandBuffer) EndRenderPass() { c.record("EndRenderPass") }

func (c *CommandBuffer) SetViewport(extent hal.Extent2D) {
	c.record("SetViewport %dx%d", extent.Width, extent.Height)
}

func (c *CommandBuffer) SetScissor(extent hal.Extent2D) {
	c.record("SetScissor %dx%d", extent.Width, extent.Height)
}

func (c *CommandBuffer) BindPipeline(pipeline hal.Pipeline) {
	c.record("BindPipeline %s", pipeline.ID())
}

func (c *CommandBuffer) BindVertexBuffer(binding uint32, buffer hal.Buffer, offset uint64) {
	c.record("BindVertexBuffer %d %s %d", binding, buffer.ID(), offset)
}

func (c *CommandBuffer) BindIndexBuffer(buffer hal.Buffer, offset uint64) {
	c.record("BindIndexBuffer %s %d", buffer.ID(), offset)
}

func (c *CommandBuffer) BindDescriptorSets(layout hal.PipelineLayout, firstSet uint32, sets []hal.DescriptorSet) {
	ids := make([]string, len(sets))
	for i, s := range sets {
		ids[i] = string(s.ID())
	}
	c.record("BindDescriptorSets %d %v", firstSet, ids)
}

func (c *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32) {
	c.record("DrawIndexed %d %d %d", indexCount, firstIndex, vertexOffset)
}

func (c *CommandBuffer) CopyBuffer(src, dst hal.Buffer, size uint64) {
	c.record("CopyBuffer %s %s %d", src.ID(), dst.ID(), size)
	s, t := src.(*Buffer), dst.(*Buffer)
	c.transfers = append(c.transfers, func() {
		copy(t.Bytes()[:size], s.Bytes()[:size])
	})
}

func (c *CommandBuffer) CopyBufferToImage(src hal.Buffer, srcOffset uint64, dst hal.Image, extent hal.Extent2D) {
	c.record("CopyBufferToImage %s %d %s %dx%d", src.ID(), srcOffset, dst.ID(), extent.Width, extent.Height)
	img := dst.(*Image)
	c.transfers = append(c.transfers, func() { img.CopyOffset = srcOffset })
}

func (c *CommandBuffer) TransitionImageLayout(image hal.Image, from, to hal.ImageLayout) {
	c.record("TransitionImageLayout %s %d->%d", image.ID(), from, to)
	img := image.(*Image)
	c.transfers = append(c.transfers, func() { img.Layout = to })
}
