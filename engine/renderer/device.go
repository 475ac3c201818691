package renderer

import (
	"fmt"
	gomath "math"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Device wraps the chosen adapter and its logical device. It is created
// first and destroyed last.
type Device struct {
	Adapter hal.Adapter
	Handle  hal.Device

	GraphicsFamily uint32
	PresentFamily  uint32
	GraphicsQueue  hal.Queue
	PresentQueue   hal.Queue

	Limits      hal.Limits
	memoryTypes []hal.MemoryType
}

type queueFamilyIndices struct {
	graphics, present       uint32
	hasGraphics, hasPresent bool
}

func (q queueFamilyIndices) complete() bool {
	return q.hasGraphics && q.hasPresent
}

// findQueueFamilies prefers a single family that does both graphics and
// present and falls back to two separate ones.
func findQueueFamilies(families []hal.QueueFamily) queueFamilyIndices {
	var out queueFamilyIndices
	for _, f := range families {
		if f.Graphics && f.Present {
			return queueFamilyIndices{graphics: f.Index, present: f.Index, hasGraphics: true, hasPresent: true}
		}
	}
	for _, f := range families {
		if f.Graphics && !out.hasGraphics {
			out.graphics, out.hasGraphics = f.Index, true
		}
		if f.Present && !out.hasPresent {
			out.present, out.hasPresent = f.Index, true
		}
	}
	return out
}

func adapterMeetsRequirements(adapter hal.Adapter, surface hal.Surface, extensions []string) (queueFamilyIndices, bool) {
	families := findQueueFamilies(adapter.QueueFamilies(surface))
	if !families.complete() {
		core.LogDebug("Adapter '%s' lacks a graphics or present queue, skipping.", adapter.Name())
		return families, false
	}
	available := adapter.Extensions()
	for _, ext := range extensions {
		if !slices.Contains(available, ext) {
			core.LogDebug("Adapter '%s' lacks extension %s, skipping.", adapter.Name(), ext)
			return families, false
		}
	}
	if len(adapter.SurfaceFormats(surface)) == 0 || len(adapter.PresentModes(surface)) == 0 {
		core.LogDebug("Adapter '%s' has no surface formats or present modes, skipping.", adapter.Name())
		return families, false
	}
	if !adapter.SupportsSamplerAnisotropy() {
		core.LogDebug("Adapter '%s' does not support sampler anisotropy, skipping.", adapter.Name())
		return families, false
	}
	return families, true
}

// SelectDevice opens the first adapter, in enumeration order, that can
// render to surface.
func SelectDevice(instance hal.Instance, surface hal.Surface, cfg core.RendererConfig) (*Device, error) {
	adapters, err := instance.Adapters()
	if err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no GPU with Vulkan support: %w", core.ErrUnsupportedConfiguration)
	}

	for _, adapter := range adapters {
		families, ok := adapterMeetsRequirements(adapter, surface, cfg.DeviceExtensions)
		if !ok {
			continue
		}
		core.LogInfo("Selected adapter '%s'.", adapter.Name())
		handle, err := adapter.Open(hal.DeviceDescriptor{
			GraphicsFamily:    families.graphics,
			PresentFamily:     families.present,
			Extensions:        cfg.DeviceExtensions,
			SamplerAnisotropy: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open adapter %s: %w", adapter.Name(), err)
		}
		core.LogInfo("Logical device created.")
		return &Device{
			Adapter:        adapter,
			Handle:         handle,
			GraphicsFamily: families.graphics,
			PresentFamily:  families.present,
			GraphicsQueue:  handle.GraphicsQueue(),
			PresentQueue:   handle.PresentQueue(),
			Limits:         adapter.Limits(),
			memoryTypes:    adapter.MemoryTypes(),
		}, nil
	}
	return nil, fmt.Errorf("no adapter meets the requirements: %w", core.ErrUnsupportedConfiguration)
}

// FindMemoryType returns the first memory type allowed by typeBits that has
// every flag in props.
func (d *Device) FindMemoryType(typeBits uint32, props hal.MemoryPropertyFlags) (uint32, error) {
	for i, t := range d.memoryTypes {
		if typeBits&(1<<uint32(i)) != 0 && t.PropertyFlags&props == props {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("no memory type for bits %#x with properties %#x: %w", typeBits, props, core.ErrUnsupportedConfiguration)
}

// AlignUp rounds size up to the uniform buffer offset alignment.
func (d *Device) AlignUp(size uint64) uint64 {
	return math.AlignUp(size, d.Limits.MinUniformBufferOffsetAlignment)
}

// QueueFamilies lists the distinct families the swapchain images are shared by.
func (d *Device) QueueFamilies() []uint32 {
	if d.GraphicsFamily == d.PresentFamily {
		return []uint32{d.GraphicsFamily}
	}
	return []uint32{d.GraphicsFamily, d.PresentFamily}
}

// SubmitOnce records a command buffer with record, submits it to the
// graphics queue and waits for it to finish.
func (d *Device) SubmitOnce(record func(cb hal.CommandBuffer)) error {
	cbs, err := d.Handle.AllocateCommandBuffers(1)
	if err != nil {
		return err
	}
	defer d.Handle.FreeCommandBuffers(cbs)
	cb := cbs[0]

	if err := cb.Begin(true); err != nil {
		return err
	}
	record(cb)
	if err := cb.End(); err != nil {
		return err
	}

	fence, err := d.Handle.CreateFence(false)
	if err != nil {
		return err
	}
	defer d.Handle.DestroyFence(fence)

	if err := d.GraphicsQueue.Submit(hal.SubmitInfo{CommandBuffer: cb}, fence); err != nil {
		return err
	}
	return d.Handle.WaitForFence(fence, gomath.MaxUint64)
}

func (d *Device) WaitIdle() error {
	return d.Handle.WaitIdle()
}

func (d *Device) Destroy() {
	if d.Handle == nil {
		return
	}
	core.LogInfo("Destroying logical device...")
	d.Handle.Destroy()
	d.Handle = nil
	d.GraphicsQueue = nil
	d.PresentQueue = nil
}
