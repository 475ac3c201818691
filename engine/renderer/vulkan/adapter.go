package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Adapter is one physical device. Properties, features and memory types are
// read once when the adapter is enumerated.
type Adapter struct {
	instance *Instance
	Handle   vk.PhysicalDevice

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties
}

func newAdapter(instance *Instance, pd vk.PhysicalDevice) *Adapter {
	a := &Adapter{instance: instance, Handle: pd}

	vk.GetPhysicalDeviceProperties(pd, &a.Properties)
	a.Properties.Deref()
	a.Properties.Limits.Deref()

	vk.GetPhysicalDeviceFeatures(pd, &a.Features)
	a.Features.Deref()

	vk.GetPhysicalDeviceMemoryProperties(pd, &a.Memory)
	a.Memory.Deref()
	for i := uint32(0); i < a.Memory.MemoryTypeCount; i++ {
		a.Memory.MemoryTypes[i].Deref()
	}
	return a
}

func (a *Adapter) Name() string {
	return vk.ToString(a.Properties.DeviceName[:])
}

func (a *Adapter) Limits() hal.Limits {
	l := a.Properties.Limits
	return hal.Limits{
		MinUniformBufferOffsetAlignment: uint64(l.MinUniformBufferOffsetAlignment),
		FramebufferColorSampleCounts:    hal.SampleCount(l.FramebufferColorSampleCounts),
		FramebufferDepthSampleCounts:    hal.SampleCount(l.FramebufferDepthSampleCounts),
		MaxSamplerAnisotropy:            l.MaxSamplerAnisotropy,
	}
}

func (a *Adapter) MemoryTypes() []hal.MemoryType {
	out := make([]hal.MemoryType, a.Memory.MemoryTypeCount)
	for i := range out {
		t := a.Memory.MemoryTypes[i]
		out[i] = hal.MemoryType{
			PropertyFlags: hal.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		}
	}
	return out
}

func (a *Adapter) QueueFamilies(surface hal.Surface) []hal.QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(a.Handle, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(a.Handle, &count, props)

	s := raw[vk.Surface](surface)
	out := make([]hal.QueueFamily, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		family := hal.QueueFamily{
			Index:    uint32(i),
			Graphics: props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		}
		var supported vk.Bool32
		res := vk.GetPhysicalDeviceSurfaceSupport(a.Handle, uint32(i), s, &supported)
		if err := check(res, "vkGetPhysicalDeviceSurfaceSupport"); err != nil {
			core.LogWarn("error querying surface support for queue family %d: %s", i, err)
		} else {
			family.Present = supported == vk.True
		}
		out = append(out, family)
	}
	return out
}

func (a *Adapter) Extensions() []string {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(a.Handle, "", &count, nil); res != vk.Success {
		core.LogWarn("enumerating device extensions of %s: %s", a.Name(), VulkanResultString(res))
		return nil
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(a.Handle, "", &count, props); res != vk.Success {
		core.LogWarn("enumerating device extensions of %s: %s", a.Name(), VulkanResultString(res))
		return nil
	}
	out := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		out = append(out, vk.ToString(props[i].ExtensionName[:]))
	}
	return out
}

func (a *Adapter) SupportsSamplerAnisotropy() bool {
	return a.Features.SamplerAnisotropy == vk.True
}

func (a *Adapter) SurfaceFormats(surface hal.Surface) []hal.SurfaceFormat {
	s := raw[vk.Surface](surface)
	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(a.Handle, s, &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	formats := make([]vk.SurfaceFormat, count)
	vk.GetPhysicalDeviceSurfaceFormats(a.Handle, s, &count, formats)

	out := make([]hal.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, hal.SurfaceFormat{
			Format:     hal.Format(f.Format),
			ColorSpace: hal.ColorSpace(f.ColorSpace),
		})
	}
	return out
}

func (a *Adapter) PresentModes(surface hal.Surface) []hal.PresentMode {
	s := raw[vk.Surface](surface)
	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(a.Handle, s, &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	modes := make([]vk.PresentMode, count)
	vk.GetPhysicalDeviceSurfacePresentModes(a.Handle, s, &count, modes)

	out := make([]hal.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, hal.PresentMode(m))
	}
	return out
}

func (a *Adapter) surfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(a.Handle, surface, &caps)
	if err := check(res, "vkGetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (a *Adapter) SurfaceCapabilities(surface hal.Surface) (hal.SurfaceCapabilities, error) {
	caps, err := a.surfaceCapabilities(raw[vk.Surface](surface))
	if err != nil {
		return hal.SurfaceCapabilities{}, err
	}
	return hal.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  extentFromVk(caps.CurrentExtent),
		MinImageExtent: extentFromVk(caps.MinImageExtent),
		MaxImageExtent: extentFromVk(caps.MaxImageExtent),
	}, nil
}

func (a *Adapter) FormatFeatures(format hal.Format) hal.FormatFeature {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(a.Handle, vk.Format(format), &props)
	props.Deref()
	return hal.FormatFeature(props.OptimalTilingFeatures)
}

// Open creates the logical device with one queue per distinct family.
func (a *Adapter) Open(desc hal.DeviceDescriptor) (hal.Device, error) {
	core.LogInfo("Creating logical device on %s...", a.Name())

	families := []uint32{desc.GraphicsFamily}
	if desc.PresentFamily != desc.GraphicsFamily {
		families = append(families, desc.PresentFamily)
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions := append([]string{}, desc.Extensions...)
	for _, ext := range a.Extensions() {
		if ext == "VK_KHR_portability_subset" {
			core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
			extensions = append(extensions, ext)
			break
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vkBool(desc.SamplerAnisotropy),
		}},
	}

	var logical vk.Device
	if err := check(vk.CreateDevice(a.Handle, &deviceCreateInfo, a.instance.Allocator, &logical), "vkCreateDevice"); err != nil {
		return nil, fmt.Errorf("failed to create logical device: %w", err)
	}
	core.LogInfo("Logical device created.")

	device, err := newDevice(a, logical, desc)
	if err != nil {
		return nil, err
	}
	return device, nil
}

func extentFromVk(e vk.Extent2D) hal.Extent2D {
	return hal.Extent2D{Width: e.Width, Height: e.Height}
}

func extentToVk(e hal.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

var _ hal.Adapter = (*Adapter)(nil)
