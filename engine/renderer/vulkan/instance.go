// Package vulkan implements the hal interfaces on top of goki/vulkan.
package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

type Instance struct {
	Handle    vk.Instance
	Allocator *vk.AllocationCallbacks

	debugCallback vk.DebugReportCallback
}

// NewInstance loads the Vulkan entry points through GLFW and creates the
// instance. requiredExtensions are the window system's surface extensions.
// GLFW must already be initialized.
func NewInstance(appName string, cfg core.RendererConfig, requiredExtensions []string) (*Instance, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil: %w", core.ErrUnsupportedConfiguration)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vk: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := append([]string{}, requiredExtensions...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if cfg.EnableValidation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		if err := checkValidationLayers(cfg.ValidationLayers); err != nil {
			return nil, err
		}
		layers = cfg.ValidationLayers
	}
	for _, ext := range extensions {
		core.LogDebug("Required instance extension: %s", ext)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	inst := &Instance{}
	if err := check(vk.CreateInstance(&createInfo, inst.Allocator, &inst.Handle), "vkCreateInstance"); err != nil {
		core.LogError("failed in creating the Vulkan Instance: %s", err)
		return nil, err
	}
	if err := vk.InitInstance(inst.Handle); err != nil {
		vk.DestroyInstance(inst.Handle, inst.Allocator)
		return nil, err
	}
	core.LogInfo("Vulkan Instance created.")

	if cfg.EnableValidation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := check(vk.CreateDebugReportCallback(inst.Handle, &debugCreateInfo, inst.Allocator, &dbg), "vkCreateDebugReportCallback"); err != nil {
			// Validation output is lost but rendering still works.
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			inst.debugCallback = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return inst, nil
}

func checkValidationLayers(required []string) error {
	core.LogInfo("Validation layers enabled. Enumerating...")
	var count uint32
	if err := check(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return err
	}
	available := make([]vk.LayerProperties, count)
	if err := check(vk.EnumerateInstanceLayerProperties(&count, available), "vkEnumerateInstanceLayerProperties"); err != nil {
		return err
	}

	names := make(map[string]bool, count)
	for i := range available {
		available[i].Deref()
		names[vk.ToString(available[i].LayerName[:])] = true
	}
	for _, layer := range required {
		if !names[layer] {
			return fmt.Errorf("required validation layer %s is missing: %w", layer, core.ErrUnsupportedConfiguration)
		}
		core.LogDebug("Found validation layer %s.", layer)
	}
	return nil
}

// CreateSurface wraps the window's presentation surface.
func (i *Instance) CreateSurface(window *glfw.Window) (hal.Surface, error) {
	ptr, err := window.CreateWindowSurface(i.Handle, nil)
	if err != nil {
		return nil, fmt.Errorf("vulkan surface creation failed: %v: %w", err, core.ErrResourceCreation)
	}
	core.LogDebug("Vulkan surface created.")
	return wrap("surface", vk.SurfaceFromPointer(ptr)), nil
}

func (i *Instance) DestroySurface(surface hal.Surface) {
	if s := raw[vk.Surface](surface); s != vk.NullSurface {
		vk.DestroySurface(i.Handle, s, i.Allocator)
	}
}

// Adapters lists every physical device the driver exposes.
func (i *Instance) Adapters() ([]hal.Adapter, error) {
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(i.Handle, &count, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(i.Handle, &count, devices), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	out := make([]hal.Adapter, 0, count)
	for _, pd := range devices[:count] {
		out = append(out, newAdapter(i, pd))
	}
	return out, nil
}

func (i *Instance) Destroy() {
	if i.Handle == nil {
		return
	}
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, i.Allocator)
		i.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(i.Handle, i.Allocator)
	i.Handle = nil
	core.LogInfo("Vulkan Instance destroyed.")
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

var _ hal.Instance = (*Instance)(nil)
