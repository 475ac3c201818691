package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

func (d *VulkanDevice) CreateSwapchain(desc hal.SwapchainDescriptor) (hal.Swapchain, error) {
	surface := raw[vk.Surface](desc.Surface)
	caps, err := d.adapter.surfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    desc.MinImageCount,
		ImageFormat:      vk.Format(desc.Format.Format),
		ImageColorSpace:  vk.ColorSpace(desc.Format.ColorSpace),
		ImageExtent:      extentToVk(desc.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(desc.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Images are shared between the graphics and present families only when
	// those differ.
	if len(desc.QueueFamilies) > 1 {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = uint32(len(desc.QueueFamilies))
		swapchainCreateInfo.PQueueFamilyIndices = desc.QueueFamilies
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if err := check(vk.CreateSwapchain(d.LogicalDevice, &swapchainCreateInfo, d.Allocator, &handle), "vkCreateSwapchainKHR"); err != nil {
		return nil, err
	}
	sc := &swapchain{id: core.NewResourceID("swapchain"), Handle: handle, Format: desc.Format.Format}

	var imageCount uint32
	if err := check(vk.GetSwapchainImages(d.LogicalDevice, handle, &imageCount, nil), "vkGetSwapchainImagesKHR"); err != nil {
		d.DestroySwapchain(sc)
		return nil, err
	}
	images := make([]vk.Image, imageCount)
	if err := check(vk.GetSwapchainImages(d.LogicalDevice, handle, &imageCount, images), "vkGetSwapchainImagesKHR"); err != nil {
		d.DestroySwapchain(sc)
		return nil, err
	}
	for _, img := range images[:imageCount] {
		sc.images = append(sc.images, &image{
			id:     core.NewResourceID("swapchain-image"),
			Handle: img,
			Format: sc.Format,
		})
	}
	return sc, nil
}

func (d *VulkanDevice) DestroySwapchain(s hal.Swapchain) {
	sc, ok := s.(*swapchain)
	if !ok || sc == nil || sc.Handle == vk.NullSwapchain {
		return
	}
	vk.DestroySwapchain(d.LogicalDevice, sc.Handle, d.Allocator)
	sc.Handle = vk.NullSwapchain
	sc.images = nil
}

func (d *VulkanDevice) SwapchainImages(s hal.Swapchain) ([]hal.Image, error) {
	sc, ok := s.(*swapchain)
	if !ok || sc == nil {
		return nil, fmt.Errorf("swapchain images of a foreign handle: %w", core.ErrUnknown)
	}
	return sc.images, nil
}

func (d *VulkanDevice) AcquireNextImage(s hal.Swapchain, signal hal.Semaphore) (uint32, bool, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(
		d.LogicalDevice,
		rawSwapchain(s),
		math.MaxUint64,
		raw[vk.Semaphore](signal),
		vk.NullFence,
		&imageIndex,
	)
	if result == vk.Suboptimal {
		return imageIndex, true, nil
	}
	if err := check(result, "vkAcquireNextImageKHR"); err != nil {
		return 0, false, err
	}
	return imageIndex, false, nil
}
