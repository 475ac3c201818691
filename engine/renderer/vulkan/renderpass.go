package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Attachment slots shared by the render pass and every framebuffer built
// for it.
const (
	colorAttachmentIndex   = 0
	depthAttachmentIndex   = 1
	resolveAttachmentIndex = 2
)

// CreateRenderPass builds the single forward pass. With more than one
// sample the multisampled color attachment resolves into the swapchain
// image; with one sample the swapchain image is drawn to directly and the
// color slot is left unused.
func (d *VulkanDevice) CreateRenderPass(desc hal.RenderPassDescriptor) (hal.RenderPass, error) {
	samples := vk.SampleCountFlagBits(desc.Samples)
	multisampled := desc.Samples > hal.SampleCount1

	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(desc.ColorFormat),
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}
	if !multisampled {
		colorAttachment.LoadOp = vk.AttachmentLoadOpDontCare
	}

	depthAttachment := vk.AttachmentDescription{
		Format:         vk.Format(desc.DepthFormat),
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	// Transitioned to present after the pass.
	resolveAttachment := vk.AttachmentDescription{
		Format:         vk.Format(desc.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	depthAttachmentReference := vk.AttachmentReference{
		Attachment: depthAttachmentIndex,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PDepthStencilAttachment: &depthAttachmentReference,
	}
	if multisampled {
		subpass.PColorAttachments = []vk.AttachmentReference{{
			Attachment: colorAttachmentIndex,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: resolveAttachmentIndex,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	} else {
		resolveAttachment.LoadOp = vk.AttachmentLoadOpClear
		subpass.PColorAttachments = []vk.AttachmentReference{{
			Attachment: resolveAttachmentIndex,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	dependency := externalDependency()

	attachments := []vk.AttachmentDescription{colorAttachment, depthAttachment, resolveAttachment}
	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var rp vk.RenderPass
	if err := check(vk.CreateRenderPass(d.LogicalDevice, &renderPassCreateInfo, d.Allocator, &rp), "vkCreateRenderPass"); err != nil {
		return nil, err
	}
	return wrap("renderpass", rp), nil
}

func (d *VulkanDevice) DestroyRenderPass(renderPass hal.RenderPass) {
	if rp := raw[vk.RenderPass](renderPass); rp != vk.NullRenderPass {
		vk.DestroyRenderPass(d.LogicalDevice, rp, d.Allocator)
	}
}

func (d *VulkanDevice) CreateFramebuffer(desc hal.FramebufferDescriptor) (hal.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(desc.Attachments))
	for i, view := range desc.Attachments {
		attachments[i] = raw[vk.ImageView](view)
	}
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      raw[vk.RenderPass](desc.RenderPass),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           desc.Extent.Width,
		Height:          desc.Extent.Height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if err := check(vk.CreateFramebuffer(d.LogicalDevice, &framebufferCreateInfo, d.Allocator, &fb), "vkCreateFramebuffer"); err != nil {
		return nil, err
	}
	return wrap("framebuffer", fb), nil
}

func (d *VulkanDevice) DestroyFramebuffer(framebuffer hal.Framebuffer) {
	if fb := raw[vk.Framebuffer](framebuffer); fb != vk.Framebuffer(vk.NullHandle) {
		vk.DestroyFramebuffer(d.LogicalDevice, fb, d.Allocator)
	}
}

// externalDependency orders the pass after earlier work on the same
// attachments.
func externalDependency() vk.SubpassDependency {
	return vk.SubpassDependency{
		SrcSubpass: vk.SubpassExternal,
		DstSubpass: 0,
		// The depth image is shared by all frames in flight, so the previous
		// frame's depth writes must finish before this frame clears it.
		SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) |
			vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		DstStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
	}
}
