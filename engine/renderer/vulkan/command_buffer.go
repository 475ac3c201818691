package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type CommandBuffer struct {
	id     core.ResourceID
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func (cb *CommandBuffer) ID() core.ResourceID { return cb.id }

// AllocateCommandBuffers allocates primary buffers from the graphics pool.
func (d *VulkanDevice) AllocateCommandBuffers(count uint32) ([]hal.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.GraphicsCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	handles := make([]vk.CommandBuffer, count)
	if err := d.locks.SafeCall(CommandPoolManagement, func() error {
		return check(vk.AllocateCommandBuffers(d.LogicalDevice, &allocateInfo, handles), "vkAllocateCommandBuffers")
	}); err != nil {
		return nil, err
	}
	out := make([]hal.CommandBuffer, count)
	for i, h := range handles {
		out[i] = &CommandBuffer{
			id:     core.NewResourceID("cmdbuf"),
			Handle: h,
			State:  COMMAND_BUFFER_STATE_READY,
		}
	}
	return out, nil
}

func (d *VulkanDevice) FreeCommandBuffers(buffers []hal.CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if cb, ok := b.(*CommandBuffer); ok && cb.State != COMMAND_BUFFER_STATE_NOT_ALLOCATED {
			handles = append(handles, cb.Handle)
			cb.Handle = nil
			cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
		}
	}
	if len(handles) == 0 {
		return
	}
	_ = d.locks.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(d.LogicalDevice, d.GraphicsCommandPool, uint32(len(handles)), handles)
		return nil
	})
}

func (cb *CommandBuffer) Reset() error {
	if err := check(vk.ResetCommandBuffer(cb.Handle, 0), "vkResetCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (cb *CommandBuffer) Begin(oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if err := check(vk.BeginCommandBuffer(cb.Handle, &beginInfo), "vkBeginCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (cb *CommandBuffer) End() error {
	if err := check(vk.EndCommandBuffer(cb.Handle), "vkEndCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (cb *CommandBuffer) BeginRenderPass(renderPass hal.RenderPass, framebuffer hal.Framebuffer, extent hal.Extent2D, clear hal.ClearValues) {
	// One value per attachment slot; the resolve slot is cleared only when
	// it is the color attachment.
	clearValues := make([]vk.ClearValue, 3)
	clearValues[colorAttachmentIndex].SetColor(clear.Color[:])
	clearValues[depthAttachmentIndex].SetDepthStencil(clear.Depth, clear.Stencil)
	clearValues[resolveAttachmentIndex].SetColor(clear.Color[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  raw[vk.RenderPass](renderPass),
		Framebuffer: raw[vk.Framebuffer](framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extentToVk(extent),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (cb *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = COMMAND_BUFFER_STATE_RECORDING
}

func (cb *CommandBuffer) SetViewport(extent hal.Extent2D) {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
}

func (cb *CommandBuffer) SetScissor(extent hal.Extent2D) {
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extentToVk(extent),
	}
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})
}

func (cb *CommandBuffer) BindPipeline(pipeline hal.Pipeline) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, raw[vk.Pipeline](pipeline))
}

func (cb *CommandBuffer) BindVertexBuffer(binding uint32, buffer hal.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(cb.Handle, binding, 1, []vk.Buffer{raw[vk.Buffer](buffer)}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (cb *CommandBuffer) BindIndexBuffer(buffer hal.Buffer, offset uint64) {
	vk.CmdBindIndexBuffer(cb.Handle, raw[vk.Buffer](buffer), vk.DeviceSize(offset), vk.IndexTypeUint32)
}

func (cb *CommandBuffer) BindDescriptorSets(layout hal.PipelineLayout, firstSet uint32, sets []hal.DescriptorSet) {
	handles := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		handles[i] = raw[vk.DescriptorSet](s)
	}
	vk.CmdBindDescriptorSets(
		cb.Handle,
		vk.PipelineBindPointGraphics,
		raw[vk.PipelineLayout](layout),
		firstSet,
		uint32(len(handles)),
		handles,
		0,
		nil,
	)
}

func (cb *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32) {
	vk.CmdDrawIndexed(cb.Handle, indexCount, 1, firstIndex, vertexOffset, 0)
}

func (cb *CommandBuffer) CopyBuffer(src, dst hal.Buffer, size uint64) {
	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cb.Handle, raw[vk.Buffer](src), raw[vk.Buffer](dst), 1, []vk.BufferCopy{copyRegion})
}

func (cb *CommandBuffer) CopyBufferToImage(src hal.Buffer, srcOffset uint64, dst hal.Image, extent hal.Extent2D) {
	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(srcOffset),
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(
		cb.Handle,
		raw[vk.Buffer](src),
		rawImage(dst),
		vk.ImageLayoutTransferDstOptimal,
		1,
		[]vk.BufferImageCopy{region},
	)
}

// TransitionImageLayout records a barrier for the transitions the renderer
// uses. Anything else is logged and skipped.
func (cb *CommandBuffer) TransitionImageLayout(img hal.Image, from, to hal.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayout(from),
		NewLayout:           vk.ImageLayout(to),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               rawImage(img),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     transitionAspect(img, to),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case from == hal.ImageLayoutUndefined && to == hal.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case from == hal.ImageLayoutTransferDstOptimal && to == hal.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)

	case from == hal.ImageLayoutUndefined && to == hal.ImageLayoutDepthStencilAttachmentOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)

	case from == hal.ImageLayoutUndefined && to == hal.ImageLayoutColorAttachmentOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessColorAttachmentReadBit) |
			vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)

	default:
		core.LogError("unsupported layout transition %d -> %d", from, to)
		return
	}

	vk.CmdPipelineBarrier(
		cb.Handle,
		srcStage, dstStage,
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier},
	)
}

func transitionAspect(img hal.Image, to hal.ImageLayout) vk.ImageAspectFlags {
	if to != hal.ImageLayoutDepthStencilAttachmentOptimal {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if i, ok := img.(*image); ok && i.Format.HasStencil() {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

var _ hal.CommandBuffer = (*CommandBuffer)(nil)
