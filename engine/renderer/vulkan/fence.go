package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

func (d *VulkanDevice) CreateSemaphore() (hal.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := check(vk.CreateSemaphore(d.LogicalDevice, &semaphoreCreateInfo, d.Allocator, &sem), "vkCreateSemaphore"); err != nil {
		return nil, err
	}
	return wrap("semaphore", sem), nil
}

func (d *VulkanDevice) DestroySemaphore(semaphore hal.Semaphore) {
	if s := raw[vk.Semaphore](semaphore); s != vk.NullSemaphore {
		vk.DestroySemaphore(d.LogicalDevice, s, d.Allocator)
	}
}

func (d *VulkanDevice) CreateFence(signaled bool) (hal.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check(vk.CreateFence(d.LogicalDevice, &fenceCreateInfo, d.Allocator, &fence), "vkCreateFence"); err != nil {
		return nil, err
	}
	return wrap("fence", fence), nil
}

func (d *VulkanDevice) DestroyFence(fence hal.Fence) {
	if f := raw[vk.Fence](fence); f != vk.NullFence {
		vk.DestroyFence(d.LogicalDevice, f, d.Allocator)
	}
}

func (d *VulkanDevice) WaitForFence(fence hal.Fence, timeoutNs uint64) error {
	result := vk.WaitForFences(d.LogicalDevice, 1, []vk.Fence{raw[vk.Fence](fence)}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return fmt.Errorf("fence %s: %s: %w", fence.ID(), VulkanResultString(result), core.ErrUnknown)
	default:
		core.LogError("vk_fence_wait - %s", VulkanResultString(result))
		return check(result, "vkWaitForFences")
	}
}

func (d *VulkanDevice) ResetFence(fence hal.Fence) error {
	return check(vk.ResetFences(d.LogicalDevice, 1, []vk.Fence{raw[vk.Fence](fence)}), "vkResetFences")
}

// Queue serializes submission through the device lock pool, since graphics
// and present may be the same VkQueue.
type Queue struct {
	name   string
	Handle vk.Queue
	family uint32
	locks  *VulkanLockPool
}

func (q *Queue) Submit(info hal.SubmitInfo, fence hal.Fence) error {
	cb, ok := info.CommandBuffer.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("submit on %s queue: foreign command buffer: %w", q.name, core.ErrUnknown)
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if wait := raw[vk.Semaphore](info.WaitSemaphore); wait != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signal := raw[vk.Semaphore](info.SignalSemaphore); signal != vk.NullSemaphore {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal}
	}

	err := q.locks.SafeQueueCall(q.family, func() error {
		return check(vk.QueueSubmit(q.Handle, 1, []vk.SubmitInfo{submitInfo}, raw[vk.Fence](fence)), "vkQueueSubmit")
	})
	if err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

func (q *Queue) Present(info hal.PresentInfo) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{rawSwapchain(info.Swapchain)},
		PImageIndices:  []uint32{info.ImageIndex},
	}
	if wait := raw[vk.Semaphore](info.WaitSemaphore); wait != vk.NullSemaphore {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{wait}
	}

	var result vk.Result
	_ = q.locks.SafeQueueCall(q.family, func() error {
		result = vk.QueuePresent(q.Handle, &presentInfo)
		return nil
	})
	if result == vk.Suboptimal {
		return true, nil
	}
	return false, check(result, "vkQueuePresentKHR")
}

func (q *Queue) WaitIdle() error {
	return q.locks.SafeQueueCall(q.family, func() error {
		return check(vk.QueueWaitIdle(q.Handle), "vkQueueWaitIdle")
	})
}

var _ hal.Queue = (*Queue)(nil)
