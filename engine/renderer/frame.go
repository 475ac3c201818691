package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// frameSlot holds what one frame in flight needs to record and submit
// without waiting on the other.
type frameSlot struct {
	commandBuffer  hal.CommandBuffer
	imageAvailable hal.Semaphore
	renderFinished hal.Semaphore
	// Signaled when the GPU has finished the last submission of this slot.
	inFlight hal.Fence
}

func createFrameSlots(device *Device) ([MaxFramesInFlight]frameSlot, error) {
	var slots [MaxFramesInFlight]frameSlot
	dev := device.Handle

	cbs, err := dev.AllocateCommandBuffers(MaxFramesInFlight)
	if err != nil {
		return slots, fmt.Errorf("allocating frame command buffers: %w", err)
	}
	for i := range slots {
		slots[i].commandBuffer = cbs[i]
	}
	for i := range slots {
		if slots[i].imageAvailable, err = dev.CreateSemaphore(); err != nil {
			destroyFrameSlots(device, &slots)
			return slots, err
		}
		if slots[i].renderFinished, err = dev.CreateSemaphore(); err != nil {
			destroyFrameSlots(device, &slots)
			return slots, err
		}
		// Created signaled so the first wait of each slot returns at once.
		if slots[i].inFlight, err = dev.CreateFence(true); err != nil {
			destroyFrameSlots(device, &slots)
			return slots, err
		}
	}
	return slots, nil
}

func destroyFrameSlots(device *Device, slots *[MaxFramesInFlight]frameSlot) {
	dev := device.Handle
	var cbs []hal.CommandBuffer
	for i := range slots {
		s := &slots[i]
		if s.commandBuffer != nil {
			cbs = append(cbs, s.commandBuffer)
			s.commandBuffer = nil
		}
		if s.imageAvailable != nil {
			dev.DestroySemaphore(s.imageAvailable)
			s.imageAvailable = nil
		}
		if s.renderFinished != nil {
			dev.DestroySemaphore(s.renderFinished)
			s.renderFinished = nil
		}
		if s.inFlight != nil {
			dev.DestroyFence(s.inFlight)
			s.inFlight = nil
		}
	}
	if len(cbs) > 0 {
		dev.FreeCommandBuffers(cbs)
	}
}
