package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// ClearColor and ClearDepth are what every frame starts from.
var (
	ClearColor = [4]float32{0, 0, 0, 1}
	ClearDepth = float32(1.0)
)

// RenderPass is the single forward pass: multisampled color, depth, and a
// resolve into the swapchain image that is then presented.
type RenderPass struct {
	Handle hal.RenderPass
	Clear  hal.ClearValues
}

func NewRenderPass(device *Device, colorFormat, depthFormat hal.Format, samples hal.SampleCount) (*RenderPass, error) {
	handle, err := device.Handle.CreateRenderPass(hal.RenderPassDescriptor{
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
		Samples:     samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pass: %w", err)
	}
	core.LogInfo("Render pass created (%d samples).", samples)
	return &RenderPass{
		Handle: handle,
		Clear:  hal.ClearValues{Color: ClearColor, Depth: ClearDepth},
	}, nil
}

func (rp *RenderPass) Begin(cb hal.CommandBuffer, framebuffer hal.Framebuffer, extent hal.Extent2D) {
	cb.BeginRenderPass(rp.Handle, framebuffer, extent, rp.Clear)
}

func (rp *RenderPass) End(cb hal.CommandBuffer) {
	cb.EndRenderPass()
}

func (rp *RenderPass) Destroy(device *Device) {
	if rp == nil || rp.Handle == nil {
		return
	}
	device.Handle.DestroyRenderPass(rp.Handle)
	rp.Handle = nil
}
