package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// MaxUsableSampleCount picks the highest sample count both color and depth
// attachments support, capped at ceiling.
func MaxUsableSampleCount(limits hal.Limits, ceiling uint32) hal.SampleCount {
	counts := limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts
	for _, c := range []hal.SampleCount{
		hal.SampleCount64,
		hal.SampleCount32,
		hal.SampleCount16,
		hal.SampleCount8,
		hal.SampleCount4,
		hal.SampleCount2,
	} {
		if counts&c != 0 && uint32(c) <= ceiling {
			return c
		}
	}
	return hal.SampleCount1
}

// FindDepthFormat returns the first of D32, D32S8 and D24S8 usable as an
// optimally tiled depth attachment.
func FindDepthFormat(adapter hal.Adapter) (hal.Format, error) {
	for _, f := range []hal.Format{
		hal.FormatD32Sfloat,
		hal.FormatD32SfloatS8Uint,
		hal.FormatD24UnormS8Uint,
	} {
		if adapter.FormatFeatures(f)&hal.FormatFeatureDepthStencilAttachment != 0 {
			return f, nil
		}
	}
	return hal.FormatUndefined, fmt.Errorf("no depth format: %w", core.ErrUnsupportedConfiguration)
}

// RenderTargets owns the multisampled color image and the depth image the
// render pass draws into. Both follow the swapchain extent.
type RenderTargets struct {
	Samples     hal.SampleCount
	DepthFormat hal.Format
	Color       *Image
	Depth       *Image

	alloc *Allocator
}

func NewRenderTargets(alloc *Allocator, samples hal.SampleCount, depthFormat hal.Format) *RenderTargets {
	return &RenderTargets{alloc: alloc, Samples: samples, DepthFormat: depthFormat}
}

func (t *RenderTargets) CreateColorResources(format hal.Format, extent hal.Extent2D) error {
	img, err := t.alloc.CreateImage(hal.ImageDescriptor{
		Extent:  extent,
		Format:  format,
		Usage:   hal.ImageUsageTransientAttachment | hal.ImageUsageColorAttachment,
		Samples: t.Samples,
	}, hal.ImageAspectColor)
	if err != nil {
		return fmt.Errorf("failed to create MSAA color target: %w", err)
	}
	t.Color = img
	return nil
}

func (t *RenderTargets) DestroyColorResources() {
	t.Color.Destroy()
	t.Color = nil
}

func (t *RenderTargets) CreateDepthResources(extent hal.Extent2D) error {
	img, err := t.alloc.CreateImage(hal.ImageDescriptor{
		Extent:  extent,
		Format:  t.DepthFormat,
		Usage:   hal.ImageUsageDepthStencilAttachment,
		Samples: t.Samples,
	}, hal.ImageAspectDepth)
	if err != nil {
		return fmt.Errorf("failed to create depth target: %w", err)
	}
	t.Depth = img
	return nil
}

func (t *RenderTargets) DestroyDepthResources() {
	t.Depth.Destroy()
	t.Depth = nil
}
