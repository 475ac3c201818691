package renderer

import (
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Image owns an image, its view and, unless it lives in a shared block,
// its memory.
type Image struct {
	Handle  hal.Image
	View    hal.ImageView
	Memory  MemoryBlock
	Format  hal.Format
	Samples hal.SampleCount
	Extent  hal.Extent2D

	alloc *Allocator
}

func (img *Image) Valid() bool {
	return img != nil && img.Handle != nil
}

// Destroy releases view, image and memory in that order. Safe to repeat.
func (img *Image) Destroy() {
	if !img.Valid() {
		return
	}
	dev := img.alloc.device.Handle
	if img.View != nil {
		dev.DestroyImageView(img.View)
		img.View = nil
	}
	dev.DestroyImage(img.Handle)
	img.Handle = nil
	img.alloc.Free(&img.Memory)
}
