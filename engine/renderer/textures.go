package renderer

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// TextureData is a decoded image: 8-bit RGBA rows, already flipped so the
// first row is the bottom of the picture.
type TextureData struct {
	Width  uint32
	Height uint32
	Pixels []byte
}

// TextureArray is a set of sampled images packed into one memory block.
type TextureArray struct {
	Images []*Image
	Memory MemoryBlock
	Format hal.Format

	alloc *Allocator
}

// NormalMapFormat uses three-channel sRGB when the device can sample and
// upload it, which saves a quarter of the memory; otherwise RGBA.
func NormalMapFormat(adapter hal.Adapter) hal.Format {
	want := hal.FormatFeatureSampledImage | hal.FormatFeatureTransferDst
	if adapter.FormatFeatures(hal.FormatR8G8B8Srgb)&want == want {
		return hal.FormatR8G8B8Srgb
	}
	return hal.FormatR8G8B8A8Srgb
}

func bytesPerPixel(format hal.Format) uint64 {
	if format == hal.FormatR8G8B8Srgb {
		return 3
	}
	return 4
}

// stagingAlignment is the least common multiple of 4 and the texel size.
func stagingAlignment(bpp uint64) uint64 {
	a, b := bpp, uint64(4)
	for b != 0 {
		a, b = b, a%b
	}
	return bpp * 4 / a
}

// dropAlpha converts RGBA pixels to RGB.
func dropAlpha(rgba []byte) []byte {
	out := make([]byte, 0, len(rgba)/4*3)
	for i := 0; i+3 < len(rgba); i += 4 {
		out = append(out, rgba[i], rgba[i+1], rgba[i+2])
	}
	return out
}

// UploadTextures creates one image per texture, binds them all into a
// single device-local block and fills them through one staging buffer.
// Images are placed in decreasing alignment order so padding stays small,
// and every offset honors its image's alignment.
func UploadTextures(alloc *Allocator, device *Device, textures []TextureData, format hal.Format) (*TextureArray, error) {
	out := &TextureArray{Format: format, alloc: alloc}
	if len(textures) == 0 {
		return out, nil
	}
	dev := device.Handle
	bpp := bytesPerPixel(format)

	pixels := make([][]byte, len(textures))
	for i, t := range textures {
		if uint64(len(t.Pixels)) != uint64(t.Width)*uint64(t.Height)*4 {
			return nil, fmt.Errorf("texture %d: %d bytes for %dx%d RGBA: %w", i, len(t.Pixels), t.Width, t.Height, core.ErrResourceCreation)
		}
		pixels[i] = t.Pixels
		if bpp == 3 {
			pixels[i] = dropAlpha(t.Pixels)
		}
	}

	reqs := make([]hal.MemoryRequirements, len(textures))
	typeBits := ^uint32(0)
	for i, t := range textures {
		handle, err := dev.CreateImage(hal.ImageDescriptor{
			Extent:  hal.Extent2D{Width: t.Width, Height: t.Height},
			Format:  format,
			Usage:   hal.ImageUsageTransferDst | hal.ImageUsageSampled,
			Samples: hal.SampleCount1,
		})
		if err != nil {
			out.Destroy()
			return nil, fmt.Errorf("creating texture image %d: %w", i, err)
		}
		out.Images = append(out.Images, &Image{
			Handle:  handle,
			Format:  format,
			Samples: hal.SampleCount1,
			Extent:  hal.Extent2D{Width: t.Width, Height: t.Height},
			alloc:   alloc,
		})
		reqs[i] = dev.ImageMemoryRequirements(handle)
		typeBits &= reqs[i].MemoryTypeBits
	}

	order := make([]int, len(textures))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return reqs[order[a]].Alignment > reqs[order[b]].Alignment
	})
	offsets := make([]uint64, len(textures))
	var total uint64
	for _, i := range order {
		offsets[i] = math.AlignUp(total, reqs[i].Alignment)
		total = offsets[i] + reqs[i].Size
	}

	typeIndex, err := device.FindMemoryType(typeBits, hal.MemoryPropertyDeviceLocal)
	if err != nil {
		out.Destroy()
		return nil, err
	}
	out.Memory, err = alloc.Allocate(total, typeIndex)
	if err != nil {
		out.Destroy()
		return nil, err
	}
	for i, img := range out.Images {
		if err := dev.BindImageMemory(img.Handle, out.Memory.Memory, offsets[i]); err != nil {
			out.Destroy()
			return nil, fmt.Errorf("binding texture %d: %w", i, err)
		}
		img.View, err = dev.CreateImageView(img.Handle, format, hal.ImageAspectColor)
		if err != nil {
			out.Destroy()
			return nil, fmt.Errorf("creating texture view %d: %w", i, err)
		}
	}

	// Copy sources must start on a multiple of both four bytes and the
	// texel size.
	copyAlign := stagingAlignment(bpp)
	stagingOffsets := make([]uint64, len(pixels))
	var stagingSize uint64
	for i, p := range pixels {
		stagingOffsets[i] = math.AlignUp(stagingSize, copyAlign)
		stagingSize = stagingOffsets[i] + uint64(len(p))
	}
	staging, err := alloc.CreateBuffer(stagingSize, hal.BufferUsageTransferSrc, hal.MemoryPropertyHostVisible|hal.MemoryPropertyHostCoherent)
	if err != nil {
		out.Destroy()
		return nil, err
	}
	defer staging.Destroy()
	data, err := staging.Map()
	if err != nil {
		out.Destroy()
		return nil, err
	}
	for i, p := range pixels {
		copy(data[stagingOffsets[i]:], p)
	}
	staging.Unmap()

	err = device.SubmitOnce(func(cb hal.CommandBuffer) {
		for i, img := range out.Images {
			cb.TransitionImageLayout(img.Handle, hal.ImageLayoutUndefined, hal.ImageLayoutTransferDstOptimal)
			cb.CopyBufferToImage(staging.Handle, stagingOffsets[i], img.Handle, img.Extent)
			cb.TransitionImageLayout(img.Handle, hal.ImageLayoutTransferDstOptimal, hal.ImageLayoutShaderReadOnlyOptimal)
		}
	})
	if err != nil {
		out.Destroy()
		return nil, err
	}
	core.LogDebug("Uploaded %d textures (%d bytes, format %d).", len(textures), total, format)
	return out, nil
}

func (ta *TextureArray) Len() int {
	if ta == nil {
		return 0
	}
	return len(ta.Images)
}

// Destroy releases every image and then the shared block.
func (ta *TextureArray) Destroy() {
	if ta == nil {
		return
	}
	for _, img := range ta.Images {
		img.Destroy()
	}
	ta.Images = nil
	ta.alloc.Free(&ta.Memory)
}
