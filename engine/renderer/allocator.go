package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// MemoryBlock is one device memory allocation. The zero value is empty.
type MemoryBlock struct {
	Memory    hal.Memory
	Size      uint64
	TypeIndex uint32
}

func (m MemoryBlock) Valid() bool {
	return m.Memory != nil
}

// Allocator hands out device memory and the buffers and images bound to it.
// Every constructor releases whatever it already acquired when a later step
// fails, so a failed call leaves nothing behind.
type Allocator struct {
	device *Device
}

func NewAllocator(device *Device) *Allocator {
	return &Allocator{device: device}
}

func (a *Allocator) Allocate(size uint64, typeIndex uint32) (MemoryBlock, error) {
	mem, err := a.device.Handle.AllocateMemory(size, typeIndex)
	if err != nil {
		if errors.Is(err, core.ErrOutOfDeviceMemory) {
			return MemoryBlock{}, err
		}
		return MemoryBlock{}, fmt.Errorf("allocating %d bytes: %v: %w", size, err, core.ErrOutOfDeviceMemory)
	}
	return MemoryBlock{Memory: mem, Size: size, TypeIndex: typeIndex}, nil
}

// Free releases block once; freeing an empty block is a no-op.
func (a *Allocator) Free(block *MemoryBlock) {
	if !block.Valid() {
		return
	}
	a.device.Handle.FreeMemory(block.Memory)
	*block = MemoryBlock{}
}

// CreateBuffer creates a buffer, allocates memory with props for it and
// binds the two.
func (a *Allocator) CreateBuffer(size uint64, usage hal.BufferUsage, props hal.MemoryPropertyFlags) (*Buffer, error) {
	dev := a.device.Handle
	handle, err := dev.CreateBuffer(hal.BufferDescriptor{Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("creating buffer of %d bytes: %w", size, err)
	}
	reqs := dev.BufferMemoryRequirements(handle)
	typeIndex, err := a.device.FindMemoryType(reqs.MemoryTypeBits, props)
	if err != nil {
		dev.DestroyBuffer(handle)
		return nil, err
	}
	block, err := a.Allocate(reqs.Size, typeIndex)
	if err != nil {
		dev.DestroyBuffer(handle)
		return nil, err
	}
	if err := dev.BindBufferMemory(handle, block.Memory, 0); err != nil {
		dev.DestroyBuffer(handle)
		a.Free(&block)
		return nil, fmt.Errorf("binding buffer memory: %w", err)
	}
	return &Buffer{Handle: handle, Memory: block, Size: size, alloc: a}, nil
}

// CreateImage creates an image with its own memory block and a view over
// aspect.
func (a *Allocator) CreateImage(desc hal.ImageDescriptor, aspect hal.ImageAspect) (*Image, error) {
	dev := a.device.Handle
	handle, err := dev.CreateImage(desc)
	if err != nil {
		return nil, fmt.Errorf("creating %dx%d image: %w", desc.Extent.Width, desc.Extent.Height, err)
	}
	reqs := dev.ImageMemoryRequirements(handle)
	typeIndex, err := a.device.FindMemoryType(reqs.MemoryTypeBits, hal.MemoryPropertyDeviceLocal)
	if err != nil {
		dev.DestroyImage(handle)
		return nil, err
	}
	block, err := a.Allocate(reqs.Size, typeIndex)
	if err != nil {
		dev.DestroyImage(handle)
		return nil, err
	}
	if err := dev.BindImageMemory(handle, block.Memory, 0); err != nil {
		dev.DestroyImage(handle)
		a.Free(&block)
		return nil, fmt.Errorf("binding image memory: %w", err)
	}
	view, err := dev.CreateImageView(handle, desc.Format, aspect)
	if err != nil {
		dev.DestroyImage(handle)
		a.Free(&block)
		return nil, fmt.Errorf("creating image view: %w", err)
	}
	return &Image{
		Handle:  handle,
		View:    view,
		Memory:  block,
		Format:  desc.Format,
		Samples: desc.Samples,
		Extent:  desc.Extent,
		alloc:   a,
	}, nil
}

// UploadToDeviceLocal copies data into a new device-local buffer through a
// temporary staging buffer.
func (a *Allocator) UploadToDeviceLocal(data []byte, usage hal.BufferUsage) (*Buffer, error) {
	if len(data) == 0 {
		// zero sized buffers are invalid
		data = make([]byte, 4)
	}
	size := uint64(len(data))
	staging, err := a.CreateBuffer(size, hal.BufferUsageTransferSrc, hal.MemoryPropertyHostVisible|hal.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()
	if err := staging.Write(0, data); err != nil {
		return nil, err
	}

	buf, err := a.CreateBuffer(size, usage|hal.BufferUsageTransferDst, hal.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}
	err = a.device.SubmitOnce(func(cb hal.CommandBuffer) {
		cb.CopyBuffer(staging.Handle, buf.Handle, size)
	})
	if err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}
