package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Buffer owns a GPU buffer and its memory. A nil or destroyed Buffer is
// empty; Destroy may be called any number of times.
type Buffer struct {
	Handle hal.Buffer
	Memory MemoryBlock
	Size   uint64

	mapped []byte
	alloc  *Allocator
}

func (b *Buffer) Valid() bool {
	return b != nil && b.Handle != nil
}

// Map maps the whole buffer. The returned slice stays valid until Unmap or
// Destroy; mapping twice returns the same slice.
func (b *Buffer) Map() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("map of an empty buffer")
	}
	if b.mapped != nil {
		return b.mapped, nil
	}
	data, err := b.alloc.device.Handle.MapMemory(b.Memory.Memory, 0, b.Size)
	if err != nil {
		return nil, err
	}
	b.mapped = data
	return data, nil
}

func (b *Buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.alloc.device.Handle.UnmapMemory(b.Memory.Memory)
	b.mapped = nil
}

// Write copies data at offset into a host visible buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.Size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer of %d", len(data), offset, b.Size)
	}
	wasMapped := b.mapped != nil
	dst, err := b.Map()
	if err != nil {
		return err
	}
	copy(dst[offset:], data)
	if !wasMapped {
		b.Unmap()
	}
	return nil
}

// Destroy releases the handle first and the memory after it.
func (b *Buffer) Destroy() {
	if !b.Valid() {
		return
	}
	b.Unmap()
	b.alloc.device.Handle.DestroyBuffer(b.Handle)
	b.Handle = nil
	b.alloc.Free(&b.Memory)
	b.Size = 0
}
