package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/ui"
)

// Overlay capacity per frame in flight.
const (
	OverlayMaxQuads    = 4096
	overlayVertexBytes = OverlayMaxQuads * 4 * uint64(ui.VertexSize)
	overlayIndexBytes  = OverlayMaxQuads * 6 * 4
)

// overlayPass draws the debug overlay after the scene. It owns the font
// atlas and one pair of host visible buffers per frame in flight.
type overlayPass struct {
	pipeline Pipeline
	font     *TextureArray
	vertices [MaxFramesInFlight]*Buffer
	indices  [MaxFramesInFlight]*Buffer
	set      hal.DescriptorSet
}

func overlayVertexLayout() hal.VertexLayout {
	return hal.VertexLayout{
		Binding: 0,
		Stride:  ui.VertexSize,
		Attributes: []hal.VertexAttribute{
			{Location: 0, Format: hal.FormatR32G32Sfloat, Offset: ui.OffsetPosition},
			{Location: 1, Format: hal.FormatR32G32Sfloat, Offset: ui.OffsetTexCoord},
			{Location: 2, Format: hal.FormatR32G32B32A32Sfloat, Offset: ui.OffsetColor},
		},
	}
}

func newOverlayPass(alloc *Allocator, device *Device, atlas TextureData) (*overlayPass, error) {
	o := &overlayPass{}
	var err error
	o.font, err = UploadTextures(alloc, device, []TextureData{atlas}, hal.FormatR8G8B8A8Srgb)
	if err != nil {
		return nil, fmt.Errorf("overlay font atlas: %w", err)
	}
	props := hal.MemoryPropertyHostVisible | hal.MemoryPropertyHostCoherent
	for f := 0; f < MaxFramesInFlight; f++ {
		if o.vertices[f], err = alloc.CreateBuffer(overlayVertexBytes, hal.BufferUsageVertex, props); err != nil {
			o.destroy(device)
			return nil, err
		}
		if o.indices[f], err = alloc.CreateBuffer(overlayIndexBytes, hal.BufferUsageIndex, props); err != nil {
			o.destroy(device)
			return nil, err
		}
	}
	return o, nil
}

func (o *overlayPass) fontImage() *Image {
	if o == nil || o.font.Len() == 0 {
		return nil
	}
	return o.font.Images[0]
}

// upload copies data into frame's buffers and returns the index count to
// draw. Anything past the capacity is dropped.
func (o *overlayPass) upload(frame int, data *ui.DrawData) (uint32, error) {
	vb, ib := data.VertexBytes(), data.IndexBytes()
	if uint64(len(vb)) > overlayVertexBytes || uint64(len(ib)) > overlayIndexBytes {
		core.LogWarn("Overlay has %d quads, drawing the first %d.", len(data.Indices)/6, OverlayMaxQuads)
		vb = vb[:min(uint64(len(vb)), overlayVertexBytes)]
		ib = ib[:min(uint64(len(ib)), overlayIndexBytes)]
	}
	if err := o.vertices[frame].Write(0, vb); err != nil {
		return 0, err
	}
	if err := o.indices[frame].Write(0, ib); err != nil {
		return 0, err
	}
	return uint32(len(ib) / 4), nil
}

func (o *overlayPass) record(cb hal.CommandBuffer, frame int, indexCount uint32) {
	o.pipeline.Bind(cb)
	cb.BindVertexBuffer(0, o.vertices[frame].Handle, 0)
	cb.BindIndexBuffer(o.indices[frame].Handle, 0)
	cb.BindDescriptorSets(o.pipeline.Layout, 0, []hal.DescriptorSet{o.set})
	cb.DrawIndexed(indexCount, 0, 0)
}

func (o *overlayPass) destroy(device *Device) {
	if o == nil {
		return
	}
	o.pipeline.Destroy(device)
	for f := 0; f < MaxFramesInFlight; f++ {
		o.vertices[f].Destroy()
		o.indices[f].Destroy()
	}
	o.font.Destroy()
}
