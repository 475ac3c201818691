package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/scene"
)

type PipelineState int

const (
	PipelineUncreated PipelineState = iota
	PipelineCreated
	PipelineDestroyed
)

func (s PipelineState) String() string {
	switch s {
	case PipelineUncreated:
		return "uncreated"
	case PipelineCreated:
		return "created"
	case PipelineDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("PipelineState(%d)", int(s))
}

// PipelineConfig describes what varies between the renderer's pipelines.
type PipelineConfig struct {
	/** @brief Name used in logs. */
	Name string
	/** @brief SPIR-V words of the vertex stage. */
	VertexShader []uint32
	/** @brief SPIR-V words of the fragment stage. */
	FragmentShader []uint32
	/** @brief The vertex binding consumed by the pipeline. */
	Vertex hal.VertexLayout
	/** @brief Descriptor set layouts, in set order. */
	SetLayouts []hal.DescriptorSetLayout
	/** @brief The overlay draws on top without depth and culling. */
	Overlay bool
}

/**
 * @brief Holds a pipeline and its layout.
 */
type Pipeline struct {
	Name   string
	State  PipelineState
	Handle hal.Pipeline
	Layout hal.PipelineLayout
}

// Create builds the pipeline. Shader modules only live for the duration of
// the call.
func (p *Pipeline) Create(device *Device, renderPass *RenderPass, samples hal.SampleCount, config PipelineConfig) error {
	if p.State == PipelineCreated {
		return fmt.Errorf("pipeline %s already created", config.Name)
	}
	dev := device.Handle

	vert, err := dev.CreateShaderModule(config.VertexShader)
	if err != nil {
		return fmt.Errorf("pipeline %s vertex shader: %w", config.Name, err)
	}
	defer dev.DestroyShaderModule(vert)
	frag, err := dev.CreateShaderModule(config.FragmentShader)
	if err != nil {
		return fmt.Errorf("pipeline %s fragment shader: %w", config.Name, err)
	}
	defer dev.DestroyShaderModule(frag)

	layout, err := dev.CreatePipelineLayout(config.SetLayouts)
	if err != nil {
		return fmt.Errorf("pipeline %s layout: %w", config.Name, err)
	}

	desc := &hal.GraphicsPipelineDescriptor{
		RenderPass:     renderPass.Handle,
		Layout:         layout,
		VertexShader:   vert,
		FragmentShader: frag,
		Vertex:         config.Vertex,
		Samples:        samples,
		CullMode:       hal.CullModeBack,
		FrontFace:      hal.FrontFaceCounterClockwise,
		DepthTest:      true,
		DepthWrite:     true,
		DepthCompare:   hal.CompareOpLess,
		Blend: hal.BlendState{
			Enabled:  true,
			SrcColor: hal.BlendFactorSrcAlpha,
			DstColor: hal.BlendFactorOneMinusSrcAlpha,
			SrcAlpha: hal.BlendFactorZero,
			DstAlpha: hal.BlendFactorOne,
		},
	}
	if config.Overlay {
		desc.CullMode = hal.CullModeNone
		desc.DepthTest = false
		desc.DepthWrite = false
		desc.DepthCompare = hal.CompareOpAlways
	}

	handle, err := dev.CreateGraphicsPipeline(desc)
	if err != nil {
		dev.DestroyPipelineLayout(layout)
		return fmt.Errorf("pipeline %s: %w", config.Name, err)
	}

	p.Name = config.Name
	p.Handle = handle
	p.Layout = layout
	p.State = PipelineCreated
	core.LogDebug("Pipeline '%s' created.", config.Name)
	return nil
}

func (p *Pipeline) Bind(cb hal.CommandBuffer) {
	cb.BindPipeline(p.Handle)
}

// Destroy releases the pipeline and its layout. Only a created pipeline
// holds anything; other states are left alone.
func (p *Pipeline) Destroy(device *Device) {
	if p.State != PipelineCreated {
		return
	}
	device.Handle.DestroyPipeline(p.Handle)
	device.Handle.DestroyPipelineLayout(p.Layout)
	p.Handle = nil
	p.Layout = nil
	p.State = PipelineDestroyed
}

// Vertex buffer bindings. The shared vertex buffer is bound twice: plain
// vertices at binding 0, tangent vertices at binding 1 starting where the
// plain ones end.
const (
	PlainVertexBinding   uint32 = 0
	TangentVertexBinding uint32 = 1
)

func commonAttributes() []hal.VertexAttribute {
	return []hal.VertexAttribute{
		{Location: 0, Format: hal.FormatR32G32B32Sfloat, Offset: scene.OffsetPosition},
		{Location: 1, Format: hal.FormatR32G32B32Sfloat, Offset: scene.OffsetNormal},
		{Location: 2, Format: hal.FormatR32G32B32A32Sfloat, Offset: scene.OffsetColor},
		{Location: 3, Format: hal.FormatR32G32Sfloat, Offset: scene.OffsetTexCoord},
	}
}

func PlainVertexLayout() hal.VertexLayout {
	return hal.VertexLayout{
		Binding:    PlainVertexBinding,
		Stride:     scene.VertexStride[scene.Vertex](),
		Attributes: commonAttributes(),
	}
}

func TangentVertexLayout() hal.VertexLayout {
	return hal.VertexLayout{
		Binding: TangentVertexBinding,
		Stride:  scene.VertexStride[scene.VertexWithTangent](),
		Attributes: append(commonAttributes(),
			hal.VertexAttribute{Location: 4, Format: hal.FormatR32G32B32Sfloat, Offset: scene.OffsetTangent}),
	}
}
