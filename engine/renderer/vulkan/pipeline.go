package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

func (d *VulkanDevice) CreateShaderModule(code []uint32) (hal.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if err := check(vk.CreateShaderModule(d.LogicalDevice, &createInfo, d.Allocator, &module), "vkCreateShaderModule"); err != nil {
		return nil, err
	}
	return wrap("shadermodule", module), nil
}

func (d *VulkanDevice) DestroyShaderModule(module hal.ShaderModule) {
	if m := raw[vk.ShaderModule](module); m != vk.ShaderModule(vk.NullHandle) {
		vk.DestroyShaderModule(d.LogicalDevice, m, d.Allocator)
	}
}

func (d *VulkanDevice) CreateDescriptorSetLayout(bindings []hal.DescriptorBinding) (hal.DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}
	var layout vk.DescriptorSetLayout
	if err := check(vk.CreateDescriptorSetLayout(d.LogicalDevice, &layoutInfo, d.Allocator, &layout), "vkCreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	return wrap("setlayout", layout), nil
}

func (d *VulkanDevice) DestroyDescriptorSetLayout(layout hal.DescriptorSetLayout) {
	if l := raw[vk.DescriptorSetLayout](layout); l != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(d.LogicalDevice, l, d.Allocator)
	}
}

func (d *VulkanDevice) CreatePipelineLayout(setLayouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	layouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, l := range setLayouts {
		layouts[i] = raw[vk.DescriptorSetLayout](l)
	}
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}

	var layout vk.PipelineLayout
	if err := d.locks.SafeCall(PipelineManagement, func() error {
		return check(vk.CreatePipelineLayout(d.LogicalDevice, &pipelineLayoutCreateInfo, d.Allocator, &layout), "vkCreatePipelineLayout")
	}); err != nil {
		return nil, err
	}
	return wrap("pipelinelayout", layout), nil
}

func (d *VulkanDevice) DestroyPipelineLayout(layout hal.PipelineLayout) {
	l := raw[vk.PipelineLayout](layout)
	if l == vk.PipelineLayout(vk.NullHandle) {
		return
	}
	_ = d.locks.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipelineLayout(d.LogicalDevice, l, d.Allocator)
		return nil
	})
}

// CreateGraphicsPipeline bakes everything except viewport and scissor,
// which are dynamic so that a resize does not rebuild pipelines.
func (d *VulkanDevice) CreateGraphicsPipeline(desc *hal.GraphicsPipelineDescriptor) (hal.Pipeline, error) {
	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: raw[vk.ShaderModule](desc.VertexShader),
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: raw[vk.ShaderModule](desc.FragmentShader),
			PName:  "main\x00",
		},
	}

	attributes := make([]vk.VertexInputAttributeDescription, len(desc.Vertex.Attributes))
	for i, attr := range desc.Vertex.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Binding:  desc.Vertex.Binding,
			Location: attr.Location,
			Format:   vk.Format(attr.Format),
			Offset:   attr.Offset,
		}
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount: 1,
		PVertexBindingDescriptions: []vk.VertexInputBindingDescription{{
			Binding:   desc.Vertex.Binding,
			Stride:    desc.Vertex.Stride,
			InputRate: vk.VertexInputRateVertex,
		}},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(desc.CullMode),
		FrontFace:               vk.FrontFace(desc.FrontFace),
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCountFlagBits(desc.Samples),
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(desc.DepthTest),
		DepthWriteEnable:      vkBool(desc.DepthWrite),
		DepthCompareOp:        vk.CompareOp(desc.DepthCompare),
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0,
		MaxDepthBounds:        1,
		StencilTestEnable:     vk.False,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit |
				vk.ColorComponentGBit |
				vk.ColorComponentBBit |
				vk.ColorComponentABit,
		),
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
	if desc.Blend.Enabled {
		colorBlendAttachment.BlendEnable = vk.True
		colorBlendAttachment.SrcColorBlendFactor = vk.BlendFactor(desc.Blend.SrcColor)
		colorBlendAttachment.DstColorBlendFactor = vk.BlendFactor(desc.Blend.DstColor)
		colorBlendAttachment.SrcAlphaBlendFactor = vk.BlendFactor(desc.Blend.SrcAlpha)
		colorBlendAttachment.DstAlphaBlendFactor = vk.BlendFactor(desc.Blend.DstAlpha)
	}

	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlending,
		PDynamicState:       &dynamicState,
		Layout:              raw[vk.PipelineLayout](desc.Layout),
		RenderPass:          raw[vk.RenderPass](desc.RenderPass),
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := d.locks.SafeCall(PipelineManagement, func() error {
		return check(vk.CreateGraphicsPipelines(
			d.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			d.Allocator,
			pipelines,
		), "vkCreateGraphicsPipelines")
	}); err != nil {
		core.LogError("failed to create graphics pipeline: %s", err)
		return nil, err
	}
	core.LogDebug("Graphics pipeline created.")
	return wrap("pipeline", pipelines[0]), nil
}

func (d *VulkanDevice) DestroyPipeline(pipeline hal.Pipeline) {
	p := raw[vk.Pipeline](pipeline)
	if p == vk.NullPipeline {
		return
	}
	_ = d.locks.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipeline(d.LogicalDevice, p, d.Allocator)
		return nil
	})
}
