package hal

// Enum values match their Vulkan counterparts so that the Vulkan backend
// converts with a plain cast.

type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8Srgb         Format = 29
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

// HasStencil reports whether a depth format carries a stencil aspect.
func (f Format) HasStencil() bool {
	return f == FormatD32SfloatS8Uint || f == FormatD24UnormS8Uint
}

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

// SampleCount is a bit set; a single bit names one count.
type SampleCount uint32

const (
	SampleCount1  SampleCount = 0x01
	SampleCount2  SampleCount = 0x02
	SampleCount4  SampleCount = 0x04
	SampleCount8  SampleCount = 0x08
	SampleCount16 SampleCount = 0x10
	SampleCount32 SampleCount = 0x20
	SampleCount64 SampleCount = 0x40
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x01
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x02
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x04
)

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 0x01
	BufferUsageTransferDst BufferUsage = 0x02
	BufferUsageUniform     BufferUsage = 0x10
	BufferUsageIndex       BufferUsage = 0x40
	BufferUsageVertex      BufferUsage = 0x80
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc            ImageUsage = 0x01
	ImageUsageTransferDst            ImageUsage = 0x02
	ImageUsageSampled                ImageUsage = 0x04
	ImageUsageColorAttachment        ImageUsage = 0x10
	ImageUsageDepthStencilAttachment ImageUsage = 0x20
	ImageUsageTransientAttachment    ImageUsage = 0x40
)

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 0x01
	ImageAspectDepth ImageAspect = 0x02
)

type ImageLayout uint32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutTransferDstOptimal            ImageLayout = 7
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type FormatFeature uint32

const (
	FormatFeatureSampledImage           FormatFeature = 0x001
	FormatFeatureColorAttachment        FormatFeature = 0x080
	FormatFeatureDepthStencilAttachment FormatFeature = 0x200
	FormatFeatureTransferDst            FormatFeature = 0x4000
)

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x01
	ShaderStageFragment ShaderStage = 0x10
)

type DescriptorType uint32

const (
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeUniformBuffer        DescriptorType = 6
)

type CullMode uint32

const (
	CullModeNone CullMode = 0
	CullModeBack CullMode = 2
)

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp uint32

const (
	CompareOpLess   CompareOp = 1
	CompareOpAlways CompareOp = 7
)

type BlendFactor uint32

const (
	BlendFactorZero             BlendFactor = 0
	BlendFactorOne              BlendFactor = 1
	BlendFactorSrcAlpha         BlendFactor = 6
	BlendFactorOneMinusSrcAlpha BlendFactor = 7
)

type Extent2D struct {
	Width  uint32
	Height uint32
}

func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SurfaceCapabilities mirrors what the surface reports. A CurrentExtent
// width of math.MaxUint32 means the window decides the size.
type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type Limits struct {
	MinUniformBufferOffsetAlignment uint64
	FramebufferColorSampleCounts    SampleCount
	FramebufferDepthSampleCounts    SampleCount
	MaxSamplerAnisotropy            float32
}

type QueueFamily struct {
	Index    uint32
	Graphics bool
	Present  bool
}

type DeviceDescriptor struct {
	GraphicsFamily    uint32
	PresentFamily     uint32
	Extensions        []string
	SamplerAnisotropy bool
}

type BufferDescriptor struct {
	Size  uint64
	Usage BufferUsage
}

type ImageDescriptor struct {
	Extent  Extent2D
	Format  Format
	Usage   ImageUsage
	Samples SampleCount
}

type SamplerDescriptor struct {
	MaxAnisotropy float32
}

type SwapchainDescriptor struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	// More than one distinct family switches the images to concurrent sharing.
	QueueFamilies []uint32
}

type RenderPassDescriptor struct {
	ColorFormat Format
	DepthFormat Format
	Samples     SampleCount
}

type FramebufferDescriptor struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Stages  ShaderStage
}

type DescriptorPoolDescriptor struct {
	MaxSets               uint32
	UniformBuffers        uint32
	CombinedImageSamplers uint32
}

// DescriptorWrite points one binding of a set at either a buffer range or
// an image view with a sampler.
type DescriptorWrite struct {
	Set     DescriptorSet
	Binding uint32
	Type    DescriptorType

	Buffer Buffer
	Offset uint64
	Range  uint64

	View    ImageView
	Sampler Sampler
}

type VertexAttribute struct {
	Location uint32
	Format   Format
	Offset   uint32
}

type VertexLayout struct {
	Binding    uint32
	Stride     uint32
	Attributes []VertexAttribute
}

type BlendState struct {
	Enabled  bool
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

type GraphicsPipelineDescriptor struct {
	RenderPass     RenderPass
	Layout         PipelineLayout
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	Vertex         VertexLayout
	Samples        SampleCount
	CullMode       CullMode
	FrontFace      FrontFace
	DepthTest      bool
	DepthWrite     bool
	DepthCompare   CompareOp
	Blend          BlendState
}

type SubmitInfo struct {
	CommandBuffer   CommandBuffer
	WaitSemaphore   Semaphore
	SignalSemaphore Semaphore
}

type PresentInfo struct {
	Swapchain     Swapchain
	ImageIndex    uint32
	WaitSemaphore Semaphore
}

type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}
