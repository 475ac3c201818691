package renderer

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/scene"
	"github.com/spaghettifunk/prism/engine/ui"
)

// ShaderPair is the SPIR-V of one pipeline's vertex and fragment stages.
type ShaderPair struct {
	Vertex   []uint32
	Fragment []uint32
}

type Shaders struct {
	// Basic is used by plain meshes and by tangent meshes when normal
	// mapping is off.
	Basic         ShaderPair
	NormalMapping ShaderPair
	Overlay       ShaderPair
}

// Assets is the decoded data the renderer uploads at startup. Textures and
// NormalMaps are indexed like the scene's texture sets.
type Assets struct {
	Textures   []TextureData
	NormalMaps []TextureData
	// FontAtlas is optional; without it the overlay is never drawn.
	FontAtlas *TextureData
	Shaders   Shaders
}

// Renderer owns every GPU object and runs the frame loop. All methods must
// be called from the goroutine that owns the window.
type Renderer struct {
	config  core.RendererConfig
	surface Surface

	device     *Device
	alloc      *Allocator
	swapchain  *Swapchain
	targets    *RenderTargets
	renderPass *RenderPass
	binder     *Binder

	basic         Pipeline
	basicTangent  Pipeline
	normalMapping Pipeline
	overlay       *overlayPass

	scene      *scene.Scene
	buffers    *SceneBuffers
	textures   *TextureArray
	normalMaps *TextureArray
	layout     UniformLayout

	frames       [MaxFramesInFlight]frameSlot
	currentFrame int
}

func New(config core.RendererConfig, surface Surface) *Renderer {
	return &Renderer{config: config, surface: surface}
}

// Initialize selects a device and builds everything needed to draw s.
// On failure whatever was created is released again.
func (r *Renderer) Initialize(instance hal.Instance, s *scene.Scene, assets Assets) error {
	if err := r.initialize(instance, s, assets); err != nil {
		r.destroy()
		return err
	}
	return nil
}

func (r *Renderer) initialize(instance hal.Instance, s *scene.Scene, assets Assets) error {
	if len(assets.Textures) != s.Textures.Len() || len(assets.NormalMaps) != s.NormalMaps.Len() {
		return fmt.Errorf("%d/%d textures and %d/%d normal maps decoded: %w",
			len(assets.Textures), s.Textures.Len(), len(assets.NormalMaps), s.NormalMaps.Len(), core.ErrResourceCreation)
	}
	var err error
	r.scene = s

	if r.device, err = SelectDevice(instance, r.surface.Handle(), r.config); err != nil {
		return err
	}
	r.alloc = NewAllocator(r.device)

	if r.swapchain, err = createSwapchain(r.device, r.surface); err != nil {
		return err
	}
	samples := MaxUsableSampleCount(r.device.Limits, r.config.MSAACeiling)
	depthFormat, err := FindDepthFormat(r.device.Adapter)
	if err != nil {
		return err
	}
	r.targets = NewRenderTargets(r.alloc, samples, depthFormat)
	if err := r.targets.CreateColorResources(r.swapchain.Format.Format, r.swapchain.Extent); err != nil {
		return err
	}
	if err := r.targets.CreateDepthResources(r.swapchain.Extent); err != nil {
		return err
	}
	if r.renderPass, err = NewRenderPass(r.device, r.swapchain.Format.Format, depthFormat, samples); err != nil {
		return err
	}
	if err := r.swapchain.createFramebuffers(r.device, r.renderPass.Handle, r.targets); err != nil {
		return err
	}

	if r.binder, err = NewBinder(r.device, r.config.MaxAnisotropy); err != nil {
		return err
	}
	if err := r.createPipelines(samples, assets.Shaders); err != nil {
		return err
	}

	r.layout = NewUniformLayout(r.device.Limits.MinUniformBufferOffsetAlignment, s.MeshCount())
	if r.buffers, err = NewSceneBuffers(r.alloc, s, r.layout); err != nil {
		return err
	}
	if r.textures, err = UploadTextures(r.alloc, r.device, assets.Textures, hal.FormatR8G8B8A8Srgb); err != nil {
		return err
	}
	if r.normalMaps, err = UploadTextures(r.alloc, r.device, assets.NormalMaps, NormalMapFormat(r.device.Adapter)); err != nil {
		return err
	}

	if assets.FontAtlas != nil {
		if r.overlay, err = newOverlayPass(r.alloc, r.device, *assets.FontAtlas); err != nil {
			return err
		}
		err = r.overlay.pipeline.Create(r.device, r.renderPass, samples, PipelineConfig{
			Name:           "overlay",
			VertexShader:   assets.Shaders.Overlay.Vertex,
			FragmentShader: assets.Shaders.Overlay.Fragment,
			Vertex:         overlayVertexLayout(),
			SetLayouts:     r.binder.OverlaySetLayouts(),
			Overlay:        true,
		})
		if err != nil {
			return err
		}
	}

	if err := r.binder.Allocate(r.device, NewDescriptorIndex(s)); err != nil {
		return err
	}
	r.binder.Write(r.device, r.buffers.Uniforms, r.layout, r.textures, r.normalMaps, r.overlay.fontImage())
	if r.overlay != nil {
		r.overlay.set = r.binder.Set(r.binder.Index.Overlay())
	}

	if r.frames, err = createFrameSlots(r.device); err != nil {
		return err
	}
	r.currentFrame = 0
	core.LogInfo("Renderer initialized: %d meshes, %d textures, %d normal maps.", s.MeshCount(), s.Textures.Len(), s.NormalMaps.Len())
	return nil
}

func (r *Renderer) createPipelines(samples hal.SampleCount, shaders Shaders) error {
	configs := []struct {
		pipeline *Pipeline
		config   PipelineConfig
	}{
		{&r.basic, PipelineConfig{
			Name:           "basic",
			VertexShader:   shaders.Basic.Vertex,
			FragmentShader: shaders.Basic.Fragment,
			Vertex:         PlainVertexLayout(),
			SetLayouts:     r.binder.MeshSetLayouts(),
		}},
		{&r.basicTangent, PipelineConfig{
			Name:           "basic_tangent",
			VertexShader:   shaders.Basic.Vertex,
			FragmentShader: shaders.Basic.Fragment,
			Vertex:         TangentVertexLayout(),
			SetLayouts:     r.binder.MeshSetLayouts(),
		}},
		{&r.normalMapping, PipelineConfig{
			Name:           "normal_mapping",
			VertexShader:   shaders.NormalMapping.Vertex,
			FragmentShader: shaders.NormalMapping.Fragment,
			Vertex:         TangentVertexLayout(),
			SetLayouts:     r.binder.NormalMappingSetLayouts(),
		}},
	}
	for _, c := range configs {
		if err := c.pipeline.Create(r.device, r.renderPass, samples, c.config); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) CurrentFrame() int {
	return r.currentFrame
}

func (r *Renderer) Extent() hal.Extent2D {
	return r.swapchain.Extent
}

func (r *Renderer) Device() *Device {
	return r.device
}

// DrawFrame renders and presents one frame:
//
//  1. wait for the slot's fence
//  2. acquire an image; a stale swapchain is recreated and the frame skipped
//  3. reset the fence
//  4. write this slot's uniforms
//  5. record the command buffer
//  6. submit
//  7. present, recreating the swapchain if it went stale or the window resized
//  8. advance to the next slot
//
// The fence is only reset once the frame is certain to be submitted, so a
// skipped frame never leaves it unsignaled.
func (r *Renderer) DrawFrame(overlay *ui.DrawData) error {
	dev := r.device.Handle
	f := r.currentFrame
	slot := &r.frames[f]

	if err := dev.WaitForFence(slot.inFlight, gomath.MaxUint64); err != nil {
		return fmt.Errorf("waiting for frame %d: %w", f, err)
	}

	imageIndex, _, err := dev.AcquireNextImage(r.swapchain.Handle, slot.imageAvailable)
	if errors.Is(err, core.ErrStaleSurface) {
		return r.recreateSwapchain()
	}
	if err != nil {
		return fmt.Errorf("failed to acquire swapchain image: %w", err)
	}

	if err := dev.ResetFence(slot.inFlight); err != nil {
		return err
	}

	r.updateUniforms(f)

	var overlayIndices uint32
	if r.overlay != nil && !overlay.Empty() {
		if overlayIndices, err = r.overlay.upload(f, overlay); err != nil {
			return err
		}
	}

	if err := r.recordCommands(slot.commandBuffer, f, imageIndex, overlayIndices); err != nil {
		return err
	}

	err = r.device.GraphicsQueue.Submit(hal.SubmitInfo{
		CommandBuffer:   slot.commandBuffer,
		WaitSemaphore:   slot.imageAvailable,
		SignalSemaphore: slot.renderFinished,
	}, slot.inFlight)
	if err != nil {
		return fmt.Errorf("failed to submit draw command buffer: %w", err)
	}

	suboptimal, err := r.device.PresentQueue.Present(hal.PresentInfo{
		Swapchain:     r.swapchain.Handle,
		ImageIndex:    imageIndex,
		WaitSemaphore: slot.renderFinished,
	})
	resized := r.surface.ConsumeResized()
	stale := errors.Is(err, core.ErrStaleSurface)
	if err != nil && !stale {
		return fmt.Errorf("failed to present swapchain image: %w", err)
	}
	if stale || suboptimal || resized {
		if err := r.recreateSwapchain(); err != nil {
			return err
		}
	}

	r.currentFrame = (f + 1) % MaxFramesInFlight
	return nil
}

// updateUniforms writes frame's slice of the uniform buffer. The slot's
// fence has been waited on, so the GPU is no longer reading it.
func (r *Renderer) updateUniforms(frame int) {
	data := r.buffers.UniformData
	cam := r.scene.Camera
	extent := r.swapchain.Extent

	proj := math.NewMat4Perspective(
		math.DegToRad(r.config.FieldOfViewDegrees),
		float32(extent.Width)/float32(extent.Height),
		r.config.NearClip,
		r.config.FarClip,
	)
	vp := r.layout.ViewProjectionOffset(frame)
	scene.PackMat4(data[vp:], cam.View())
	scene.PackMat4(data[vp+64:], proj)

	scene.PackFragmentUniform(data[r.layout.FragmentOffset(frame):], &r.scene.Lights, cam.Position)

	for i := range r.scene.Meshes {
		scene.PackMat4(data[r.layout.ModelOffset(frame, i):], r.scene.Meshes[i].InitTransform)
	}
	plain := len(r.scene.Meshes)
	for i := range r.scene.TangentMeshes {
		scene.PackMat4(data[r.layout.ModelOffset(frame, plain+i):], r.scene.TangentMeshes[i].InitTransform)
	}
}

func (r *Renderer) recordCommands(cb hal.CommandBuffer, frame int, imageIndex uint32, overlayIndices uint32) error {
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false); err != nil {
		return err
	}
	extent := r.swapchain.Extent
	r.renderPass.Begin(cb, r.swapchain.Framebuffers[imageIndex], extent)
	cb.SetViewport(extent)
	cb.SetScissor(extent)

	r.buffers.Bind(cb)
	r.drawScene(cb, frame)
	if overlayIndices > 0 {
		r.overlay.record(cb, frame, overlayIndices)
	}

	r.renderPass.End(cb)
	return cb.End()
}

// drawScene walks the meshes texture by texture so each texture set is
// bound once. Sets 0 and 1 have the same layout in every mesh pipeline and
// stay bound across pipeline switches.
func (r *Renderer) drawScene(cb hal.CommandBuffer, frame int) {
	idx := r.binder.Index
	s := r.scene
	var bound *Pipeline
	globalBound := false

	use := func(p *Pipeline) {
		if bound != p {
			p.Bind(cb)
			bound = p
		}
	}

	for _, g := range s.DrawGroups() {
		if len(g.Plain) == 0 && len(g.Tangent) == 0 {
			continue
		}
		textureSet := r.binder.Set(idx.Texture(frame, int(g.Texture)))
		textureBound := false
		bindShared := func(p *Pipeline) {
			switch {
			case !globalBound:
				cb.BindDescriptorSets(p.Layout, 0, []hal.DescriptorSet{r.binder.Set(idx.Global(frame)), textureSet})
				globalBound, textureBound = true, true
			case !textureBound:
				cb.BindDescriptorSets(p.Layout, 1, []hal.DescriptorSet{textureSet})
				textureBound = true
			}
		}

		if len(g.Plain) > 0 {
			use(&r.basic)
			bindShared(&r.basic)
			for _, i := range g.Plain {
				m := &s.Meshes[i]
				cb.BindDescriptorSets(r.basic.Layout, 2, []hal.DescriptorSet{r.binder.Set(idx.Mesh(frame, i))})
				cb.DrawIndexed(uint32(len(m.Indices)), uint32(m.IndexOffset), m.VertexOffset)
			}
		}

		if len(g.Tangent) == 0 {
			continue
		}
		p := &r.basicTangent
		if s.NormalMapping {
			p = &r.normalMapping
		}
		use(p)
		bindShared(p)
		for _, i := range g.Tangent {
			m := &s.TangentMeshes[i]
			model := r.binder.Set(idx.TangentMesh(frame, i))
			if s.NormalMapping {
				normalMap := r.binder.Set(idx.NormalMap(frame, int(m.NormalMapIndex)))
				cb.BindDescriptorSets(p.Layout, 2, []hal.DescriptorSet{normalMap, model})
			} else {
				cb.BindDescriptorSets(p.Layout, 2, []hal.DescriptorSet{model})
			}
			cb.DrawIndexed(uint32(len(m.Indices)), uint32(m.IndexOffset), m.VertexOffset)
		}
	}
}

// recreateSwapchain rebuilds everything sized by the window. While the
// window is minimized it blocks on window events.
func (r *Renderer) recreateSwapchain() error {
	width, height := r.surface.FramebufferSize()
	for width == 0 || height == 0 {
		r.surface.WaitEvents()
		width, height = r.surface.FramebufferSize()
	}
	if err := r.device.WaitIdle(); err != nil {
		return err
	}
	core.LogDebug("Recreating swapchain for %dx%d.", width, height)

	r.destroySwapchain()

	var err error
	if r.swapchain, err = createSwapchain(r.device, r.surface); err != nil {
		return err
	}
	if err := r.targets.CreateColorResources(r.swapchain.Format.Format, r.swapchain.Extent); err != nil {
		return err
	}
	if err := r.targets.CreateDepthResources(r.swapchain.Extent); err != nil {
		return err
	}
	return r.swapchain.createFramebuffers(r.device, r.renderPass.Handle, r.targets)
}

// destroySwapchain tears down in reverse creation order: MSAA color,
// depth, framebuffers, views, swapchain.
func (r *Renderer) destroySwapchain() {
	if r.targets != nil {
		r.targets.DestroyColorResources()
		r.targets.DestroyDepthResources()
	}
	if r.swapchain != nil {
		r.swapchain.destroyFramebuffers(r.device)
		r.swapchain.destroy(r.device)
	}
}

// Shutdown waits for the GPU to go idle and releases everything.
func (r *Renderer) Shutdown() error {
	if r.device == nil {
		return nil
	}
	err := r.device.WaitIdle()
	r.destroy()
	core.LogInfo("Renderer shut down.")
	return err
}

func (r *Renderer) destroy() {
	if r.device == nil {
		return
	}
	destroyFrameSlots(r.device, &r.frames)
	r.overlay.destroy(r.device)
	r.overlay = nil
	r.basic.Destroy(r.device)
	r.basicTangent.Destroy(r.device)
	r.normalMapping.Destroy(r.device)
	if r.binder != nil {
		r.binder.Destroy(r.device)
		r.binder = nil
	}
	r.normalMaps.Destroy()
	r.textures.Destroy()
	r.buffers.Destroy()
	r.normalMaps, r.textures, r.buffers = nil, nil, nil
	r.destroySwapchain()
	r.swapchain = nil
	r.renderPass.Destroy(r.device)
	r.renderPass = nil
	r.device.Destroy()
	r.device = nil
}
