package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/renderer/hal/haltest"
	"github.com/spaghettifunk/prism/engine/scene"
	"github.com/spaghettifunk/prism/engine/ui"
)

func TestInitializeAndShutdownLeaveNothingBehind(t *testing.T) {
	adapter := haltest.NewAdapter("gpu")
	r, dev, _ := newTestRenderer(t, adapter)

	if r.basic.State != PipelineCreated || r.normalMapping.State != PipelineCreated || r.overlay.pipeline.State != PipelineCreated {
		t.Errorf("pipelines not created")
	}
	if got := dev.Live("swapchain"); got != 1 {
		t.Errorf("%d swapchains", got)
	}
	if got := dev.Live("framebuffer"); got != 3 {
		t.Errorf("%d framebuffers, want one per swapchain image", got)
	}
	for i := 0; i < 4; i++ {
		if err := r.DrawFrame(nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked: %v", leaks)
	}
	if len(dev.DoubleFrees) != 0 {
		t.Errorf("double frees: %v", dev.DoubleFrees)
	}
	if err := r.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestFailedInitializeReleasesEverything(t *testing.T) {
	adapter := haltest.NewAdapter("gpu")
	// Room for the 4x MSAA color target but not for the depth target.
	adapter.MemoryBudget = 8 << 20

	win := newFakeWindow()
	r := New(testConfig(), win)
	s := testScene()
	err := r.Initialize(&haltest.Instance{AdapterList: []*haltest.Adapter{adapter}}, s, testAssets(s))
	if !errors.Is(err, core.ErrOutOfDeviceMemory) {
		t.Fatalf("got %v, want out of device memory", err)
	}
	dev := adapter.Opened
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked after failed init: %v", leaks)
	}
	if len(dev.DoubleFrees) != 0 {
		t.Errorf("double frees: %v", dev.DoubleFrees)
	}
}

func TestInitializeRejectsMissingTextures(t *testing.T) {
	win := newFakeWindow()
	r := New(testConfig(), win)
	s := testScene()
	assets := testAssets(s)
	assets.Textures = assets.Textures[:1]
	err := r.Initialize(&haltest.Instance{AdapterList: []*haltest.Adapter{haltest.NewAdapter("gpu")}}, s, assets)
	if !errors.Is(err, core.ErrResourceCreation) {
		t.Fatalf("got %v", err)
	}
}

func TestFramePacing(t *testing.T) {
	r, dev, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	slotOf := map[core.ResourceID]int{}
	for i := range r.frames {
		slotOf[r.frames[i].inFlight.ID()] = i
	}
	eyeX := func(slot int) float32 {
		off := r.layout.FragmentOffset(slot) + scene.LightsSize
		return gomath.Float32frombits(binary.LittleEndian.Uint32(r.buffers.UniformData[off:]))
	}

	var atWait []float32
	dev.OnWaitForFence = func(f hal.Fence) {
		slot, ok := slotOf[f.ID()]
		if !ok {
			t.Errorf("waited on unknown fence %s", f.ID())
			return
		}
		atWait = append(atWait, eyeX(slot))
	}
	dev.ResetCalls()

	for k := 0; k < 10; k++ {
		if got := r.CurrentFrame(); got != k%2 {
			t.Fatalf("frame %d uses slot %d", k, got)
		}
		r.scene.Camera.Position = math.NewVec3(float32(k+1), 0, 0)
		if err := r.DrawFrame(nil); err != nil {
			t.Fatal(err)
		}
		// The slot still held the uniforms of frame k-2 when its fence was waited on.
		want := float32(0)
		if k >= 2 {
			want = float32(k - 1)
		}
		if atWait[k] != want {
			t.Errorf("frame %d: slot held eye x %v at fence wait, want %v", k, atWait[k], want)
		}
		if got := eyeX(k % 2); got != float32(k+1) {
			t.Errorf("frame %d: slot holds eye x %v after drawing", k, got)
		}
	}

	var want []string
	for k := 0; k < 10; k++ {
		fence := r.frames[k%2].inFlight.ID()
		cb := r.frames[k%2].commandBuffer.ID()
		want = append(want,
			fmt.Sprintf("WaitForFence %s", fence),
			fmt.Sprintf("AcquireNextImage %d", k%3),
			fmt.Sprintf("ResetFence %s", fence),
			fmt.Sprintf("Submit %s", cb),
			fmt.Sprintf("Present %d", k%3),
		)
	}
	if strings.Join(dev.Calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls\n got %v\nwant %v", dev.Calls, want)
	}
}

func TestStaleAcquireSkipsFrame(t *testing.T) {
	r, dev, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	dev.StaleAcquire = func(n int) bool { return n == 0 }
	dev.ResetCalls()
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}
	for _, c := range dev.Calls {
		if strings.HasPrefix(c, "ResetFence") || strings.HasPrefix(c, "Submit") || strings.HasPrefix(c, "Present") {
			t.Errorf("skipped frame still called %q", c)
		}
	}
	if !contains(dev.Calls, "CreateSwapchain 800x600 images=3") {
		t.Errorf("swapchain not recreated: %v", dev.Calls)
	}
	if r.CurrentFrame() != 0 {
		t.Errorf("skipped frame advanced to slot %d", r.CurrentFrame())
	}

	dev.ResetCalls()
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}
	if !contains(dev.Calls, "Submit "+string(r.frames[0].commandBuffer.ID())) || r.CurrentFrame() != 1 {
		t.Errorf("frame after recreate not drawn: %v", dev.Calls)
	}
}

func TestStalePresentRecreatesAfterSubmit(t *testing.T) {
	r, dev, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	dev.StalePresent = func(n int) bool { return n == 0 }
	dev.ResetCalls()
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}
	if !contains(dev.Calls, "Present 0 stale") || !contains(dev.Calls, "DestroySwapchain") {
		t.Errorf("calls %v", dev.Calls)
	}
	if r.CurrentFrame() != 1 {
		t.Errorf("submitted frame did not advance")
	}
}

func TestPresentFailureIsNotMaskedByResize(t *testing.T) {
	r, dev, win := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	dev.PresentError = func(n int) error {
		return fmt.Errorf("VK_ERROR_DEVICE_LOST: %w", core.ErrResourceCreation)
	}
	win.resized = true
	dev.ResetCalls()
	err := r.DrawFrame(nil)
	if !errors.Is(err, core.ErrResourceCreation) {
		t.Fatalf("DrawFrame = %v, want the present error", err)
	}
	if contains(dev.Calls, "DestroySwapchain") {
		t.Errorf("swapchain recreated after a fatal present error: %v", dev.Calls)
	}
	if r.CurrentFrame() != 0 {
		t.Errorf("failed frame advanced to slot %d", r.CurrentFrame())
	}
}

func commands(r *Renderer, frame int) []string {
	return r.frames[frame].commandBuffer.(*haltest.CommandBuffer).Commands
}

// drawCommands returns the recorded commands from the first pipeline bind
// up to the end of the render pass.
func drawCommands(cmds []string) []string {
	start := 0
	for i, c := range cmds {
		if strings.HasPrefix(c, "BindPipeline") {
			start = i
			break
		}
	}
	return cmds[start:]
}

func TestDrawOrder(t *testing.T) {
	r, _, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}

	idx := r.binder.Index
	set := func(i int) string { return string(r.binder.Set(i).ID()) }
	want := []string{
		"BindPipeline " + string(r.basic.Handle.ID()),
		fmt.Sprintf("BindDescriptorSets 0 [%s %s]", set(idx.Global(0)), set(idx.Texture(0, 0))),
		fmt.Sprintf("BindDescriptorSets 2 [%s]", set(idx.Mesh(0, 0))),
		"DrawIndexed 6 0 0",
		"BindPipeline " + string(r.normalMapping.Handle.ID()),
		fmt.Sprintf("BindDescriptorSets 2 [%s %s]", set(idx.NormalMap(0, 0)), set(idx.TangentMesh(0, 0))),
		"DrawIndexed 6 12 0",
		"BindPipeline " + string(r.basic.Handle.ID()),
		fmt.Sprintf("BindDescriptorSets 1 [%s]", set(idx.Texture(0, 1))),
		fmt.Sprintf("BindDescriptorSets 2 [%s]", set(idx.Mesh(0, 1))),
		"DrawIndexed 6 6 4",
		"EndRenderPass",
	}
	got := drawCommands(commands(r, 0))
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("draw commands\n got %v\nwant %v", got, want)
	}

	head := commands(r, 0)[:6]
	fb := r.swapchain.Framebuffers[0].ID()
	wantHead := []string{
		fmt.Sprintf("BeginRenderPass %s 800x600 color=[0 0 0 1] depth=1", fb),
		"SetViewport 800x600",
		"SetScissor 800x600",
		fmt.Sprintf("BindVertexBuffer 0 %s 0", r.buffers.Vertices.Handle.ID()),
		fmt.Sprintf("BindVertexBuffer 1 %s %d", r.buffers.Vertices.Handle.ID(), r.scene.PlainVertexBytes()),
		fmt.Sprintf("BindIndexBuffer %s 0", r.buffers.Indices.Handle.ID()),
	}
	if strings.Join(head, "\n") != strings.Join(wantHead, "\n") {
		t.Errorf("frame setup\n got %v\nwant %v", head, wantHead)
	}
}

func TestNormalMappingToggle(t *testing.T) {
	r, _, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	r.scene.NormalMapping = false
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}
	idx := r.binder.Index
	got := drawCommands(commands(r, 0))
	if got[4] != "BindPipeline "+string(r.basicTangent.Handle.ID()) {
		t.Errorf("tangent meshes drawn with %q", got[4])
	}
	if want := fmt.Sprintf("BindDescriptorSets 2 [%s]", r.binder.Set(idx.TangentMesh(0, 0)).ID()); got[5] != want {
		t.Errorf("got %q, want %q", got[5], want)
	}
	for _, c := range got {
		if c == "BindPipeline "+string(r.normalMapping.Handle.ID()) {
			t.Error("normal mapping pipeline bound while disabled")
		}
	}
}

func TestOverlayDrawnLast(t *testing.T) {
	r, _, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	data := &ui.DrawData{}
	data.AddQuad(-1, -1, 0, 0, 0, 0, 1, 1, math.NewVec4(1, 1, 1, 1))
	if err := r.DrawFrame(data); err != nil {
		t.Fatal(err)
	}
	cmds := commands(r, 0)
	tail := cmds[len(cmds)-6:]
	want := []string{
		"BindPipeline " + string(r.overlay.pipeline.Handle.ID()),
		fmt.Sprintf("BindVertexBuffer 0 %s 0", r.overlay.vertices[0].Handle.ID()),
		fmt.Sprintf("BindIndexBuffer %s 0", r.overlay.indices[0].Handle.ID()),
		fmt.Sprintf("BindDescriptorSets 0 [%s]", r.overlay.set.ID()),
		"DrawIndexed 6 0 0",
		"EndRenderPass",
	}
	if strings.Join(tail, "\n") != strings.Join(want, "\n") {
		t.Errorf("overlay commands\n got %v\nwant %v", tail, want)
	}

	// An empty overlay records nothing extra.
	if err := r.DrawFrame(&ui.DrawData{}); err != nil {
		t.Fatal(err)
	}
	for _, c := range commands(r, 1) {
		if c == "BindPipeline "+string(r.overlay.pipeline.Handle.ID()) {
			t.Error("empty overlay bound its pipeline")
		}
	}
}

func TestPipelineLifecycle(t *testing.T) {
	r, dev, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	desc := dev.Pipelines[r.basic.Handle.ID()]
	if desc == nil {
		t.Fatal("basic pipeline not recorded")
	}
	if desc.CullMode != hal.CullModeBack || !desc.DepthTest || !desc.DepthWrite || desc.DepthCompare != hal.CompareOpLess {
		t.Errorf("fixed state = %+v", desc)
	}
	if desc.Samples != hal.SampleCount4 {
		t.Errorf("pipeline samples %d, want 4", desc.Samples)
	}
	if !desc.Blend.Enabled || desc.Blend.SrcColor != hal.BlendFactorSrcAlpha || desc.Blend.DstColor != hal.BlendFactorOneMinusSrcAlpha {
		t.Errorf("blend = %+v", desc.Blend)
	}
	if overlay := dev.Pipelines[r.overlay.pipeline.Handle.ID()]; overlay.DepthTest || overlay.CullMode != hal.CullModeNone {
		t.Errorf("overlay state = %+v", overlay)
	}

	err := r.basic.Create(r.device, r.renderPass, hal.SampleCount4, PipelineConfig{Name: "basic"})
	if err == nil {
		t.Error("creating a created pipeline succeeded")
	}

	var p Pipeline
	if err := p.Create(r.device, r.renderPass, hal.SampleCount1, PipelineConfig{
		Name:           "scratch",
		VertexShader:   spirv,
		FragmentShader: spirv,
		Vertex:         PlainVertexLayout(),
		SetLayouts:     r.binder.MeshSetLayouts(),
	}); err != nil {
		t.Fatal(err)
	}
	p.Destroy(r.device)
	p.Destroy(r.device)
	if p.State != PipelineDestroyed {
		t.Errorf("state %s", p.State)
	}
	if len(dev.DoubleFrees) != 0 {
		t.Errorf("double frees: %v", dev.DoubleFrees)
	}
}

func TestTextureUpload(t *testing.T) {
	adapter := haltest.NewAdapter("gpu")
	adapter.Features[hal.FormatR8G8B8Srgb] = hal.FormatFeatureSampledImage | hal.FormatFeatureTransferDst
	r, _, _ := newTestRenderer(t, adapter)
	defer r.Shutdown()

	if r.textures.Len() != 2 || r.normalMaps.Len() != 1 {
		t.Fatalf("%d textures %d normal maps", r.textures.Len(), r.normalMaps.Len())
	}
	if r.normalMaps.Format != hal.FormatR8G8B8Srgb {
		t.Errorf("normal map format %d, want RGB", r.normalMaps.Format)
	}
	for _, img := range append(r.textures.Images, r.normalMaps.Images...) {
		fake := img.Handle.(*haltest.Image)
		if fake.Layout != hal.ImageLayoutShaderReadOnlyOptimal {
			t.Errorf("image %s left in layout %d", img.Handle.ID(), fake.Layout)
		}
		if fake.Offset%adapter.ImageAlignment != 0 {
			t.Errorf("image %s bound at unaligned offset %d", img.Handle.ID(), fake.Offset)
		}
	}
	// Both textures share one allocation.
	a, b := r.textures.Images[0].Handle.(*haltest.Image), r.textures.Images[1].Handle.(*haltest.Image)
	if a.Memory != b.Memory || a.Offset == b.Offset {
		t.Errorf("textures at %s+%d and %s+%d", a.Memory.ID(), a.Offset, b.Memory.ID(), b.Offset)
	}
}

func TestRGBUploadOffsetsAreTexelAligned(t *testing.T) {
	d := openTestDevice(t)
	dev := d.Handle.(*haltest.Device)
	alloc := NewAllocator(d)

	// 1x1, 3x1 and 5x1 RGB textures are 3, 9 and 15 bytes long.
	textures := []TextureData{solidTexture(1, 1), solidTexture(3, 1), solidTexture(5, 1), solidTexture(1, 1)}
	arr, err := UploadTextures(alloc, d, textures, hal.FormatR8G8B8Srgb)
	if err != nil {
		t.Fatal(err)
	}
	bpp := bytesPerPixel(hal.FormatR8G8B8Srgb)
	seen := map[uint64]bool{}
	for _, img := range arr.Images {
		off := img.Handle.(*haltest.Image).CopyOffset
		if off%bpp != 0 || off%4 != 0 {
			t.Errorf("image %s copied from offset %d, not a multiple of 4 and %d", img.Handle.ID(), off, bpp)
		}
		if seen[off] {
			t.Errorf("two images copied from offset %d", off)
		}
		seen[off] = true
	}
	arr.Destroy()
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}

func TestStagingAlignment(t *testing.T) {
	for _, tt := range []struct{ bpp, want uint64 }{
		{3, 12},
		{4, 4},
	} {
		if got := stagingAlignment(tt.bpp); got != tt.want {
			t.Errorf("stagingAlignment(%d) = %d, want %d", tt.bpp, got, tt.want)
		}
	}
}

func TestNormalMapFallsBackToRGBA(t *testing.T) {
	if got := NormalMapFormat(haltest.NewAdapter("gpu")); got != hal.FormatR8G8B8A8Srgb {
		t.Errorf("got %d", got)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
