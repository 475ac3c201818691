package renderer

import (
	gomath "math"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/renderer/hal/haltest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := hal.SurfaceFormat{Format: hal.FormatB8G8R8A8Srgb, ColorSpace: hal.ColorSpaceSrgbNonlinear}
	unorm := hal.SurfaceFormat{Format: hal.FormatB8G8R8A8Unorm, ColorSpace: hal.ColorSpaceSrgbNonlinear}
	if got := ChooseSurfaceFormat([]hal.SurfaceFormat{unorm, srgb}); got != srgb {
		t.Errorf("got %+v, want sRGB", got)
	}
	if got := ChooseSurfaceFormat([]hal.SurfaceFormat{unorm}); got != unorm {
		t.Errorf("fallback got %+v", got)
	}
}

func TestChoosePresentMode(t *testing.T) {
	if got := ChoosePresentMode([]hal.PresentMode{hal.PresentModeFifo, hal.PresentModeMailbox}); got != hal.PresentModeMailbox {
		t.Errorf("got %d, want mailbox", got)
	}
	if got := ChoosePresentMode([]hal.PresentMode{hal.PresentModeImmediate}); got != hal.PresentModeFifo {
		t.Errorf("got %d, want fifo", got)
	}
}

func TestChooseExtent(t *testing.T) {
	caps := hal.SurfaceCapabilities{
		CurrentExtent:  hal.Extent2D{Width: gomath.MaxUint32},
		MinImageExtent: hal.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: hal.Extent2D{Width: 1000, Height: 1000},
	}
	if got := ChooseExtent(caps, 5000, 50); got != (hal.Extent2D{Width: 1000, Height: 100}) {
		t.Errorf("clamped extent = %+v", got)
	}
	caps.CurrentExtent = hal.Extent2D{Width: 640, Height: 480}
	if got := ChooseExtent(caps, 5000, 50); got != caps.CurrentExtent {
		t.Errorf("fixed extent = %+v", got)
	}
}

func TestChooseImageCount(t *testing.T) {
	for _, tt := range []struct{ min, max, want uint32 }{
		{2, 8, 3},
		{2, 2, 2},
		{3, 0, 4},
	} {
		if got := ChooseImageCount(hal.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}); got != tt.want {
			t.Errorf("min %d max %d: got %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestMaxUsableSampleCount(t *testing.T) {
	all := hal.SampleCount1 | hal.SampleCount2 | hal.SampleCount4 | hal.SampleCount8
	for _, tt := range []struct {
		color, depth hal.SampleCount
		ceiling      uint32
		want         hal.SampleCount
	}{
		{all, all, 4, hal.SampleCount4},
		{all, all, 64, hal.SampleCount8},
		{all, hal.SampleCount1 | hal.SampleCount2, 4, hal.SampleCount2},
		{hal.SampleCount1, all, 4, hal.SampleCount1},
	} {
		got := MaxUsableSampleCount(hal.Limits{FramebufferColorSampleCounts: tt.color, FramebufferDepthSampleCounts: tt.depth}, tt.ceiling)
		if got != tt.want {
			t.Errorf("color %b depth %b ceiling %d: got %d, want %d", tt.color, tt.depth, tt.ceiling, got, tt.want)
		}
	}
}

func TestFindDepthFormat(t *testing.T) {
	a := haltest.NewAdapter("gpu")
	a.Features = map[hal.Format]hal.FormatFeature{hal.FormatD24UnormS8Uint: hal.FormatFeatureDepthStencilAttachment}
	if f, err := FindDepthFormat(a); err != nil || f != hal.FormatD24UnormS8Uint {
		t.Errorf("got %d, %v", f, err)
	}
	a.Features = nil
	if _, err := FindDepthFormat(a); err == nil {
		t.Error("expected an error without depth formats")
	}
}

func TestSwapchainResizeRoundTrip(t *testing.T) {
	r, dev, win := newTestRenderer(t, haltest.NewAdapter("gpu"))
	before := map[string]int{}
	for _, kind := range []string{"", "image", "imageview", "framebuffer", "memory", "swapchain"} {
		before[kind] = dev.Live(kind)
	}

	win.width, win.height = 1024, 768
	win.resized = true
	dev.ResetCalls()
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}

	if r.Extent() != (hal.Extent2D{Width: 1024, Height: 768}) {
		t.Errorf("extent after resize = %+v", r.Extent())
	}
	for kind, n := range before {
		if got := dev.Live(kind); got != n {
			t.Errorf("live %q objects: %d before resize, %d after", kind, n, got)
		}
	}
	for id, fb := range dev.Framebuffers {
		if fb.Extent.Width != 1024 || fb.Extent.Height != 768 {
			t.Errorf("framebuffer %s is %+v", id, fb.Extent)
		}
	}
	if r.targets.Color.Extent.Width != 1024 || r.targets.Depth.Extent.Height != 768 {
		t.Errorf("render targets not resized")
	}

	// MSAA color, depth, framebuffers, views, swapchain.
	want := []string{"imageview", "image", "memory", "imageview", "image", "memory",
		"framebuffer", "framebuffer", "framebuffer", "imageview", "imageview", "imageview", "swapchain"}
	if strings.Join(dev.Released, ",") != strings.Join(want, ",") {
		t.Errorf("teardown order\n got %v\nwant %v", dev.Released, want)
	}

	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked after resize and shutdown: %v", leaks)
	}
}

func TestRecreateWaitsWhileMinimized(t *testing.T) {
	r, dev, win := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	dev.StaleAcquire = func(n int) bool { return n == 0 }
	win.sizes = [][2]uint32{{0, 0}, {0, 0}}
	if err := r.DrawFrame(nil); err != nil {
		t.Fatal(err)
	}
	if win.waits != 2 {
		t.Errorf("waited %d times, want 2", win.waits)
	}
}
