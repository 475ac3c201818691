package renderer

import (
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

// Surface is what the renderer needs from the window it draws into.
type Surface interface {
	Handle() hal.Surface
	// FramebufferSize is the drawable size in pixels; 0x0 while minimized.
	FramebufferSize() (width, height uint32)
	// WaitEvents blocks until the window system has something to report.
	WaitEvents()
	// ConsumeResized reports whether the window was resized since the
	// last call and clears the flag.
	ConsumeResized() bool
}

type Swapchain struct {
	Handle      hal.Swapchain
	Format      hal.SurfaceFormat
	PresentMode hal.PresentMode
	Extent      hal.Extent2D
	Images      []hal.Image
	Views       []hal.ImageView

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []hal.Framebuffer
}

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB and otherwise takes the
// first format the surface offers.
func ChooseSurfaceFormat(formats []hal.SurfaceFormat) hal.SurfaceFormat {
	for _, f := range formats {
		if f.Format == hal.FormatB8G8R8A8Srgb && f.ColorSpace == hal.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox. FIFO is always available.
func ChoosePresentMode(modes []hal.PresentMode) hal.PresentMode {
	for _, m := range modes {
		if m == hal.PresentModeMailbox {
			return m
		}
	}
	return hal.PresentModeFifo
}

// ChooseExtent uses the surface's current extent unless the surface leaves
// the size to the window, in which case the framebuffer size is clamped to
// the allowed range.
func ChooseExtent(caps hal.SurfaceCapabilities, width, height uint32) hal.Extent2D {
	if caps.CurrentExtent.Width != gomath.MaxUint32 {
		return caps.CurrentExtent
	}
	return hal.Extent2D{
		Width:  math.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A maximum of
// zero means there is no limit.
func ChooseImageCount(caps hal.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// createSwapchain creates the swapchain and one view per image.
func createSwapchain(device *Device, surface Surface) (*Swapchain, error) {
	adapter := device.Adapter
	handle := surface.Handle()

	caps, err := adapter.SurfaceCapabilities(handle)
	if err != nil {
		return nil, err
	}
	formats := adapter.SurfaceFormats(handle)
	if len(formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats: %w", core.ErrUnsupportedConfiguration)
	}

	width, height := surface.FramebufferSize()
	sc := &Swapchain{
		Format:      ChooseSurfaceFormat(formats),
		PresentMode: ChoosePresentMode(adapter.PresentModes(handle)),
		Extent:      ChooseExtent(caps, width, height),
	}

	sc.Handle, err = device.Handle.CreateSwapchain(hal.SwapchainDescriptor{
		Surface:       handle,
		MinImageCount: ChooseImageCount(caps),
		Format:        sc.Format,
		Extent:        sc.Extent,
		PresentMode:   sc.PresentMode,
		QueueFamilies: device.QueueFamilies(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create swapchain: %w", err)
	}

	sc.Images, err = device.Handle.SwapchainImages(sc.Handle)
	if err != nil {
		sc.destroy(device)
		return nil, err
	}
	for _, img := range sc.Images {
		view, err := device.Handle.CreateImageView(img, sc.Format.Format, hal.ImageAspectColor)
		if err != nil {
			sc.destroy(device)
			return nil, fmt.Errorf("failed to create swapchain image view: %w", err)
		}
		sc.Views = append(sc.Views, view)
	}
	core.LogInfo("Swapchain created: %dx%d, %d images.", sc.Extent.Width, sc.Extent.Height, len(sc.Images))
	return sc, nil
}

// createFramebuffers attaches the multisampled color target, the depth
// target and the swapchain view that receives the resolve.
func (sc *Swapchain) createFramebuffers(device *Device, renderPass hal.RenderPass, targets *RenderTargets) error {
	for _, view := range sc.Views {
		fb, err := device.Handle.CreateFramebuffer(hal.FramebufferDescriptor{
			RenderPass:  renderPass,
			Attachments: []hal.ImageView{targets.Color.View, targets.Depth.View, view},
			Extent:      sc.Extent,
		})
		if err != nil {
			return fmt.Errorf("failed to create framebuffer: %w", err)
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}
	return nil
}

func (sc *Swapchain) destroyFramebuffers(device *Device) {
	for _, fb := range sc.Framebuffers {
		device.Handle.DestroyFramebuffer(fb)
	}
	sc.Framebuffers = nil
}

// destroy releases views and the swapchain. The images belong to the
// swapchain and go with it.
func (sc *Swapchain) destroy(device *Device) {
	for _, view := range sc.Views {
		device.Handle.DestroyImageView(view)
	}
	sc.Views = nil
	sc.Images = nil
	if sc.Handle != nil {
		device.Handle.DestroySwapchain(sc.Handle)
		sc.Handle = nil
	}
}
