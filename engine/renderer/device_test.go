package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/renderer/hal/haltest"
)

func TestSelectDeviceSkipsUnsuitableAdapters(t *testing.T) {
	noPresent := haltest.NewAdapter("no-present")
	noPresent.Families = []hal.QueueFamily{{Index: 0, Graphics: true}}
	noSwapchain := haltest.NewAdapter("no-swapchain")
	noSwapchain.Exts = nil
	noAniso := haltest.NewAdapter("no-anisotropy")
	noAniso.Anisotropy = false
	noFormats := haltest.NewAdapter("no-formats")
	noFormats.Formats = nil
	good := haltest.NewAdapter("good")

	instance := &haltest.Instance{AdapterList: []*haltest.Adapter{noPresent, noSwapchain, noAniso, noFormats, good}}
	d, err := SelectDevice(instance, haltest.NewSurface(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if d.Adapter.Name() != "good" {
		t.Errorf("selected %s", d.Adapter.Name())
	}
	if !good.OpenedWith.SamplerAnisotropy || good.OpenedWith.Extensions[0] != "VK_KHR_swapchain" {
		t.Errorf("opened with %+v", good.OpenedWith)
	}
	for _, a := range []*haltest.Adapter{noPresent, noSwapchain, noAniso, noFormats} {
		if a.Opened != nil {
			t.Errorf("unsuitable adapter %s was opened", a.AdapterName)
		}
	}
}

func TestSelectDeviceNoneSuitable(t *testing.T) {
	bad := haltest.NewAdapter("bad")
	bad.Anisotropy = false
	for _, instance := range []*haltest.Instance{
		{},
		{AdapterList: []*haltest.Adapter{bad}},
	} {
		if _, err := SelectDevice(instance, haltest.NewSurface(), testConfig()); !errors.Is(err, core.ErrUnsupportedConfiguration) {
			t.Errorf("error = %v, want ErrUnsupportedConfiguration", err)
		}
	}
}

func TestSelectDeviceSeparatePresentFamily(t *testing.T) {
	a := haltest.NewAdapter("split")
	a.Families = []hal.QueueFamily{{Index: 0, Graphics: true}, {Index: 1, Present: true}}
	d, err := SelectDevice(&haltest.Instance{AdapterList: []*haltest.Adapter{a}}, haltest.NewSurface(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if d.GraphicsFamily != 0 || d.PresentFamily != 1 || len(d.QueueFamilies()) != 2 {
		t.Errorf("families = %d/%d %v", d.GraphicsFamily, d.PresentFamily, d.QueueFamilies())
	}
}

func openTestDevice(t *testing.T) *Device {
	t.Helper()
	d, err := SelectDevice(&haltest.Instance{AdapterList: []*haltest.Adapter{haltest.NewAdapter("gpu")}}, haltest.NewSurface(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestFindMemoryType(t *testing.T) {
	d := openTestDevice(t)
	tests := []struct {
		bits  uint32
		props hal.MemoryPropertyFlags
		want  uint32
		err   bool
	}{
		{0b11, hal.MemoryPropertyDeviceLocal, 0, false},
		{0b11, hal.MemoryPropertyHostVisible | hal.MemoryPropertyHostCoherent, 1, false},
		{0b01, hal.MemoryPropertyHostVisible, 0, true},
		{0b11, hal.MemoryPropertyDeviceLocal | hal.MemoryPropertyHostVisible, 0, true},
	}
	for _, tt := range tests {
		got, err := d.FindMemoryType(tt.bits, tt.props)
		if tt.err {
			if !errors.Is(err, core.ErrUnsupportedConfiguration) {
				t.Errorf("FindMemoryType(%b, %x) error = %v", tt.bits, tt.props, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FindMemoryType(%b, %x) = %d, %v; want %d", tt.bits, tt.props, got, err, tt.want)
		}
	}
}

func TestDeviceAlignUp(t *testing.T) {
	d := openTestDevice(t)
	for _, tt := range []struct{ in, want uint64 }{
		{80, 256},
		{256, 256},
		{257, 512},
		{0, 0},
	} {
		if got := d.AlignUp(tt.in); got != tt.want {
			t.Errorf("AlignUp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCreateBufferReleasesOnFailure(t *testing.T) {
	d := openTestDevice(t)
	dev := d.Handle.(*haltest.Device)
	alloc := NewAllocator(d)

	dev.FailBindBuffer = true
	if _, err := alloc.CreateBuffer(64, hal.BufferUsageUniform, hal.MemoryPropertyHostVisible); err == nil {
		t.Fatal("expected bind failure")
	}
	dev.FailBindBuffer = false
	dev.FailAllocate = true
	if _, err := alloc.CreateBuffer(64, hal.BufferUsageUniform, hal.MemoryPropertyHostVisible); !errors.Is(err, core.ErrOutOfDeviceMemory) {
		t.Fatalf("allocation failure error = %v", err)
	}
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("failed creations left %v", leaks)
	}
}

func TestBufferDestroyIsIdempotent(t *testing.T) {
	d := openTestDevice(t)
	dev := d.Handle.(*haltest.Device)
	buf, err := NewAllocator(d).CreateBuffer(64, hal.BufferUsageUniform, hal.MemoryPropertyHostVisible|hal.MemoryPropertyHostCoherent)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Write(16, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if got := buf.Memory.Memory.(*haltest.Memory).Data[17]; got != 2 {
		t.Errorf("written byte = %d", got)
	}
	buf.Destroy()
	buf.Destroy()
	if buf.Valid() {
		t.Error("destroyed buffer still valid")
	}
	if len(dev.DoubleFrees) != 0 || dev.Live("") != 0 {
		t.Errorf("double frees %v, live %v", dev.DoubleFrees, dev.Leaks())
	}
	// Handle goes before memory.
	if len(dev.Released) != 2 || dev.Released[0] != "buffer" || dev.Released[1] != "memory" {
		t.Errorf("release order = %v", dev.Released)
	}
}

func TestUploadToDeviceLocal(t *testing.T) {
	d := openTestDevice(t)
	dev := d.Handle.(*haltest.Device)
	data := []byte("vertex data")
	buf, err := NewAllocator(d).UploadToDeviceLocal(data, hal.BufferUsageVertex)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(buf.Handle.(*haltest.Buffer).Bytes()); got != string(data) {
		t.Errorf("device buffer holds %q", got)
	}
	if buf.Memory.TypeIndex != 0 {
		t.Errorf("device local buffer in memory type %d", buf.Memory.TypeIndex)
	}
	buf.Destroy()
	if leaks := dev.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}
