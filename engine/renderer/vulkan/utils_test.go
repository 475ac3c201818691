package vulkan

import (
	"errors"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
)

func TestCheckClassifiesResults(t *testing.T) {
	tests := []struct {
		result vk.Result
		want   error
	}{
		{vk.ErrorOutOfDeviceMemory, core.ErrOutOfDeviceMemory},
		{vk.ErrorOutOfHostMemory, core.ErrOutOfDeviceMemory},
		{vk.ErrorOutOfDate, core.ErrStaleSurface},
		{vk.ErrorOutOfPoolMemory, core.ErrDescriptorPoolExhausted},
		{vk.ErrorFeatureNotPresent, core.ErrUnsupportedConfiguration},
		{vk.ErrorInitializationFailed, core.ErrResourceCreation},
	}
	for _, tt := range tests {
		err := check(tt.result, "op")
		if !errors.Is(err, tt.want) {
			t.Errorf("check(%s) = %v, want %v", VulkanResultString(tt.result), err, tt.want)
		}
	}
}

func TestCheckPassesStatusCodes(t *testing.T) {
	for _, r := range []vk.Result{vk.Success, vk.Suboptimal, vk.Incomplete} {
		if err := check(r, "op"); err != nil {
			t.Errorf("check(%s) = %v, want nil", VulkanResultString(r), err)
		}
	}
}

func TestVulkanSafeStringsCopies(t *testing.T) {
	in := []string{"VK_KHR_swapchain", "VK_LAYER_KHRONOS_validation\x00", ""}
	out := VulkanSafeStrings(in)
	want := []string{"VK_KHR_swapchain\x00", "VK_LAYER_KHRONOS_validation\x00", "\x00"}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
	if in[0] != "VK_KHR_swapchain" {
		t.Fatalf("input was modified: %q", in[0])
	}
}

func TestRawHandlesNil(t *testing.T) {
	if s := raw[vk.Semaphore](nil); s != vk.NullSemaphore {
		t.Fatal("nil resource did not map to the null handle")
	}
	var sc hal.Swapchain
	if rawSwapchain(sc) != vk.NullSwapchain {
		t.Fatal("nil swapchain did not map to the null handle")
	}
}

func TestSafeQueueCallSerializesFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeQueueCall(0, func() error {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("peak concurrent calls = %d, want 1", peak)
	}
}

func TestSafeCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("boom")
	if err := pool.SafeCall(PipelineManagement, func() error { return want }); err != want {
		t.Fatalf("SafeCall = %v, want %v", err, want)
	}
}

func TestExternalDependencyWaitsForDepthWrites(t *testing.T) {
	dep := externalDependency()
	late := vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
	if dep.SrcStageMask&late == 0 {
		t.Errorf("source stages %#x miss late fragment tests", dep.SrcStageMask)
	}
	write := vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	if dep.SrcAccessMask&write == 0 {
		t.Errorf("source access %#x misses depth writes", dep.SrcAccessMask)
	}
	if dep.DstAccessMask&write == 0 {
		t.Errorf("destination access %#x misses depth writes", dep.DstAccessMask)
	}
}
