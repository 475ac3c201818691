package renderer

import (
	"fmt"
	"sort"
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/hal/haltest"
)

type span struct {
	name       string
	start, end uint64
}

func TestUniformLayoutDoesNotOverlap(t *testing.T) {
	for _, alignment := range []uint64{16, 64, 256} {
		l := NewUniformLayout(alignment, 3)

		var spans []span
		for f := 0; f < MaxFramesInFlight; f++ {
			spans = append(spans,
				span{"vp", l.ViewProjectionOffset(f), l.ViewProjectionOffset(f) + ViewProjectionSize},
				span{"frag", l.FragmentOffset(f), l.FragmentOffset(f) + FragmentSize},
			)
			for m := 0; m < 3; m++ {
				spans = append(spans, span{"model", l.ModelOffset(f, m), l.ModelOffset(f, m) + ModelSize})
			}
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		for i, s := range spans {
			if s.start%alignment != 0 {
				t.Errorf("alignment %d: %s at %d is unaligned", alignment, s.name, s.start)
			}
			if i > 0 && spans[i-1].end > s.start {
				t.Errorf("alignment %d: %s [%d,%d) overlaps %s [%d,%d)", alignment,
					spans[i-1].name, spans[i-1].start, spans[i-1].end, s.name, s.start, s.end)
			}
		}
		if last := spans[len(spans)-1]; last.end > l.Size() {
			t.Errorf("alignment %d: last uniform ends at %d past size %d", alignment, last.end, l.Size())
		}
	}
}

func TestUniformLayoutOffsets(t *testing.T) {
	l := NewUniformLayout(256, 2)
	// 256 (vp) + 512 (frag) + 2*256 (models)
	if l.FrameStride() != 1280 || l.Size() != 2560 {
		t.Fatalf("stride %d size %d", l.FrameStride(), l.Size())
	}
	if l.FragmentOffset(0) != 256 || l.ModelOffset(0, 0) != 768 || l.ModelOffset(1, 1) != 1280+1024 {
		t.Errorf("offsets frag=%d model0=%d model(1,1)=%d", l.FragmentOffset(0), l.ModelOffset(0, 0), l.ModelOffset(1, 1))
	}
	if NewUniformLayout(256, 2) != l {
		t.Error("layout is not deterministic")
	}
}

func TestDescriptorIndexOrder(t *testing.T) {
	d := DescriptorIndex{Textures: 2, NormalMaps: 1, Meshes: 3, TangentMeshes: 2}
	if d.SetsPerFrame() != 9 {
		t.Fatalf("sets per frame = %d", d.SetsPerFrame())
	}
	seen := map[int]string{}
	claim := func(i int, what string) {
		if prev, ok := seen[i]; ok {
			t.Errorf("set %d used by %s and %s", i, prev, what)
		}
		seen[i] = what
	}
	for f := 0; f < MaxFramesInFlight; f++ {
		claim(d.Global(f), "global")
		for i := 0; i < d.Textures; i++ {
			claim(d.Texture(f, i), "texture")
		}
		for i := 0; i < d.NormalMaps; i++ {
			claim(d.NormalMap(f, i), "normal map")
		}
		for i := 0; i < d.Meshes; i++ {
			claim(d.Mesh(f, i), "mesh")
		}
		for i := 0; i < d.TangentMeshes; i++ {
			claim(d.TangentMesh(f, i), "tangent mesh")
		}
	}
	claim(d.Overlay(), "overlay")
	if len(seen) != d.TotalSets() {
		t.Errorf("%d sets claimed, %d total", len(seen), d.TotalSets())
	}
	for i := 0; i < d.TotalSets(); i++ {
		if _, ok := seen[i]; !ok {
			t.Errorf("set %d unused", i)
		}
	}
	if d.Global(1) != 9 || d.Texture(1, 1) != 11 || d.NormalMap(0, 0) != 3 || d.TangentMesh(1, 0) != 9+7 {
		t.Errorf("unexpected positions")
	}
}

func TestDescriptorPoolSizes(t *testing.T) {
	d := DescriptorIndex{Textures: 2, NormalMaps: 1, Meshes: 3, TangentMeshes: 2}
	p := d.PoolSizes()
	if p.MaxSets != 2*9+1 || p.UniformBuffers != 2*(5+2) || p.CombinedImageSamplers != 2*3+1 {
		t.Errorf("pool sizes = %+v", p)
	}
}

// The fake pool rejects over-allocation, so a successful Initialize plus a
// pool filled to the brim shows the sizes are exact.
func TestDescriptorPoolIsExactlyFull(t *testing.T) {
	r, _, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	pool := r.binder.Pool.(*haltest.DescriptorPool)
	if pool.Sets != pool.Desc.MaxSets || pool.Uniforms != pool.Desc.UniformBuffers || pool.Samplers != pool.Desc.CombinedImageSamplers {
		t.Errorf("pool used %d/%d sets %d/%d uniforms %d/%d samplers",
			pool.Sets, pool.Desc.MaxSets, pool.Uniforms, pool.Desc.UniformBuffers, pool.Samplers, pool.Desc.CombinedImageSamplers)
	}
}

func TestDescriptorWritesMatchUniformLayout(t *testing.T) {
	r, dev, _ := newTestRenderer(t, haltest.NewAdapter("gpu"))
	defer r.Shutdown()

	idx := r.binder.Index
	byID := map[string]uint64{}
	for _, w := range dev.Writes {
		if w.Buffer != nil {
			byID[fmt.Sprintf("%s/%d", w.Set.ID(), w.Binding)] = w.Offset
		}
	}
	for f := 0; f < MaxFramesInFlight; f++ {
		global := string(r.binder.Set(idx.Global(f)).ID())
		if byID[global+"/0"] != r.layout.ViewProjectionOffset(f) || byID[global+"/1"] != r.layout.FragmentOffset(f) {
			t.Errorf("frame %d global set points at %d/%d", f, byID[global+"/0"], byID[global+"/1"])
		}
		tangent := string(r.binder.Set(idx.TangentMesh(f, 0)).ID())
		if got, want := byID[tangent+"/0"], r.layout.ModelOffset(f, len(r.scene.Meshes)); got != want {
			t.Errorf("frame %d tangent mesh model at %d, want %d", f, got, want)
		}
	}
}
