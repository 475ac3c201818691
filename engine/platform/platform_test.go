package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/prism/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
		ok   bool
	}{
		{glfw.KeyW, core.KEY_W, true},
		{glfw.KeyT, core.KEY_T, true},
		{glfw.KeyEscape, core.KEY_ESCAPE, true},
		{glfw.KeySpace, core.KEY_SPACE, true},
		{glfw.KeyF1, 0, false},
	}
	for _, tt := range tests {
		got, ok := translateKey(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("translateKey(%d) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyCallbackFeedsInput(t *testing.T) {
	in := core.NewInput()
	p := New(in)

	p.keyCallback(nil, glfw.KeyN, 0, glfw.Press, 0)
	if !in.IsKeyDown(core.KEY_N) {
		t.Fatal("press not recorded")
	}
	in.Update()
	p.keyCallback(nil, glfw.KeyN, 0, glfw.Release, 0)
	if !in.KeyReleased(core.KEY_N) {
		t.Fatal("release edge not recorded")
	}
}

func TestFramebufferResizeIsConsumedOnce(t *testing.T) {
	p := New(core.NewInput())
	p.framebufferSizeCallback(nil, 640, 480)
	if !p.ConsumeResized() {
		t.Fatal("resize not reported")
	}
	if p.ConsumeResized() {
		t.Fatal("resize reported twice")
	}
}
