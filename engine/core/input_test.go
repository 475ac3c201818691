package core

import "testing"

func TestInputKeyReleasedEdge(t *testing.T) {
	in := NewInput()

	in.ProcessKey(KEY_T, true)
	if in.KeyReleased(KEY_T) {
		t.Fatal("pressed key reported as released")
	}
	in.Update()

	in.ProcessKey(KEY_T, false)
	if !in.KeyReleased(KEY_T) {
		t.Fatal("release edge not reported")
	}
	in.Update()

	if in.KeyReleased(KEY_T) {
		t.Fatal("release edge reported twice")
	}
}

func TestInputIgnoresOutOfRange(t *testing.T) {
	in := NewInput()
	in.ProcessKey(KEYS_MAX_KEYS, true)
	in.ProcessButton(BUTTON_MAX_BUTTONS, true)
	if in.IsButtonDown(BUTTON_LEFT) {
		t.Fatal("unexpected button state")
	}
}

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	if got := m.FrameTime(); got < 9.99 || got > 10.01 {
		t.Fatalf("frame time = %f, want 10ms", got)
	}
	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	if m.FPS() < 99 || m.FPS() > 101 {
		t.Fatalf("fps = %f, want ~100", m.FPS())
	}
}
