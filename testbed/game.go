package testbed

import (
	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	debugMode bool
}

func NewTestGame(configPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:       "Prism",
				ConfigPath: configPath,
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("testbed initialized: T toggles debug mode, M normal mapping, N/B cycle meshes.")
	g.setDebugMode(e, false)
	return nil
}

// Update steers the camera outside debug mode and handles the debug keys
// inside it.
func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	state := g.State.(*gameState)
	input := e.Input()
	s := e.Scene()

	if input.KeyReleased(core.KEY_T) {
		g.setDebugMode(e, !state.debugMode)
	}

	if !state.debugMode {
		s.Camera.ProcessMouse(input.MousePosition())
		s.Camera.ProcessKeyboard(input, float32(deltaTime))
		return nil
	}

	if input.KeyReleased(core.KEY_M) {
		s.NormalMapping = !s.NormalMapping
		core.LogDebug("normal mapping: %t", s.NormalMapping)
	}
	if input.KeyReleased(core.KEY_N) {
		core.LogDebug("debug mesh: %s", s.NextDebugName())
	}
	if input.KeyReleased(core.KEY_B) {
		core.LogDebug("debug mesh: %s", s.PrevDebugName())
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shut down.")
	return nil
}

// setDebugMode releases the cursor and shows the overlay in debug mode;
// otherwise the cursor is captured for mouse look.
func (g *TestGame) setDebugMode(e *engine.Engine, on bool) {
	state := g.State.(*gameState)
	state.debugMode = on

	s := e.Scene()
	s.DebugMode = on
	e.Overlay().Visible = on
	e.Platform().CaptureCursor(!on)
	if !on {
		s.Camera.SetFirstMouse()
	}
}
