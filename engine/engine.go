package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/hal"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
	"github.com/spaghettifunk/prism/engine/scene"
	"github.com/spaghettifunk/prism/engine/ui"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       core.Config

	isSuspended   bool
	quitRequested atomic.Bool

	platform     *platform.Platform
	input        *core.Input
	assetManager *assets.AssetManager
	instance     *vulkan.Instance
	surface      hal.Surface
	renderer     *renderer.Renderer
	scene        *scene.Scene
	overlay      *ui.Overlay

	clock   *core.Clock
	metrics *core.Metrics
}

func New(g *Game) (*Engine, error) {
	cfg, err := core.LoadConfig(g.ApplicationConfig.ConfigPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(cfg.Log.Level)

	input := core.NewInput()
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		input:        input,
		platform:     platform.New(input),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := e.platform.Startup(e.config.Window); err != nil {
		return err
	}

	camera := scene.NewCamera(e.config.Camera)
	bundle, err := assets.Load(e.config, camera)
	if err != nil {
		return err
	}
	e.scene = bundle.Scene
	e.overlay = ui.NewOverlay(bundle.Font)

	if e.config.Scene.WatchAssets && e.config.Scene.CachePath != "" {
		if e.assetManager, err = assets.NewAssetManager(e.config.Scene.CachePath); err != nil {
			return err
		}
		if err := e.assetManager.Watch(bundle.Sources...); err != nil {
			core.LogWarn("asset watching disabled: %s", err)
		}
	}

	e.instance, err = vulkan.NewInstance(e.gameInstance.ApplicationConfig.Name, e.config.Renderer, e.platform.RequiredInstanceExtensions())
	if err != nil {
		return fmt.Errorf("failed to create Vulkan instance: %w", err)
	}
	if e.surface, err = e.instance.CreateSurface(e.platform.Window); err != nil {
		return err
	}
	e.platform.AttachSurface(e.surface)

	e.renderer = renderer.New(e.config.Renderer, e.platform)
	if err := e.renderer.Initialize(e.instance, e.scene, bundle.Assets); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	defer e.clock.Stop()

	for !e.quitRequested.Load() {
		if !e.platform.PumpMessages() {
			break
		}

		width, height := e.platform.FramebufferSize()
		if width == 0 || height == 0 {
			if !e.isSuspended {
				core.LogInfo("Window minimized, suspending application.")
				e.isSuspended = true
			}
			e.platform.WaitEvents()
			continue
		}
		if e.isSuspended {
			core.LogInfo("Window restored, resuming application.")
			e.isSuspended = false
		}

		delta := e.clock.Tick()
		frameStartTime := platform.GetAbsoluteTime()

		if e.input.KeyReleased(core.KEY_ESCAPE) {
			core.LogInfo("Escape pressed, shutting down.")
			break
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				core.LogError("Game update failed, shutting down: %s", err)
				return err
			}
		}

		if e.assetManager != nil {
			if stale, changed := e.assetManager.Stale(); stale {
				core.LogWarn("%d scene source file(s) changed, restart to reload: %v", len(changed), changed)
			}
		}

		extent := e.renderer.Extent()
		drawData := e.overlay.Build(ui.Stats{
			FPS:           e.metrics.FPS(),
			FrameTimeMs:   e.metrics.FrameTime(),
			MeshName:      e.scene.CurrentDebugName(),
			NormalMapping: e.scene.NormalMapping,
		}, extent.Width, extent.Height)

		if err := e.renderer.DrawFrame(drawData); err != nil {
			core.LogError("Frame failed, shutting down: %s", err)
			return err
		}

		frameEndTime := platform.GetAbsoluteTime()
		e.metrics.Update(frameEndTime - frameStartTime)

		// Input state is copied last so the next frame sees this frame's
		// presses as previous state.
		e.input.Update()
	}
	return nil
}

// RequestQuit makes Run return after the current frame. Safe to call from
// any goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
}

// Shutdown releases everything in reverse creation order. Must be called
// from the goroutine that ran Initialize.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	var firstErr error
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			firstErr = err
		}
	}
	if e.instance != nil {
		e.instance.DestroySurface(e.surface)
		e.instance.Destroy()
	}
	if e.assetManager != nil {
		e.assetManager.Close()
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.platform.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (e *Engine) Config() core.Config {
	return e.config
}

func (e *Engine) Input() *core.Input {
	return e.input
}

func (e *Engine) Scene() *scene.Scene {
	return e.scene
}

func (e *Engine) Overlay() *ui.Overlay {
	return e.overlay
}

func (e *Engine) Platform() *platform.Platform {
	return e.platform
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}
