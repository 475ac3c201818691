package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

// Initialize runs once the scene is loaded and the renderer is ready.
type Initialize func(e *Engine) error

// Update runs every frame before the frame is drawn.
type Update func(e *Engine, deltaTime float64) error

type Shutdown func() error
