package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is read once at startup and handed by value to every subsystem
// that needs it. Nothing mutates it afterwards.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
	Scene    SceneConfig    `toml:"scene"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	EnableValidation   bool     `toml:"enable_validation"`
	ValidationLayers   []string `toml:"validation_layers"`
	DeviceExtensions   []string `toml:"device_extensions"`
	MSAACeiling        uint32   `toml:"msaa_ceiling"`
	MaxAnisotropy      float32  `toml:"max_anisotropy"`
	ShaderDir          string   `toml:"shader_dir"`
	FieldOfViewDegrees float32  `toml:"fov_degrees"`
	NearClip           float32  `toml:"near_clip"`
	FarClip            float32  `toml:"far_clip"`
}

type CameraConfig struct {
	Position    [3]float32 `toml:"position"`
	Front       [3]float32 `toml:"front"`
	Up          [3]float32 `toml:"up"`
	Speed       float32    `toml:"speed"`
	Sensitivity float32    `toml:"sensitivity"`
}

type SceneConfig struct {
	ObjPath    string `toml:"obj_path"`
	MtlPath    string `toml:"mtl_path"`
	LightsPath string `toml:"lights_path"`
	CachePath  string `toml:"cache_path"`
	FontPath   string `toml:"font_path"`
	// Watch the asset directories and drop the cache when a source changes.
	WatchAssets bool `toml:"watch_assets"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:  "Prism",
			X:      100,
			Y:      100,
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			EnableValidation:   true,
			ValidationLayers:   []string{"VK_LAYER_KHRONOS_validation"},
			DeviceExtensions:   []string{"VK_KHR_swapchain"},
			MSAACeiling:        4,
			MaxAnisotropy:      4,
			ShaderDir:          "shaders",
			FieldOfViewDegrees: 45,
			NearClip:           0.1,
			FarClip:            100,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 3},
			Front:       [3]float32{0, 0, -1},
			Up:          [3]float32{0, 1, 0},
			Speed:       2.5,
			Sensitivity: 0.1,
		},
		Scene: SceneConfig{
			ObjPath:     "assets/models/scene.obj",
			MtlPath:     "assets/models/scene.mtl",
			LightsPath:  "config/lights.txt",
			CachePath:   "cache/scene.bin",
			FontPath:    "assets/fonts/overlay.fnt",
			WatchAssets: true,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// LoadConfig decodes path over the defaults. A missing file yields the
// defaults; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		LogWarn("config file %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size %dx%d: %w", c.Window.Width, c.Window.Height, ErrUnsupportedConfiguration)
	}
	switch c.Renderer.MSAACeiling {
	case 1, 2, 4, 8, 16, 32, 64:
	default:
		return fmt.Errorf("msaa_ceiling %d is not a power of two up to 64: %w", c.Renderer.MSAACeiling, ErrUnsupportedConfiguration)
	}
	if c.Renderer.NearClip <= 0 || c.Renderer.FarClip <= c.Renderer.NearClip {
		return fmt.Errorf("clip planes near=%f far=%f: %w", c.Renderer.NearClip, c.Renderer.FarClip, ErrUnsupportedConfiguration)
	}
	return nil
}
