package core

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseConfigOverridesDefaults(t *testing.T) {
	data := []byte(`
[window]
width = 1280
height = 720

[renderer]
msaa_ceiling = 8
enable_validation = false

[scene]
obj_path = "models/sponza.obj"
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("window = %dx%d, want 1280x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.MSAACeiling != 8 {
		t.Errorf("msaa ceiling = %d, want 8", cfg.Renderer.MSAACeiling)
	}
	if cfg.Renderer.EnableValidation {
		t.Errorf("validation should be disabled")
	}
	if cfg.Scene.ObjPath != "models/sponza.obj" {
		t.Errorf("obj path = %q", cfg.Scene.ObjPath)
	}
	// untouched keys keep their defaults
	if cfg.Window.Title != "Prism" {
		t.Errorf("title = %q, want default", cfg.Window.Title)
	}
	if cfg.Camera.Position != [3]float32{0, 0, 3} {
		t.Errorf("camera position = %v", cfg.Camera.Position)
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero window":   "[window]\nwidth = 0\n",
		"bad msaa":      "[renderer]\nmsaa_ceiling = 3\n",
		"inverted clip": "[renderer]\nnear_clip = 10.0\nfar_clip = 1.0\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			if !errors.Is(err, ErrUnsupportedConfiguration) {
				t.Fatalf("err = %v, want ErrUnsupportedConfiguration", err)
			}
		})
	}
}

func TestParseConfigMalformed(t *testing.T) {
	if _, err := ParseConfig([]byte("[window\nwidth = ")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("window = %dx%d, want 800x600", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.MSAACeiling != 4 {
		t.Errorf("msaa ceiling = %d, want 4", cfg.Renderer.MSAACeiling)
	}
}
