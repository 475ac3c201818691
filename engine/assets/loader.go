package assets

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/scene"
	"github.com/spaghettifunk/prism/engine/ui"
)

// Bundle is everything read from disk before the renderer starts.
type Bundle struct {
	Scene  *scene.Scene
	Assets renderer.Assets
	// Font is nil when no overlay font could be loaded.
	Font *ui.Font
	// Sources lists the files the bundle was built from.
	Sources []string
}

// Load builds the scene from the cache when it is valid for the configured
// model, otherwise from the model itself, and decodes every texture and
// shader the renderer needs.
func Load(cfg core.Config, camera *scene.Camera) (*Bundle, error) {
	sc := cfg.Scene

	s, err := loadScene(sc, camera)
	if err != nil {
		return nil, err
	}

	if sc.LightsPath != "" {
		err := loaders.LoadLights(sc.LightsPath, &s.Lights)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			core.LogWarn("lights file %s not found, scene is unlit", sc.LightsPath)
		case err != nil:
			return nil, err
		}
	}

	b := &Bundle{Scene: s}
	b.Assets.Textures = loaders.LoadTextures(s.Textures.Paths(), loaders.FallbackTexture)
	b.Assets.NormalMaps = loaders.LoadTextures(s.NormalMaps.Paths(), loaders.FallbackNormalMap)

	if b.Assets.Shaders, err = loaders.LoadShaders(cfg.Renderer.ShaderDir); err != nil {
		return nil, fmt.Errorf("failed to load shaders: %w", err)
	}

	if sc.FontPath != "" {
		font, atlas, err := loaders.LoadFont(sc.FontPath)
		if err != nil {
			core.LogWarn("overlay disabled: %s", err)
		} else {
			b.Font = font
			b.Assets.FontAtlas = &atlas
		}
	}

	b.Sources = append(b.Sources, sc.ObjPath, sc.MtlPath, sc.LightsPath)
	b.Sources = append(b.Sources, s.Textures.Paths()...)
	b.Sources = append(b.Sources, s.NormalMaps.Paths()...)
	return b, nil
}

func loadScene(sc core.SceneConfig, camera *scene.Camera) (*scene.Scene, error) {
	if sc.CachePath != "" {
		s, err := scene.ReadCache(sc.CachePath, sc.ObjPath, camera)
		switch {
		case err == nil:
			s.AssignOffsets()
			core.LogInfo("Scene loaded from cache %s.", sc.CachePath)
			return s, nil
		case errors.Is(err, fs.ErrNotExist):
			core.LogDebug("no scene cache at %s", sc.CachePath)
		default:
			core.LogWarn("ignoring scene cache: %s", err)
		}
	}

	s, err := loaders.LoadOBJ(sc.ObjPath, sc.MtlPath, camera)
	if err != nil {
		return nil, err
	}
	if sc.CachePath != "" {
		if err := scene.WriteCache(sc.CachePath, s); err != nil {
			core.LogWarn("failed to write scene cache %s: %s", sc.CachePath, err)
		}
	}
	return s, nil
}
