package loaders

import (
	"image/color"
	"runtime"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/systems"
)

var (
	// FallbackTexture replaces missing diffuse maps.
	FallbackTexture = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// FallbackNormalMap is a flat surface pointing along +Z.
	FallbackNormalMap = color.RGBA{R: 128, G: 128, B: 255, A: 255}
)

// LoadTextures decodes paths in parallel, keeping their order. An empty
// path, or one that cannot be read, yields a 1x1 texture of fallback so
// indices stay aligned with the scene's texture set.
func LoadTextures(paths []string, fallback color.RGBA) []renderer.TextureData {
	out := make([]renderer.TextureData, len(paths))
	for i := range out {
		out[i] = SolidTexture(fallback)
	}

	workers := min(runtime.NumCPU(), len(paths))
	js, err := systems.NewJobSystem(max(workers, 1), len(paths))
	if err != nil {
		core.LogError("texture decoding: %s", err)
		return out
	}
	for i, path := range paths {
		if path == "" {
			continue
		}
		var data renderer.TextureData
		js.Submit(systems.JobTask{
			Name: path,
			OnStart: func() error {
				var err error
				data, err = LoadImage(path, true)
				return err
			},
			OnComplete: func() {
				out[i] = data
			},
			OnFailure: func(err error) {
				core.LogWarn("texture %s: %s, using fallback", path, err)
			},
		})
	}
	js.Shutdown()
	return out
}
