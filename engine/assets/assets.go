package assets

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/scene"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeModel
	AssetTypeMaterial
	AssetTypeImage
	AssetTypeLights
	AssetTypeShader
)

// AssetManager watches the files a scene was built from. When one of them
// changes the scene cache is removed, so the next start rebuilds it from
// source. It never touches GPU objects.
type AssetManager struct {
	cachePath string
	files     map[string]AssetType

	mutex   sync.RWMutex
	stale   bool
	changed []string

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(cachePath string) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		cachePath: cachePath,
		files:     make(map[string]AssetType),
		fsnotify:  fsWatch,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go am.start()
	return am, nil
}

// Watch registers source files. Their directories are watched rather than
// the files themselves because editors often save by renaming over the
// original.
func (am *AssetManager) Watch(paths ...string) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		am.files[abs] = determineAssetType(abs)
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := am.fsnotify.Add(dir); err != nil {
			return err
		}
	}
	return nil
}

// Stale reports whether a watched file changed since the last call, and
// which ones did.
func (am *AssetManager) Stale() (bool, []string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	stale, changed := am.stale, am.changed
	am.stale, am.changed = false, nil
	return stale, changed
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// handleFileEvent drops the cache when a watched source file changes.
func (am *AssetManager) handleFileEvent(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	assetType, ok := am.files[abs]
	if !ok {
		return
	}
	if err := scene.InvalidateCache(am.cachePath); err != nil {
		core.LogError("failed to invalidate scene cache %s: %s", am.cachePath, err)
		return
	}
	core.LogInfo("%s changed (type %d), scene cache invalidated.", path, assetType)
	am.stale = true
	am.changed = append(am.changed, abs)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".obj":
		return AssetTypeModel
	case ".mtl":
		return AssetTypeMaterial
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp", ".tga":
		return AssetTypeImage
	case ".txt", ".lights":
		return AssetTypeLights
	case ".spv":
		return AssetTypeShader
	default:
		return AssetTypeNone
	}
}
