package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]AssetType{
		"scene.obj":      AssetTypeModel,
		"scene.mtl":      AssetTypeMaterial,
		"brick.webp":     AssetTypeImage,
		"lights.txt":     AssetTypeLights,
		"basic.vert.spv": AssetTypeShader,
		"README":         AssetTypeNone,
	}
	for path, want := range tests {
		if got := determineAssetType(path); got != want {
			t.Errorf("determineAssetType(%q) = %d, want %d", path, got, want)
		}
	}
}

func TestWatcherInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "scene.obj")
	other := filepath.Join(dir, "notes.obj")
	cache := filepath.Join(dir, "scene.bin")
	for _, p := range []string{model, other, cache} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	am, err := NewAssetManager(cache)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Close()
	if err := am.Watch(model); err != nil {
		t.Fatal(err)
	}

	// Files in the same directory that are not watched leave the cache alone.
	if err := os.WriteFile(other, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if stale, _ := am.Stale(); stale {
		t.Fatal("unwatched file marked the scene stale")
	}

	if err := os.WriteFile(model, []byte("v 0 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		stale, changed := am.Stale()
		if stale {
			if len(changed) == 0 || filepath.Base(changed[0]) != "scene.obj" {
				t.Fatalf("changed = %v", changed)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change not reported")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(cache); !os.IsNotExist(err) {
		t.Fatalf("cache still present: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	am, err := NewAssetManager(filepath.Join(t.TempDir(), "scene.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Close(); err != nil {
		t.Fatal(err)
	}
	if err := am.Close(); err != nil {
		t.Fatal(err)
	}
	if err := am.Watch("scene.obj"); err == nil {
		t.Fatal("Watch after Close succeeded")
	}
}
