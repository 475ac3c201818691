package scene

// Texture is an image referenced by path. An empty path stands for a
// generated 1x1 fallback.
type Texture struct {
	Path string
}

// TextureSet hands out one index per distinct path.
type TextureSet struct {
	Textures []Texture
	byPath   map[string]int32
}

func NewTextureSet() *TextureSet {
	return &TextureSet{byPath: make(map[string]int32)}
}

// Add returns the index of path, registering it on first use.
func (ts *TextureSet) Add(path string) int32 {
	if ts.byPath == nil {
		ts.byPath = make(map[string]int32)
	}
	if idx, ok := ts.byPath[path]; ok {
		return idx
	}
	idx := int32(len(ts.Textures))
	ts.Textures = append(ts.Textures, Texture{Path: path})
	ts.byPath[path] = idx
	return idx
}

func (ts *TextureSet) Len() int {
	return len(ts.Textures)
}

func (ts *TextureSet) Paths() []string {
	out := make([]string, len(ts.Textures))
	for i, t := range ts.Textures {
		out[i] = t.Path
	}
	return out
}
