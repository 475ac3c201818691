package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/prism/engine/renderer"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// LoadSPIRV reads a compiled shader module.
func LoadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

// LoadShaderPair reads <name>.vert.spv and <name>.frag.spv from dir.
func LoadShaderPair(dir, name string) (renderer.ShaderPair, error) {
	vert, err := LoadSPIRV(filepath.Join(dir, name+".vert.spv"))
	if err != nil {
		return renderer.ShaderPair{}, err
	}
	frag, err := LoadSPIRV(filepath.Join(dir, name+".frag.spv"))
	if err != nil {
		return renderer.ShaderPair{}, err
	}
	return renderer.ShaderPair{Vertex: vert, Fragment: frag}, nil
}

func LoadShaders(dir string) (renderer.Shaders, error) {
	var shaders renderer.Shaders
	var err error
	if shaders.Basic, err = LoadShaderPair(dir, "basic"); err != nil {
		return shaders, err
	}
	if shaders.NormalMapping, err = LoadShaderPair(dir, "normal_mapping"); err != nil {
		return shaders, err
	}
	if shaders.Overlay, err = LoadShaderPair(dir, "overlay"); err != nil {
		return shaders, err
	}
	return shaders, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a positive multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
