package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// Material is the part of a Wavefront material the renderer uses.
// Texture paths are resolved against the directory of the .mtl file.
type Material struct {
	Name         string
	DiffuseColor math.Vec4
	DiffuseMap   string
	NormalMap    string
}

// LoadMTL reads a material library. A missing file gives an empty library
// so scenes without materials still load with fallback textures.
func LoadMTL(path string) (map[string]Material, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		core.LogWarn("material library %s not found, using fallback textures", path)
		return map[string]Material{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseMTL(file, filepath.Dir(path))
}

func ParseMTL(r io.Reader, baseDir string) (map[string]Material, error) {
	materials := make(map[string]Material)
	var current *Material

	flush := func() {
		if current != nil {
			materials[current.Name] = *current
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		key, args := fields[0], fields[1:]

		if key == "newmtl" {
			flush()
			if len(args) == 0 {
				return nil, fmt.Errorf("line %d: newmtl without a name", lineNo)
			}
			current = &Material{
				Name:         strings.Join(args, " "),
				DiffuseColor: math.NewVec4(1, 1, 1, 1),
			}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "Kd":
			if len(args) < 3 {
				return nil, fmt.Errorf("line %d: Kd expects 3 values", lineNo)
			}
			var rgb [3]float32
			for i := range rgb {
				f, err := strconv.ParseFloat(args[i], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid Kd value %q", lineNo, args[i])
				}
				rgb[i] = float32(f)
			}
			current.DiffuseColor = math.NewVec4(rgb[0], rgb[1], rgb[2], current.DiffuseColor.W)
		case "d":
			if len(args) > 0 {
				if f, err := strconv.ParseFloat(args[0], 32); err == nil {
					current.DiffuseColor.W = float32(f)
				}
			}
		case "map_Kd":
			if p := mapPath(args); p != "" {
				current.DiffuseMap = filepath.Join(baseDir, p)
			}
		case "map_Bump", "map_bump", "bump", "norm":
			if p := mapPath(args); p != "" {
				current.NormalMap = filepath.Join(baseDir, p)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return materials, nil
}

// mapPath drops texture map options (-bm 1.0, -clamp on, ...) and returns
// the file name, which always comes last.
func mapPath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}
