package loaders

import (
	"bufio"
	"fmt"
	"io"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

// LoadLights reads a lights file into lights. Each line names one light:
//
//	pna x y z  r g b                              unattenuated point light
//	dir x y z  r g b                              directional light
//	pwa x y z  r g b  falloff                     point light with falloff
//	spo x y z  tx ty tz  r g b  penumbra umbra falloff
//
// Spot lights point from their position at the target (tx, ty, tz); the
// cone angles are in degrees. Unknown lines are ignored.
func LoadLights(path string, lights *scene.Lights) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := ParseLights(file, lights); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func ParseLights(r io.Reader, lights *scene.Lights) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var want int
		switch fields[0] {
		case "pna", "dir":
			want = 6
		case "pwa":
			want = 7
		case "spo":
			want = 12
		default:
			continue
		}
		v, err := parseFloats(fields[1:], want)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch fields[0] {
		case "pna":
			err = lights.AddUnattenuated(scene.UnattenuatedPointLight{
				Position: math.NewVec4(v[0], v[1], v[2], 1),
				Color:    math.NewVec4(v[3], v[4], v[5], 1),
			})
		case "dir":
			err = lights.AddDirectional(scene.DirectionalLight{
				Direction: math.NewVec4(v[0], v[1], v[2], 0),
				Color:     math.NewVec4(v[3], v[4], v[5], 1),
			})
		case "pwa":
			err = lights.AddPoint(scene.PointLight{
				Position: math.NewVec4(v[0], v[1], v[2], 1),
				Color:    math.NewVec4(v[3], v[4], v[5], 1),
				Falloff:  v[6],
			})
		case "spo":
			err = lights.AddSpot(scene.SpotLight{
				Position:    math.NewVec4(v[0], v[1], v[2], 1),
				Direction:   math.NewVec4(v[3]-v[0], v[4]-v[1], v[5]-v[2], 0),
				Color:       math.NewVec4(v[6], v[7], v[8], 1),
				CosPenumbra: cosDegrees(v[9]),
				CosUmbra:    cosDegrees(v[10]),
				Falloff:     v[11],
			})
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

func cosDegrees(deg float32) float32 {
	return float32(gomath.Cos(float64(math.DegToRad(deg))))
}
