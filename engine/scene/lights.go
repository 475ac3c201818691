package scene

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// MaxLightsPerKind is the array length of each light kind in the shader.
const MaxLightsPerKind = 2

// Byte layout of the light block (std140) and the fragment uniform that
// wraps it together with the eye position.
const (
	lightCountsSize       = 16
	unattenuatedLightSize = 32
	directionalLightSize  = 32
	pointLightSize        = 48
	spotLightSize         = 64

	offsetUnattenuated = lightCountsSize
	offsetDirectional  = offsetUnattenuated + MaxLightsPerKind*unattenuatedLightSize
	offsetPoint        = offsetDirectional + MaxLightsPerKind*directionalLightSize
	offsetSpot         = offsetPoint + MaxLightsPerKind*pointLightSize

	LightsSize          = offsetSpot + MaxLightsPerKind*spotLightSize
	FragmentUniformSize = LightsSize + 16
)

type UnattenuatedPointLight struct {
	Position math.Vec4
	Color    math.Vec4
}

type DirectionalLight struct {
	Direction math.Vec4
	Color     math.Vec4
}

type PointLight struct {
	Position math.Vec4
	Color    math.Vec4
	Falloff  float32
}

// SpotLight cone edges are stored as cosines of the half angles.
type SpotLight struct {
	Position    math.Vec4
	Direction   math.Vec4
	Color       math.Vec4
	CosPenumbra float32
	CosUmbra    float32
	Falloff     float32
}

// Lights is the fixed-capacity light aggregate uploaded as one block.
type Lights struct {
	Unattenuated []UnattenuatedPointLight
	Directional  []DirectionalLight
	Point        []PointLight
	Spot         []SpotLight
}

func capacityError(kind string) error {
	return fmt.Errorf("more than %d %s lights: %w", MaxLightsPerKind, kind, core.ErrLightCapacity)
}

func (l *Lights) AddUnattenuated(light UnattenuatedPointLight) error {
	if len(l.Unattenuated) == MaxLightsPerKind {
		return capacityError("unattenuated point")
	}
	l.Unattenuated = append(l.Unattenuated, light)
	return nil
}

func (l *Lights) AddDirectional(light DirectionalLight) error {
	if len(l.Directional) == MaxLightsPerKind {
		return capacityError("directional")
	}
	l.Directional = append(l.Directional, light)
	return nil
}

func (l *Lights) AddPoint(light PointLight) error {
	if len(l.Point) == MaxLightsPerKind {
		return capacityError("point")
	}
	l.Point = append(l.Point, light)
	return nil
}

func (l *Lights) AddSpot(light SpotLight) error {
	if len(l.Spot) == MaxLightsPerKind {
		return capacityError("spot")
	}
	l.Spot = append(l.Spot, light)
	return nil
}

func putFloat(dst []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(dst[off:], gomath.Float32bits(v))
}

func putVec4(dst []byte, off int, v math.Vec4) {
	putFloat(dst, off, v.X)
	putFloat(dst, off+4, v.Y)
	putFloat(dst, off+8, v.Z)
	putFloat(dst, off+12, v.W)
}

// Pack writes the light block into dst, which must hold LightsSize bytes.
// Unused slots are zeroed.
func (l *Lights) Pack(dst []byte) {
	clear(dst[:LightsSize])
	binary.LittleEndian.PutUint32(dst[0:], uint32(len(l.Unattenuated)))
	binary.LittleEndian.PutUint32(dst[4:], uint32(len(l.Directional)))
	binary.LittleEndian.PutUint32(dst[8:], uint32(len(l.Point)))
	binary.LittleEndian.PutUint32(dst[12:], uint32(len(l.Spot)))

	for i, u := range l.Unattenuated {
		off := offsetUnattenuated + i*unattenuatedLightSize
		putVec4(dst, off, u.Position)
		putVec4(dst, off+16, u.Color)
	}
	for i, d := range l.Directional {
		off := offsetDirectional + i*directionalLightSize
		putVec4(dst, off, d.Direction)
		putVec4(dst, off+16, d.Color)
	}
	for i, p := range l.Point {
		off := offsetPoint + i*pointLightSize
		putVec4(dst, off, p.Position)
		putVec4(dst, off+16, p.Color)
		putFloat(dst, off+32, p.Falloff)
	}
	for i, s := range l.Spot {
		off := offsetSpot + i*spotLightSize
		putVec4(dst, off, s.Position)
		putVec4(dst, off+16, s.Direction)
		putVec4(dst, off+32, s.Color)
		putFloat(dst, off+48, s.CosPenumbra)
		putFloat(dst, off+52, s.CosUmbra)
		putFloat(dst, off+56, s.Falloff)
	}
}

// PackFragmentUniform writes the lights followed by the eye position.
func PackFragmentUniform(dst []byte, lights *Lights, eye math.Vec3) {
	clear(dst[:FragmentUniformSize])
	lights.Pack(dst)
	putFloat(dst, LightsSize, eye.X)
	putFloat(dst, LightsSize+4, eye.Y)
	putFloat(dst, LightsSize+8, eye.Z)
}

// PackMat4 writes m column by column.
func PackMat4(dst []byte, m math.Mat4) {
	for i, v := range m.Data {
		putFloat(dst, i*4, v)
	}
}
