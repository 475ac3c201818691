package scene

import (
	gomath "math"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

const MaxPitchDegrees float32 = 89.0

// KeyState is the slice of input the camera reads.
type KeyState interface {
	IsKeyDown(key core.KeyCode) bool
}

// Camera is a free-fly camera driven by WASD and mouse look.
type Camera struct {
	Position math.Vec3
	Front    math.Vec3
	Up       math.Vec3

	// degrees
	Yaw   float32
	Pitch float32

	Speed       float32
	Sensitivity float32

	firstMouse bool
	lastX      float64
	lastY      float64
}

func NewCamera(cfg core.CameraConfig) *Camera {
	front := math.NewVec3FromArray(cfg.Front).Normalized()
	return &Camera{
		Position:    math.NewVec3FromArray(cfg.Position),
		Front:       front,
		Up:          math.NewVec3FromArray(cfg.Up),
		Yaw:         math.RadToDeg(float32(gomath.Atan2(float64(front.Z), float64(front.X)))),
		Pitch:       math.RadToDeg(float32(gomath.Asin(float64(front.Y)))),
		Speed:       cfg.Speed,
		Sensitivity: cfg.Sensitivity,
		firstMouse:  true,
	}
}

// SetFirstMouse makes the next mouse position a reference point only, so
// grabbing the cursor does not jerk the view.
func (c *Camera) SetFirstMouse() {
	c.firstMouse = true
}

// ProcessMouse turns an absolute cursor position into yaw and pitch.
// Pitch is clamped to [-89, 89] degrees.
func (c *Camera) ProcessMouse(x, y float64) {
	if c.firstMouse {
		c.lastX, c.lastY = x, y
		c.firstMouse = false
		return
	}
	xOffset := float32(x-c.lastX) * c.Sensitivity
	yOffset := float32(c.lastY-y) * c.Sensitivity
	c.lastX, c.lastY = x, y

	c.Yaw += xOffset
	c.Pitch = math.Clamp(c.Pitch+yOffset, -MaxPitchDegrees, MaxPitchDegrees)
	c.updateFront()
}

func (c *Camera) updateFront() {
	yaw := math.DegToRad(c.Yaw)
	pitch := math.DegToRad(c.Pitch)
	c.Front = math.NewVec3(
		math.Cos(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Sin(yaw)*math.Cos(pitch),
	).Normalized()
}

// ProcessKeyboard moves the camera for deltaTime seconds.
func (c *Camera) ProcessKeyboard(keys KeyState, deltaTime float32) {
	step := c.Speed * deltaTime
	right := c.Front.Cross(c.Up).Normalized()
	if keys.IsKeyDown(core.KEY_W) {
		c.Position = c.Position.Add(c.Front.MulScalar(step))
	}
	if keys.IsKeyDown(core.KEY_S) {
		c.Position = c.Position.Sub(c.Front.MulScalar(step))
	}
	if keys.IsKeyDown(core.KEY_A) {
		c.Position = c.Position.Sub(right.MulScalar(step))
	}
	if keys.IsKeyDown(core.KEY_D) {
		c.Position = c.Position.Add(right.MulScalar(step))
	}
}

func (c *Camera) View() math.Mat4 {
	return math.NewMat4LookAt(c.Position, c.Position.Add(c.Front), c.Up)
}
