// Package camera provides an orbit camera around a celestial body.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/pkg/math"
)

// OrbitCamera looks at the body center from spherical coordinates. Zoom
// works on the altitude above the surface so approaching the ground slows
// down instead of overshooting it.
type OrbitCamera struct {
	// Radius of the body being orbited.
	Radius float32

	Distance float32 // from the body center
	Pitch    float32 // radians, positive looks down from above the equator
	Yaw      float32 // radians around the Y axis

	// MinAltitude and MaxDistance clamp Distance.
	MinAltitude float32
	MaxDistance float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
	FOV             float32 // vertical, degrees
}

// NewOrbitCamera places the camera distance body radii from the center.
func NewOrbitCamera(radius, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Radius:          radius,
		Distance:        distance * radius,
		Pitch:           0.3,
		MinAltitude:     radius * 1e-4,
		MaxDistance:     radius * 50,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             45,
	}
}

// Position returns the camera position in body space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return math.Vec3{
		X: c.Distance * cp * math32.Sin(c.Yaw),
		Y: c.Distance * math32.Sin(c.Pitch),
		Z: c.Distance * cp * math32.Cos(c.Yaw),
	}
}

// Altitude returns the height above the surface.
func (c *OrbitCamera) Altitude() float32 {
	return c.Distance - c.Radius
}

// ViewMatrix returns the view matrix looking at the body center.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), math.Vec3{}, math.Vec3{Y: 1})
}

// ProjectionMatrix returns a perspective projection whose near plane
// follows the altitude, keeping depth precision close to the surface.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := math32.Max(c.Altitude()*0.5, c.Radius*1e-5)
	far := c.Distance + c.Radius*2
	return math.Perspective(c.FOV*math32.Pi/180, aspect, near, far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	// Slow down near the surface so a drag covers a similar screen distance.
	scale := math32.Min(c.Altitude()/c.Radius, 1)
	c.Yaw -= deltaX * c.DragSensitivity * scale
	c.Pitch += deltaY * c.DragSensitivity * scale
	c.Pitch = math32.Max(-c.MaxPitch, math32.Min(c.MaxPitch, c.Pitch))
}

// HandleZoom moves the camera by a scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.SetAltitude(c.Altitude() * (1 - delta*c.ZoomSensitivity))
}

// SetAltitude places the camera at altitude above the surface, clamped to
// the configured range.
func (c *OrbitCamera) SetAltitude(altitude float32) {
	c.Distance = c.Radius + altitude
	c.Distance = math32.Max(c.Radius+c.MinAltitude, math32.Min(c.MaxDistance, c.Distance))
}

// Orbit advances the yaw by speed radians per second.
func (c *OrbitCamera) Orbit(speed, dt float32) {
	c.Yaw += speed * dt
	if c.Yaw > 2*math32.Pi {
		c.Yaw -= 2 * math32.Pi
	}
}
