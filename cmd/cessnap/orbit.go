package main

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/pkg/math"
)

// orbitPitch lifts the camera above the equator so the poles show.
const orbitPitch = 0.35

type frame struct {
	Index    int
	Altitude float32 // in radii above the surface
	Azimuth  float32
	Eye      math.Vec3
}

// orbit plans n camera positions circling the body once while descending
// linearly from start to end altitude. The last frame sits at end.
func orbit(n int, radius, start, end float32) []frame {
	if n < 1 {
		n = 1
	}
	frames := make([]frame, n)
	for i := range frames {
		t := float32(1)
		if n > 1 {
			t = float32(i) / float32(n-1)
		}
		alt := start + (end-start)*t
		az := 2 * math32.Pi * float32(i) / float32(n)
		d := radius * (1 + alt)
		frames[i] = frame{
			Index:    i,
			Altitude: alt,
			Azimuth:  az,
			Eye: math.Vec3{
				X: d * math32.Cos(orbitPitch) * math32.Sin(az),
				Y: d * math32.Sin(orbitPitch),
				Z: d * math32.Cos(orbitPitch) * math32.Cos(az),
			},
		}
	}
	return frames
}
