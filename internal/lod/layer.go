package lod

import "github.com/Faultbox/celestial-sim/pkg/math"

// Layer mutates vertex positions after each topology change. updated marks
// the vertices added since the previous call. A layer must not resize the
// slices.
type Layer interface {
	Apply(positions []math.Vec4, updated []bool) error
}

// LayerFunc adapts a function to Layer.
type LayerFunc func(positions []math.Vec4, updated []bool) error

// Apply calls f.
func (f LayerFunc) Apply(positions []math.Vec4, updated []bool) error {
	return f(positions, updated)
}

// SphereLayer lifts new vertices onto the sphere of the given radius.
type SphereLayer struct {
	Radius float32
}

// Apply projects every updated vertex radially onto the sphere.
func (s SphereLayer) Apply(positions []math.Vec4, updated []bool) error {
	for i, u := range updated {
		if !u {
			continue
		}
		p := positions[i]
		positions[i] = p.XYZ().Normalize().Scale(s.Radius).Vec4(p[3])
	}
	return nil
}
