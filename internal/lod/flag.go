package lod

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/internal/compute"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// flagParams are the per-update inputs of the flagging pass.
type flagParams struct {
	camera     math.Vec3
	maxDepth   uint32
	radius     float32
	target     float32
	mergeRatio float32
}

// apparentSize is the longest edge of t over the distance from the camera
// to the centroid of t lifted onto the sphere.
func (g *Graph) apparentSize(t TriangleID, p flagParams) float32 {
	c := g.corners(t)
	longest := math32.Max(c[0].Distance(c[1]), math32.Max(c[1].Distance(c[2]), c[2].Distance(c[0])))

	centroid := c[0].Add(c[1]).Add(c[2]).Scale(1.0 / 3)
	surface := centroid.Normalize().Scale(p.radius)
	dist := p.camera.Distance(surface)
	if dist < 1e-6 {
		return math32.MaxFloat32
	}
	return longest / dist
}

// flag sets toDivide on oversized leaves and toMerge on parents whose
// children all became small.
//
// Each slot writes its own toDivide. toMerge of a divided parent is written
// by its A child only; any other slot writes its own toMerge as false.
func (g *Graph) flag(d *compute.Dispatcher, p flagParams) {
	d.For(g.tris.Len(), func(i int) {
		t := TriangleID(i)
		state := g.State(t)

		divide := false
		if state == Leaf && g.tris.level.At(i) < p.maxDepth {
			divide = g.apparentSize(t, p) > p.target
		}
		g.tris.toDivide.Set(i, divide)
		if state != Divided {
			g.tris.toMerge.Set(i, false)
		}

		if state == Deactivated {
			return
		}
		parent := g.tris.parent.At(i)
		if parent == NoTriangle || g.tris.children.At(int(parent))[ChildA] != t {
			return
		}
		g.tris.toMerge.Set(int(parent), g.shouldMerge(parent, p))
	})
}

// shouldMerge decides whether the divided parent collapses back to a leaf.
func (g *Graph) shouldMerge(parent TriangleID, p flagParams) bool {
	if g.tris.deactivated.At(int(parent)) {
		return false
	}

	small := true
	tooDeep := false
	for _, c := range g.tris.children.At(int(parent)) {
		if g.State(c) != Leaf {
			return false
		}
		if g.tris.level.At(int(c)) > p.maxDepth {
			tooDeep = true
		}
		if g.apparentSize(c, p) >= p.target*p.mergeRatio {
			small = false
		}
	}
	if tooDeep {
		return true
	}
	return small && g.apparentSize(parent, p) < p.target
}
