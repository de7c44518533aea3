package lod

import "github.com/Faultbox/celestial-sim/internal/compute"

// enforce clears divide flags that would break the hierarchy. Rejections are
// expected noise from speculative flagging, so nothing is reported.
func (g *Graph) enforce(d *compute.Dispatcher, maxDepth uint32) {
	d.For(g.tris.Len(), func(i int) {
		if g.tris.toDivide.At(i) && !g.canDivide(TriangleID(i), maxDepth) {
			g.tris.toDivide.Set(i, false)
		}
		if g.tris.toDivide.At(i) {
			g.tris.toMerge.Set(i, false)
		}
	})
}

// canDivide reports whether t may be split in the next division batch.
func (g *Graph) canDivide(t TriangleID, maxDepth uint32) bool {
	if g.State(t) != Leaf {
		return false
	}
	level := g.tris.level.At(int(t))
	if level >= maxDepth {
		return false
	}

	// A shallower neighbor would end up two levels away from the children.
	for _, n := range g.tris.neighbors.At(int(t)) {
		if n == NoTriangle || g.tris.level.At(int(n)) < level {
			return false
		}
	}

	// The center child waits until its three siblings are split.
	if g.childIndex(t) == ChildCenter {
		siblings := g.tris.children.At(int(g.tris.parent.At(int(t))))
		for _, s := range siblings[:ChildCenter] {
			if !g.tris.divided.At(int(s)) {
				return false
			}
		}
	}
	return true
}
