package lod

import (
	"sync/atomic"

	"github.com/Faultbox/celestial-sim/internal/compute"
)

// merge collapses every valid parent flagged toMerge back into a leaf and
// returns the number of triangles deactivated. It runs after divide, so the
// balance check sees the children created in the same iteration.
func (g *Graph) merge(d *compute.Dispatcher) (int, error) {
	ids, err := g.collectFlagged(d, &g.tris.toMerge, false)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ok := make([]bool, len(ids))
	d.For(len(ids), func(i int) {
		ok[i] = g.canMerge(ids[i])
	})

	none := [4]TriangleID{NoTriangle, NoTriangle, NoTriangle, NoTriangle}
	var merged atomic.Int64
	d.For(len(ids), func(i int) {
		m := ids[i]
		g.tris.toMerge.Set(int(m), false)
		if !ok[i] {
			return
		}
		for _, c := range g.tris.children.At(int(m)) {
			g.tris.deactivated.Set(int(c), true)
			g.tris.toDivide.Set(int(c), false)
			g.tris.toMerge.Set(int(c), false)
		}
		g.tris.children.Set(int(m), none)
		g.tris.divided.Set(int(m), false)
		merged.Add(1)
	})

	n := int(merged.Load()) * 4
	g.nDeactivated += n
	return n, nil
}

// canMerge reports whether the divided triangle m can become a leaf without
// leaving a neighbor two levels finer across one of its edges.
func (g *Graph) canMerge(m TriangleID) bool {
	if g.State(m) != Divided {
		return false
	}
	for _, c := range g.tris.children.At(int(m)) {
		if g.State(c) != Leaf {
			return false
		}
	}

	for _, q := range g.tris.neighbors.At(int(m)) {
		if q == NoTriangle || !g.tris.divided.At(int(q)) {
			continue
		}
		f := g.backEdge(q, m)
		if f < 0 {
			// a divided neighbor is same-level and must point back
			return false
		}
		qc := g.tris.children.At(int(q))
		if g.tris.divided.At(int(qc[f])) || g.tris.divided.At(int(qc[(f+1)%3])) {
			return false
		}
	}
	return true
}
