package lod

import (
	"fmt"
	"sync/atomic"

	"github.com/Faultbox/celestial-sim/internal/compute"
)

// updateNeighbors recomputes the adjacency of every live non-root triangle.
//
// The hierarchy is walked one generation at a time from the roots, whose
// adjacency is fixed. Children of a parent P are linked from P's own
// neighbors, which the previous generation already settled:
//   - sibling edges point at the center child or at the corner children;
//   - an outer half-edge points at the matching child of the same-level
//     neighbor when that neighbor is divided, otherwise at the neighbor
//     itself, one level up.
//
// Each child is written only by its parent.
func (g *Graph) updateNeighbors(d *compute.Dispatcher) error {
	frontier := g.roots(d)
	for len(frontier) > 0 {
		var broken atomic.Int64
		d.For(len(frontier), func(i int) {
			p := frontier[i]
			if !g.tris.divided.At(int(p)) {
				return
			}
			if !g.linkChildren(p) {
				broken.CompareAndSwap(0, int64(p)+1)
			}
		})
		if b := broken.Load(); b != 0 {
			return fmt.Errorf("%w: divided neighbor of triangle %d does not point back", ErrInconsistent, b-1)
		}
		frontier = g.nextGeneration(d, frontier)
	}
	return nil
}

func (g *Graph) roots(d *compute.Dispatcher) []TriangleID {
	raw := d.Collect(g.tris.Len(), func(i int) bool {
		return g.tris.parent.At(i) == NoTriangle && !g.tris.deactivated.At(i)
	})
	ids := make([]TriangleID, len(raw))
	for i, id := range raw {
		ids[i] = TriangleID(id)
	}
	return ids
}

// nextGeneration returns the children of the divided triangles in frontier.
func (g *Graph) nextGeneration(d *compute.Dispatcher, frontier []TriangleID) []TriangleID {
	offsets := make([]int32, len(frontier))
	total := d.PrefixSum(len(frontier), func(i int) int32 {
		if g.tris.divided.At(int(frontier[i])) {
			return 4
		}
		return 0
	}, offsets)
	if total == 0 {
		return nil
	}

	next := make([]TriangleID, total)
	d.For(len(frontier), func(i int) {
		p := frontier[i]
		if g.tris.divided.At(int(p)) {
			children := g.tris.children.At(int(p))
			copy(next[offsets[i]:offsets[i]+4], children[:])
		}
	})
	return next
}

// linkChildren writes the neighbors of the four children of p. It returns
// false when a divided neighbor of p has no edge pointing back at p.
func (g *Graph) linkChildren(p TriangleID) bool {
	children := g.tris.children.At(int(p))
	center := children[ChildCenter]

	var cn [3]TriangleID
	for j := range 3 {
		cn[j] = children[(j+2)%3]
	}
	g.tris.neighbors.Set(int(center), cn)

	for k := range 3 {
		var nb [3]TriangleID
		nb[(k+1)%3] = center
		for _, e := range [2]int{k, (k + 2) % 3} {
			n, ok := g.outerNeighbor(p, e, k)
			if !ok {
				return false
			}
			nb[e] = n
		}
		g.tris.neighbors.Set(int(children[k]), nb)
	}
	return true
}

// outerNeighbor finds the neighbor of corner child k of p across the half
// of p's edge e that touches corner k.
func (g *Graph) outerNeighbor(p TriangleID, e, k int) (TriangleID, bool) {
	q := g.tris.neighbors.At(int(p))[e]
	if q == NoTriangle || !g.tris.divided.At(int(q)) {
		return q, true
	}

	// Edge f of q runs opposite to edge e of p: q's corner f is p's corner
	// e+1 and q's corner f+1 is p's corner e.
	f := g.backEdge(q, p)
	if f < 0 {
		return NoTriangle, false
	}
	qc := g.tris.children.At(int(q))
	if k == e {
		return qc[(f+1)%3], true
	}
	return qc[f], true
}
