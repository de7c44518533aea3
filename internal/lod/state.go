// Package lod maintains an adaptive level-of-detail triangle hierarchy over
// an icosphere.
//
// The hierarchy is stored as parallel arrays indexed by integer ids. Every
// pass over the graph is a data-parallel loop in which each destination
// element has exactly one writer; passes are issued strictly one after
// another by Body.
package lod

import (
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// TriangleID indexes the per-triangle arrays.
type TriangleID int32

// VertexID indexes the per-vertex arrays.
type VertexID int32

// NoTriangle marks an absent triangle reference.
const NoTriangle TriangleID = -1

// Edge slots. Edge e runs from corner e to corner (e+1)%3.
const (
	EdgeAB = 0
	EdgeBC = 1
	EdgeCA = 2
)

// Child slots of a divided triangle.
const (
	ChildA      = 0
	ChildB      = 1
	ChildC      = 2
	ChildCenter = 3
)

// State is the structural state of a triangle slot.
type State uint8

const (
	Leaf State = iota
	Divided
	Deactivated
)

func (s State) String() string {
	switch s {
	case Leaf:
		return "leaf"
	case Divided:
		return "divided"
	case Deactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// TriangleBuffers holds the per-triangle arrays.
type TriangleBuffers struct {
	abc         Array[[3]VertexID]
	level       Array[uint32]
	divided     Array[bool]
	deactivated Array[bool]
	neighbors   Array[[3]TriangleID]
	parent      Array[TriangleID]
	children    Array[[4]TriangleID]
	ico         Array[uint32]
	toDivide    Array[bool]
	toMerge     Array[bool]
}

func newTriangleBuffers(n int) TriangleBuffers {
	return TriangleBuffers{
		abc:         newArray[[3]VertexID](n),
		level:       newArray[uint32](n),
		divided:     newArray[bool](n),
		deactivated: newArray[bool](n),
		neighbors:   newArray[[3]TriangleID](n),
		parent:      newArray[TriangleID](n),
		children:    newArray[[4]TriangleID](n),
		ico:         newArray[uint32](n),
		toDivide:    newArray[bool](n),
		toMerge:     newArray[bool](n),
	}
}

// Len returns the number of triangle slots, deactivated ones included.
func (b *TriangleBuffers) Len() int { return b.abc.Len() }

// Extend appends n zeroed triangle slots to every array.
func (b *TriangleBuffers) Extend(n int) {
	b.abc.Extend(n)
	b.level.Extend(n)
	b.divided.Extend(n)
	b.deactivated.Extend(n)
	b.neighbors.Extend(n)
	b.parent.Extend(n)
	b.children.Extend(n)
	b.ico.Extend(n)
	b.toDivide.Extend(n)
	b.toMerge.Extend(n)
}

// VertexBuffers holds the per-vertex arrays.
type VertexBuffers struct {
	pos        Array[math.Vec4]
	updateMask Array[bool]
}

func newVertexBuffers(n int) VertexBuffers {
	return VertexBuffers{
		pos:        newArray[math.Vec4](n),
		updateMask: newArray[bool](n),
	}
}

// Len returns the number of vertex slots.
func (b *VertexBuffers) Len() int { return b.pos.Len() }

// Extend appends n zeroed vertex slots.
func (b *VertexBuffers) Extend(n int) {
	b.pos.Extend(n)
	b.updateMask.Extend(n)
}

// Graph is the LOD triangle hierarchy.
type Graph struct {
	tris  TriangleBuffers
	verts VertexBuffers

	// deactivated slots not yet reclaimed by compaction
	nDeactivated int
	precise      bool
}

// TriangleCount returns the number of triangle slots, deactivated included.
func (g *Graph) TriangleCount() int { return g.tris.Len() }

// VertexCount returns the number of vertex slots.
func (g *Graph) VertexCount() int { return g.verts.Len() }

// DeactivatedCount returns the number of merged-away slots awaiting
// compaction.
func (g *Graph) DeactivatedCount() int { return g.nDeactivated }

// LiveCount returns the number of triangles that are not deactivated.
func (g *Graph) LiveCount() int { return g.tris.Len() - g.nDeactivated }

// LeafCount returns the number of visible triangles.
func (g *Graph) LeafCount() int {
	n := 0
	for i := range g.tris.Len() {
		if g.isLiveLeaf(TriangleID(i)) {
			n++
		}
	}
	return n
}

// Precise reports whether divisions share edge midpoints.
func (g *Graph) Precise() bool { return g.precise }

// State returns the structural state of t.
func (g *Graph) State(t TriangleID) State {
	switch {
	case g.tris.deactivated.At(int(t)):
		return Deactivated
	case g.tris.divided.At(int(t)):
		return Divided
	default:
		return Leaf
	}
}

func (g *Graph) valid(t TriangleID) bool {
	return t >= 0 && int(t) < g.tris.Len()
}

func (g *Graph) isLiveLeaf(t TriangleID) bool {
	return !g.tris.deactivated.At(int(t)) && !g.tris.divided.At(int(t))
}

func (g *Graph) position(v VertexID) math.Vec3 {
	return g.verts.pos.At(int(v)).XYZ()
}

// corners returns the three corner positions of t.
func (g *Graph) corners(t TriangleID) [3]math.Vec3 {
	abc := g.tris.abc.At(int(t))
	return [3]math.Vec3{g.position(abc[0]), g.position(abc[1]), g.position(abc[2])}
}

// childIndex returns which child slot t occupies in its parent, or -1 for
// roots.
func (g *Graph) childIndex(t TriangleID) int {
	p := g.tris.parent.At(int(t))
	if p == NoTriangle {
		return -1
	}
	children := g.tris.children.At(int(p))
	for k, c := range children {
		if c == t {
			return k
		}
	}
	return -1
}

// backEdge returns the edge of q whose neighbor is t, or -1.
func (g *Graph) backEdge(q, t TriangleID) int {
	nb := g.tris.neighbors.At(int(q))
	for e := range 3 {
		if nb[e] == t {
			return e
		}
	}
	return -1
}

// matchEdge returns the edge of q with the same unordered corner pair as
// edge e of t, or -1.
func (g *Graph) matchEdge(t TriangleID, e int, q TriangleID) int {
	want := edgeKey(g.tris.abc.At(int(t)), e)
	qabc := g.tris.abc.At(int(q))
	for f := range 3 {
		if edgeKey(qabc, f) == want {
			return f
		}
	}
	return -1
}

// edgeKey returns the sorted vertex pair of edge e.
func edgeKey(abc [3]VertexID, e int) [2]VertexID {
	return pairKey(abc[e], abc[(e+1)%3])
}

func pairKey(a, b VertexID) [2]VertexID {
	if a > b {
		a, b = b, a
	}
	return [2]VertexID{a, b}
}

// edgeMidpoint returns the midpoint vertex a divided triangle placed on its
// edge e. The center child carries the midpoint of edge e in slot (e+2)%3.
func (g *Graph) edgeMidpoint(t TriangleID, e int) VertexID {
	center := g.tris.children.At(int(t))[ChildCenter]
	return g.tris.abc.At(int(center))[(e+2)%3]
}

// clearMasks drops every transient flag.
func (g *Graph) clearMasks() {
	clear(g.tris.toDivide.Slice())
	clear(g.tris.toMerge.Slice())
}
