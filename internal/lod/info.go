package lod

import (
	"fmt"

	"github.com/Faultbox/celestial-sim/pkg/math"
)

// TriangleInfo is a snapshot of one triangle slot.
type TriangleInfo struct {
	ID          TriangleID
	State       State
	Vertices    [3]VertexID
	Positions   [3]math.Vec3
	Level       uint32
	Divided     bool
	Deactivated bool
	ToDivide    bool
	ToMerge     bool
	Neighbors   [3]TriangleID
	// Children is only meaningful while Divided.
	Children [4]TriangleID
	Parent   TriangleID
	// Face is the root icosahedron face the triangle descends from.
	Face uint32
}

func (g *Graph) checkID(t TriangleID) error {
	if !g.valid(t) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidTriangle, t, g.tris.Len())
	}
	return nil
}

// Info returns the full record of triangle t.
func (g *Graph) Info(t TriangleID) (TriangleInfo, error) {
	if err := g.checkID(t); err != nil {
		return TriangleInfo{}, err
	}
	i := int(t)
	return TriangleInfo{
		ID:          t,
		State:       g.State(t),
		Vertices:    g.tris.abc.At(i),
		Positions:   g.corners(t),
		Level:       g.tris.level.At(i),
		Divided:     g.tris.divided.At(i),
		Deactivated: g.tris.deactivated.At(i),
		ToDivide:    g.tris.toDivide.At(i),
		ToMerge:     g.tris.toMerge.At(i),
		Neighbors:   g.tris.neighbors.At(i),
		Children:    g.tris.children.At(i),
		Parent:      g.tris.parent.At(i),
		Face:        g.tris.ico.At(i),
	}, nil
}

// MarkToDivide flags t for division in the next iteration.
func (g *Graph) MarkToDivide(t TriangleID) error {
	if err := g.checkID(t); err != nil {
		return err
	}
	g.tris.toDivide.Set(int(t), true)
	g.tris.toMerge.Set(int(t), false)
	return nil
}

// MarkToMerge flags the divided triangle t to collapse its children.
func (g *Graph) MarkToMerge(t TriangleID) error {
	if err := g.checkID(t); err != nil {
		return err
	}
	g.tris.toMerge.Set(int(t), true)
	g.tris.toDivide.Set(int(t), false)
	return nil
}

// SetLevel overwrites the level of t. It bypasses every invariant and is
// only meant for poking at the constraint passes.
func (g *Graph) SetLevel(t TriangleID, level uint32) error {
	if err := g.checkID(t); err != nil {
		return err
	}
	g.tris.level.Set(int(t), level)
	return nil
}
