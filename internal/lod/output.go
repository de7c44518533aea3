package lod

import (
	"github.com/Faultbox/celestial-sim/internal/compute"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// Mesh is the flat-shaded triangle soup of the visible leaves. Every face
// owns three vertices, so per-face attributes need no splitting.
type Mesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	// Levels and Faces are per vertex: the subdivision level and root face
	// of the source triangle.
	Levels []uint32
	Faces  []uint32
	// Indices is the trivial sequence 0..len(Positions)-1.
	Indices []uint32
	// Triangles maps each output face back to its graph triangle.
	Triangles []TriangleID
}

// FaceCount returns the number of output triangles.
func (m *Mesh) FaceCount() int { return len(m.Triangles) }

// assemble builds the output mesh from the live leaves. With stitch, a
// vertex sitting in the middle of an edge shared with a coarser neighbor is
// moved onto the straight edge of that neighbor in every leaf that uses it.
func (g *Graph) assemble(d *compute.Dispatcher, stitch bool) *Mesh {
	raw := d.Collect(g.tris.Len(), func(i int) bool { return g.isLiveLeaf(TriangleID(i)) })
	n := len(raw)

	var snapped map[VertexID]math.Vec3
	if stitch {
		snapped = g.stitchTable(raw)
	}

	m := &Mesh{
		Positions: make([]math.Vec3, 3*n),
		Normals:   make([]math.Vec3, 3*n),
		Levels:    make([]uint32, 3*n),
		Faces:     make([]uint32, 3*n),
		Indices:   make([]uint32, 3*n),
		Triangles: make([]TriangleID, n),
	}

	d.For(n, func(f int) {
		t := TriangleID(raw[f])
		m.Triangles[f] = t

		c := g.corners(t)
		if len(snapped) > 0 {
			for k, v := range g.tris.abc.At(int(t)) {
				if p, ok := snapped[v]; ok {
					c[k] = p
				}
			}
		}
		normal := c[1].Sub(c[0]).Cross(c[2].Sub(c[0])).Normalize()

		level, face := g.tris.level.At(int(t)), g.tris.ico.At(int(t))
		for k := range 3 {
			v := 3*f + k
			m.Positions[v] = c[k]
			m.Normals[v] = normal
			m.Levels[v] = level
			m.Faces[v] = face
			m.Indices[v] = uint32(v)
		}
	})
	return m
}

// stitchTable maps each mid-edge vertex of a corner child that borders a
// coarser leaf to the midpoint of the flat parent edge. Sibling and
// descendant leaves share the vertex id, so they all snap together.
func (g *Graph) stitchTable(leaves []int32) map[VertexID]math.Vec3 {
	snapped := make(map[VertexID]math.Vec3)
	for _, i := range leaves {
		t := TriangleID(i)
		k := g.childIndex(t)
		if k < 0 || k == ChildCenter {
			continue
		}
		level := g.tris.level.At(int(t))
		abc := g.tris.abc.At(int(t))
		nb := g.tris.neighbors.At(int(t))
		var parent [3]math.Vec3
		loaded := false

		// Edge k ends at the midpoint in slot k+1, edge k+2 starts at the
		// midpoint in slot k+2.
		for _, e := range [2]int{k, (k + 2) % 3} {
			q := nb[e]
			if q == NoTriangle || g.tris.level.At(int(q)) >= level {
				continue
			}
			if !loaded {
				parent = g.corners(g.tris.parent.At(int(t)))
				loaded = true
			}
			slot := (k + 1) % 3
			if e != k {
				slot = (k + 2) % 3
			}
			snapped[abc[slot]] = parent[e].Midpoint(parent[(e+1)%3])
		}
	}
	return snapped
}
