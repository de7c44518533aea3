package lod

import (
	"fmt"
	"slices"

	"github.com/Faultbox/celestial-sim/internal/compute"
)

// bufferLimits caps buffer growth; zero fields are unbounded.
type bufferLimits struct {
	triangles int
	vertices  int
}

// midpointSource says where a division takes the midpoint of one edge from.
type midpointSource uint8

const (
	midFresh    midpointSource = iota // new vertex owned by this division
	midShared                         // vertex of an already divided neighbor
	midBorrowed                       // vertex owned by a neighbor in this batch
)

type edgePlan struct {
	source midpointSource
	vertex VertexID // midShared
	owner  int32    // midBorrowed: batch index of the owning division
	edge   int8     // midBorrowed: edge of the owner
}

type divisionPlan struct {
	edges [3]edgePlan
	fresh int32
}

// collectFlagged gathers the ids with mask set. With verify, the parallel
// collection is checked against a sequential scan.
func (g *Graph) collectFlagged(d *compute.Dispatcher, mask *Array[bool], verify bool) ([]TriangleID, error) {
	raw := d.Collect(mask.Len(), func(i int) bool { return mask.At(i) })
	ids := make([]TriangleID, len(raw))
	for i, id := range raw {
		ids[i] = TriangleID(id)
	}
	if !verify {
		return ids, nil
	}

	n := 0
	for i, flagged := range mask.Slice() {
		if !flagged {
			continue
		}
		if n >= len(ids) || ids[n] != TriangleID(i) {
			return nil, fmt.Errorf("%w: index collection diverges from sequential scan at triangle %d", ErrInconsistent, i)
		}
		n++
	}
	if n != len(ids) {
		return nil, fmt.Errorf("%w: index collection found %d triangles, sequential scan %d", ErrInconsistent, len(ids), n)
	}
	return ids, nil
}

// divide splits every triangle flagged toDivide into four children and
// returns the number of triangles appended.
//
// Children of the i-th collected parent occupy slots nTris+4i .. nTris+4i+3
// in the order A, B, C, Center. In precise mode an edge midpoint is taken
// from an already divided neighbor when one exists; when both sides of an
// edge divide in the same batch the lower id creates the vertex and the
// other borrows it. Limits are checked before anything is written.
func (g *Graph) divide(d *compute.Dispatcher, limits bufferLimits, verify bool) (int, error) {
	ids, err := g.collectFlagged(d, &g.tris.toDivide, verify)
	if err != nil {
		return 0, err
	}
	k := len(ids)
	if k == 0 {
		return 0, nil
	}

	plans := make([]divisionPlan, k)
	d.For(k, func(i int) {
		plans[i] = g.planDivision(ids, i)
	})

	offsets := make([]int32, k)
	fresh := d.PrefixSum(k, func(i int) int32 { return plans[i].fresh }, offsets)

	nTris, nVerts := g.tris.Len(), g.verts.Len()
	if limits.triangles > 0 && nTris+4*k > limits.triangles {
		return 0, fmt.Errorf("%w: %d triangles requested, limit %d", ErrCapacityExceeded, nTris+4*k, limits.triangles)
	}
	if limits.vertices > 0 && nVerts+fresh > limits.vertices {
		return 0, fmt.Errorf("%w: %d vertices requested, limit %d", ErrCapacityExceeded, nVerts+fresh, limits.vertices)
	}

	g.tris.Extend(4 * k)
	g.verts.Extend(fresh)

	mids := make([][3]VertexID, k)
	d.For(k, func(i int) {
		abc := g.tris.abc.At(int(ids[i]))
		next := VertexID(nVerts) + VertexID(offsets[i])
		for e, plan := range plans[i].edges {
			switch plan.source {
			case midFresh:
				a := g.verts.pos.At(int(abc[e]))
				b := g.verts.pos.At(int(abc[(e+1)%3]))
				g.verts.pos.Set(int(next), a.Midpoint(b))
				g.verts.updateMask.Set(int(next), true)
				mids[i][e] = next
				next++
			case midShared:
				mids[i][e] = plan.vertex
			}
		}
	})

	d.For(k, func(i int) {
		for e, plan := range plans[i].edges {
			if plan.source == midBorrowed {
				mids[i][e] = mids[plan.owner][plan.edge]
			}
		}
	})

	d.For(k, func(i int) {
		g.writeChildren(ids[i], TriangleID(nTris+4*i), mids[i])
	})

	return 4 * k, nil
}

// planDivision resolves the midpoint source of each edge of ids[i].
func (g *Graph) planDivision(ids []TriangleID, i int) divisionPlan {
	var plan divisionPlan
	p := ids[i]
	for e := range 3 {
		if src, ok := g.planEdge(ids, p, e); ok {
			plan.edges[e] = src
			continue
		}
		plan.edges[e] = edgePlan{source: midFresh}
		plan.fresh++
	}
	return plan
}

func (g *Graph) planEdge(ids []TriangleID, p TriangleID, e int) (edgePlan, bool) {
	if !g.precise {
		return edgePlan{}, false
	}
	q := g.tris.neighbors.At(int(p))[e]
	if q == NoTriangle || g.tris.deactivated.At(int(q)) {
		return edgePlan{}, false
	}

	switch {
	case g.tris.divided.At(int(q)):
		if f := g.matchEdge(p, e, q); f >= 0 {
			return edgePlan{source: midShared, vertex: g.edgeMidpoint(q, f)}, true
		}
	case g.tris.toDivide.At(int(q)) && q < p:
		j, found := slices.BinarySearch(ids, q)
		if f := g.matchEdge(p, e, q); found && f >= 0 {
			return edgePlan{source: midBorrowed, owner: int32(j), edge: int8(f)}, true
		}
	}
	return edgePlan{}, false
}

// writeChildren records the four children of p starting at slot base.
//
// Corner child k keeps corner k of the parent and takes the midpoints of
// the two parent edges meeting there, so its edges k and (k+2)%3 lie on the
// same-numbered parent edges and edge (k+1)%3 faces the center child.
func (g *Graph) writeChildren(p, base TriangleID, m [3]VertexID) {
	abc := g.tris.abc.At(int(p))
	level := g.tris.level.At(int(p)) + 1
	ico := g.tris.ico.At(int(p))

	var corners [4][3]VertexID
	for k := range 3 {
		corners[k][k] = abc[k]
		corners[k][(k+1)%3] = m[k]
		corners[k][(k+2)%3] = m[(k+2)%3]
	}
	corners[ChildCenter] = [3]VertexID{m[EdgeBC], m[EdgeCA], m[EdgeAB]}

	none3 := [3]TriangleID{NoTriangle, NoTriangle, NoTriangle}
	none4 := [4]TriangleID{NoTriangle, NoTriangle, NoTriangle, NoTriangle}
	var children [4]TriangleID
	for k := range 4 {
		c := int(base) + k
		children[k] = TriangleID(c)
		g.tris.abc.Set(c, corners[k])
		g.tris.level.Set(c, level)
		g.tris.ico.Set(c, ico)
		g.tris.parent.Set(c, p)
		g.tris.neighbors.Set(c, none3)
		g.tris.children.Set(c, none4)
	}

	g.tris.children.Set(int(p), children)
	g.tris.divided.Set(int(p), true)
	g.tris.toDivide.Set(int(p), false)
	g.tris.toMerge.Set(int(p), false)
}
