package lod

import (
	"sync/atomic"

	"github.com/Faultbox/celestial-sim/internal/compute"
)

// compact rebuilds the buffers without deactivated triangles and without
// vertices no live triangle references. Ids are relabeled in place order, so
// roots keep ids 0..19 and relative order is preserved. It returns the number
// of triangle and vertex slots reclaimed.
//
// New buffers are staged completely before they replace the old ones.
func (g *Graph) compact(d *compute.Dispatcher) (int, int) {
	nTris := g.tris.Len()
	live := func(i int) bool { return !g.tris.deactivated.At(i) }

	newTri := make([]int32, nTris)
	nLive := d.Scan(nTris, live, newTri)

	// A reference to a merged-away slot resolves to its closest live
	// ancestor, the leaf that replaced it.
	remap := func(t TriangleID) TriangleID {
		for t != NoTriangle && g.tris.deactivated.At(int(t)) {
			t = g.tris.parent.At(int(t))
		}
		if t == NoTriangle {
			return NoTriangle
		}
		return TriangleID(newTri[t])
	}

	used := make([]uint32, g.verts.Len())
	d.For(nTris, func(i int) {
		if !live(i) {
			return
		}
		for _, v := range g.tris.abc.At(i) {
			atomic.StoreUint32(&used[v], 1)
		}
	})
	newVert := make([]int32, len(used))
	nUsed := d.Scan(len(used), func(i int) bool { return used[i] != 0 }, newVert)

	tris := newTriangleBuffers(nLive)
	d.For(nTris, func(i int) {
		if !live(i) {
			return
		}
		j := int(newTri[i])

		abc := g.tris.abc.At(i)
		for c := range abc {
			abc[c] = VertexID(newVert[abc[c]])
		}
		tris.abc.Set(j, abc)

		nb := g.tris.neighbors.At(i)
		for e := range nb {
			nb[e] = remap(nb[e])
		}
		tris.neighbors.Set(j, nb)

		children := [4]TriangleID{NoTriangle, NoTriangle, NoTriangle, NoTriangle}
		if g.tris.divided.At(i) {
			for k, c := range g.tris.children.At(i) {
				children[k] = TriangleID(newTri[c])
			}
		}
		tris.children.Set(j, children)

		tris.parent.Set(j, remap(g.tris.parent.At(i)))
		tris.level.Set(j, g.tris.level.At(i))
		tris.divided.Set(j, g.tris.divided.At(i))
		tris.ico.Set(j, g.tris.ico.At(i))
		tris.toDivide.Set(j, g.tris.toDivide.At(i))
		tris.toMerge.Set(j, g.tris.toMerge.At(i))
	})

	verts := newVertexBuffers(nUsed)
	d.For(len(used), func(i int) {
		if used[i] == 0 {
			return
		}
		j := int(newVert[i])
		verts.pos.Set(j, g.verts.pos.At(i))
		verts.updateMask.Set(j, g.verts.updateMask.At(i))
	})

	reclaimedTris, reclaimedVerts := nTris-nLive, g.verts.Len()-nUsed
	g.tris, g.verts = tris, verts
	g.nDeactivated = 0
	return reclaimedTris, reclaimedVerts
}
