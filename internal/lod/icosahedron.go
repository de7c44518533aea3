package lod

import "github.com/Faultbox/celestial-sim/pkg/math"

const (
	// RootTriangles is the number of icosahedron faces.
	RootTriangles = 20
	// RootVertices is the number of icosahedron corners.
	RootVertices = 12
)

// Unit icosahedron corner coordinates: (0, ±1, ±phi) normalized.
const (
	icoA = 0.5257311
	icoB = 0.8506508
)

var icoPositions = [RootVertices]math.Vec3{
	{X: -icoA, Y: 0, Z: icoB}, {X: icoA, Y: 0, Z: icoB}, {X: -icoA, Y: 0, Z: -icoB}, {X: icoA, Y: 0, Z: -icoB},
	{X: 0, Y: icoB, Z: icoA}, {X: 0, Y: icoB, Z: -icoA}, {X: 0, Y: -icoB, Z: icoA}, {X: 0, Y: -icoB, Z: -icoA},
	{X: icoB, Y: icoA, Z: 0}, {X: -icoB, Y: icoA, Z: 0}, {X: icoB, Y: -icoA, Z: 0}, {X: -icoB, Y: -icoA, Z: 0},
}

// Faces wind counter-clockwise seen from outside the sphere.
var icoFaces = [RootTriangles][3]VertexID{
	{0, 1, 4}, {0, 4, 9}, {9, 4, 5}, {4, 8, 5}, {4, 1, 8},
	{8, 1, 10}, {8, 10, 3}, {5, 8, 3}, {5, 3, 2}, {2, 3, 7},
	{7, 3, 10}, {7, 10, 6}, {7, 6, 11}, {11, 6, 0}, {0, 6, 1},
	{6, 10, 1}, {9, 11, 0}, {9, 2, 11}, {9, 5, 2}, {7, 11, 2},
}

// Neighbor across edges AB, BC, CA of each face. The root level has no
// parent structure to derive adjacency from, so it is tabulated.
var icoNeighbors = [RootTriangles][3]TriangleID{
	{14, 4, 1}, {0, 2, 16}, {1, 3, 18}, {4, 7, 2}, {0, 5, 3},
	{4, 15, 6}, {5, 10, 7}, {3, 6, 8}, {7, 9, 18}, {8, 10, 19},
	{9, 6, 11}, {10, 15, 12}, {11, 13, 19}, {12, 14, 16}, {13, 15, 0},
	{11, 5, 14}, {17, 13, 1}, {18, 19, 16}, {2, 8, 17}, {12, 17, 9},
}

// NewGraph builds the base icosahedron scaled to radius. precise selects
// shared edge midpoints for every later division.
func NewGraph(radius float32, precise bool) *Graph {
	g := &Graph{
		tris:    newTriangleBuffers(RootTriangles),
		verts:   newVertexBuffers(RootVertices),
		precise: precise,
	}

	for v, p := range icoPositions {
		g.verts.pos.Set(v, p.Scale(radius).Vec4(0))
		g.verts.updateMask.Set(v, true)
	}

	for t := range RootTriangles {
		g.tris.abc.Set(t, icoFaces[t])
		g.tris.neighbors.Set(t, icoNeighbors[t])
		g.tris.parent.Set(t, NoTriangle)
		g.tris.children.Set(t, [4]TriangleID{NoTriangle, NoTriangle, NoTriangle, NoTriangle})
		g.tris.ico.Set(t, uint32(t))
	}

	return g
}
