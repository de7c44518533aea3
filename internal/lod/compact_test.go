package lod

import (
	"context"
	"testing"

	"github.com/Faultbox/celestial-sim/internal/compute"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

func TestCompactPreservesMesh(t *testing.T) {
	b := newTestBody(t, nil)
	ctx := context.Background()

	if _, err := b.Update(ctx, math.Vec3{Z: 1.2}); err != nil {
		t.Fatal(err)
	}
	res, err := b.Update(ctx, math.Vec3{X: 1.2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Compactions != 0 {
		t.Fatal("compaction ran below the threshold")
	}
	g := b.graph
	deactivated := g.DeactivatedCount()
	if deactivated == 0 {
		t.Fatal("camera move merged nothing")
	}
	before := res.Mesh
	tris, verts := g.TriangleCount(), g.VertexCount()

	reclaimedTris, reclaimedVerts := g.compact(compute.New(3).WithGrain(16))

	if reclaimedTris != deactivated {
		t.Errorf("reclaimed %d triangles, want %d", reclaimedTris, deactivated)
	}
	if g.TriangleCount() != tris-deactivated || g.DeactivatedCount() != 0 {
		t.Errorf("after compaction: %d slots %d deactivated", g.TriangleCount(), g.DeactivatedCount())
	}
	if reclaimedVerts == 0 || g.VertexCount() != verts-reclaimedVerts {
		t.Errorf("reclaimed %d of %d vertices, %d left", reclaimedVerts, verts, g.VertexCount())
	}

	// Roots keep their slots.
	for i := range TriangleID(RootTriangles) {
		if g.tris.parent.At(int(i)) != NoTriangle || g.tris.ico.At(int(i)) != uint32(i) {
			t.Fatalf("root %d moved", i)
		}
	}

	after := b.Mesh()
	if after.FaceCount() != before.FaceCount() {
		t.Fatalf("faces = %d, want %d", after.FaceCount(), before.FaceCount())
	}
	for i := range before.Positions {
		if !after.Positions[i].ApproxEqual(before.Positions[i], 1e-6) || after.Levels[i] != before.Levels[i] {
			t.Fatalf("vertex %d changed: %v -> %v", i, before.Positions[i], after.Positions[i])
		}
	}
	mustVerify(t, b)

	// The compacted graph keeps converging from where it was.
	again, err := b.Update(ctx, math.Vec3{X: 1.2})
	if err != nil {
		t.Fatal(err)
	}
	if again.Stats.Added != 0 || again.Stats.Merged != 0 {
		t.Errorf("update after compaction changed topology: added %d merged %d", again.Stats.Added, again.Stats.Merged)
	}
}

func TestCompactWithoutDeactivated(t *testing.T) {
	g := NewGraph(1, true)
	tris, verts := g.compact(compute.Serial())
	if tris != 0 || verts != 0 {
		t.Errorf("reclaimed %d triangles %d vertices from the base mesh", tris, verts)
	}
	if g.TriangleCount() != RootTriangles || g.VertexCount() != RootVertices {
		t.Errorf("base mesh changed to %d triangles %d vertices", g.TriangleCount(), g.VertexCount())
	}
	if err := g.Verify(0).Err(); err != nil {
		t.Fatal(err)
	}
}
