package lod

import (
	"context"
	"testing"
)

// divideManually flags ids and applies one manual division round.
func divideManually(t *testing.T, b *Body, ids ...TriangleID) {
	t.Helper()
	for _, id := range ids {
		if err := b.MarkToDivide(id); err != nil {
			t.Fatalf("MarkToDivide(%d): %v", id, err)
		}
	}
	if _, err := b.ApplyManualDivisions(context.Background()); err != nil {
		t.Fatalf("ApplyManualDivisions: %v", err)
	}
}

func TestCanDivide(t *testing.T) {
	b := newTestBody(t, nil)
	divideManually(t, b, 0)
	g := b.graph

	tests := []struct {
		name     string
		id       TriangleID
		maxDepth uint32
		want     bool
	}{
		{"untouched root", 1, 4, true},
		{"divided root", 0, 4, false},
		{"corner child next to coarser roots", 20, 4, false},
		{"center child before its siblings", 23, 4, false},
		{"root at depth limit", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.canDivide(tt.id, tt.maxDepth); got != tt.want {
				t.Errorf("canDivide(%d, %d) = %v, want %v", tt.id, tt.maxDepth, got, tt.want)
			}
		})
	}
}

func TestRejectedDivisionIsDropped(t *testing.T) {
	b := newTestBody(t, nil)
	divideManually(t, b, 0)

	// Child 20 borders roots 14 and 1, which are still coarser.
	divideManually(t, b, 20)
	info, _ := b.TriangleInfo(20)
	if info.Divided || info.ToDivide {
		t.Fatalf("unbalanced division went through: %+v", info)
	}
	if tris, _, _ := b.Counts(); tris != 24 {
		t.Errorf("triangles = %d, want 24", tris)
	}

	divideManually(t, b, 14, 1)
	divideManually(t, b, 20)
	info, _ = b.TriangleInfo(20)
	if !info.Divided {
		t.Fatal("balanced division was rejected")
	}
	mustVerify(t, b)
}

func TestCenterChildWaitsForSiblings(t *testing.T) {
	b := newTestBody(t, nil)
	divideManually(t, b, 0)
	nb := b.graph.tris.neighbors.At(0)
	divideManually(t, b, nb[:]...)

	center := TriangleID(23)
	divideManually(t, b, center)
	if info, _ := b.TriangleInfo(center); info.Divided {
		t.Fatal("center child divided before its siblings")
	}

	divideManually(t, b, 20, 21, 22)
	divideManually(t, b, center)
	if info, _ := b.TriangleInfo(center); !info.Divided {
		t.Fatal("center child not divided after its siblings")
	}
	mustVerify(t, b)
}

func TestMergeBlockedByFinerNeighbor(t *testing.T) {
	b := newTestBody(t, nil)
	g := b.graph
	divideManually(t, b, 0, 13, 14, 15)

	// The child of 14 along the shared edge with 0.
	f := g.backEdge(14, 0)
	if f < 0 {
		t.Fatal("14 does not point back at 0")
	}
	inner := g.tris.children.At(14)[f]
	divideManually(t, b, inner)
	if !g.tris.divided.At(int(inner)) {
		t.Fatalf("child %d of 14 not divided", inner)
	}

	if g.canMerge(0) {
		t.Error("canMerge(0) = true with a twice divided neighbor edge")
	}
	if err := b.MarkToMerge(0); err != nil {
		t.Fatal(err)
	}
	res, err := b.ApplyManualDivisions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Merged != 0 {
		t.Errorf("merged = %d, want 0", res.Stats.Merged)
	}
	if info, _ := b.TriangleInfo(0); info.ToMerge {
		t.Error("rejected merge flag was kept")
	}
	mustVerify(t, b)

	// Once the finer side collapses, the merge goes through.
	for _, id := range []TriangleID{inner, 0} {
		if err := b.MarkToMerge(id); err != nil {
			t.Fatal(err)
		}
		res, err = b.ApplyManualDivisions(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Stats.Merged != 1 {
			t.Errorf("merging %d: merged = %d, want 1", id, res.Stats.Merged)
		}
	}
	if info, _ := b.TriangleInfo(0); info.State != Leaf {
		t.Errorf("triangle 0 is %s, want leaf", info.State)
	}
	mustVerify(t, b)
}
