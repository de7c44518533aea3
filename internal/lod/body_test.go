package lod

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/celestial-sim/internal/compute"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// newTestBody builds a body whose passes run on several goroutines even for
// small graphs.
func newTestBody(t *testing.T, mutate func(*Options), options ...Option) *Body {
	t.Helper()
	opts := DefaultOptions()
	opts.MaxDepth = 4
	if mutate != nil {
		mutate(&opts)
	}
	options = append([]Option{WithDispatcher(compute.New(4).WithGrain(4))}, options...)
	b, err := NewBody(opts, options...)
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return b
}

func mustVerify(t *testing.T, b *Body) {
	t.Helper()
	if err := b.Verify().Err(); err != nil {
		t.Fatalf("verification failed: %v", err)
	}
}

func TestDivideSingleTriangle(t *testing.T) {
	b := newTestBody(t, nil)
	if err := b.MarkToDivide(0); err != nil {
		t.Fatalf("MarkToDivide: %v", err)
	}

	res, err := b.ApplyManualDivisions(context.Background())
	if err != nil {
		t.Fatalf("ApplyManualDivisions: %v", err)
	}

	tris, live, verts := b.Counts()
	if tris != 24 || live != 24 {
		t.Errorf("triangles = %d (live %d), want 24", tris, live)
	}
	if verts != 15 {
		t.Errorf("vertices = %d, want 15", verts)
	}
	if res.Stats.Divided != 1 || res.Stats.Added != 4 {
		t.Errorf("stats divided %d added %d, want 1 and 4", res.Stats.Divided, res.Stats.Added)
	}
	if res.Stats.Leaves != 23 {
		t.Errorf("leaves = %d, want 23", res.Stats.Leaves)
	}

	info, _ := b.TriangleInfo(0)
	if !info.Divided || info.State != Divided {
		t.Fatalf("triangle 0 not divided: %+v", info)
	}
	if want := [4]TriangleID{20, 21, 22, 23}; info.Children != want {
		t.Errorf("children = %v, want %v", info.Children, want)
	}

	for k, c := range info.Children {
		ci, _ := b.TriangleInfo(c)
		if ci.Parent != 0 || ci.Level != 1 || ci.Face != 0 {
			t.Errorf("child %d (%d): parent %d level %d face %d", k, c, ci.Parent, ci.Level, ci.Face)
		}
	}

	// Corner children keep the parent corners in their own slot.
	for k := range 3 {
		ci, _ := b.TriangleInfo(info.Children[k])
		if ci.Vertices[k] != info.Vertices[k] {
			t.Errorf("child %d slot %d = vertex %d, want parent corner %d", k, k, ci.Vertices[k], info.Vertices[k])
		}
	}

	mustVerify(t, b)
}

func TestDivideThenMerge(t *testing.T) {
	b := newTestBody(t, nil)
	before := b.Mesh()

	if err := b.MarkToDivide(0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ApplyManualDivisions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.MarkToMerge(0); err != nil {
		t.Fatal(err)
	}
	res, err := b.ApplyManualDivisions(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	tris, live, _ := b.Counts()
	if live != RootTriangles {
		t.Errorf("live triangles = %d, want 20", live)
	}
	if tris != 24 {
		t.Errorf("slots = %d, want 24 until compaction", tris)
	}
	if res.Stats.Merged != 1 || res.Stats.Deactivated != 4 {
		t.Errorf("stats merged %d deactivated %d, want 1 and 4", res.Stats.Merged, res.Stats.Deactivated)
	}

	info, _ := b.TriangleInfo(0)
	if info.State != Leaf {
		t.Errorf("triangle 0 is %s, want leaf", info.State)
	}
	for c := TriangleID(20); c < 24; c++ {
		ci, _ := b.TriangleInfo(c)
		if !ci.Deactivated {
			t.Errorf("child %d not deactivated", c)
		}
	}

	// Same geometric leaf set as before the round trip.
	after := res.Mesh
	if after.FaceCount() != before.FaceCount() {
		t.Fatalf("faces = %d, want %d", after.FaceCount(), before.FaceCount())
	}
	for i := range before.Positions {
		if !after.Positions[i].ApproxEqual(before.Positions[i], 1e-6) {
			t.Fatalf("vertex %d moved: %v -> %v", i, before.Positions[i], after.Positions[i])
		}
	}

	mustVerify(t, b)
}

func TestDivideReusesMidpointOfDividedNeighbor(t *testing.T) {
	b := newTestBody(t, nil)
	ctx := context.Background()

	// Triangle 14 lies across edge AB of triangle 0.
	b.MarkToDivide(0)
	if _, err := b.ApplyManualDivisions(ctx); err != nil {
		t.Fatal(err)
	}
	b.MarkToDivide(14)
	if _, err := b.ApplyManualDivisions(ctx); err != nil {
		t.Fatal(err)
	}

	if _, _, verts := b.Counts(); verts != 17 {
		t.Errorf("vertices = %d, want 17 (one midpoint shared)", verts)
	}

	g := b.graph
	f := g.matchEdge(0, EdgeAB, 14)
	if f < 0 {
		t.Fatal("triangles 0 and 14 do not share an edge")
	}
	if g.edgeMidpoint(0, EdgeAB) != g.edgeMidpoint(14, f) {
		t.Errorf("shared edge has midpoints %d and %d", g.edgeMidpoint(0, EdgeAB), g.edgeMidpoint(14, f))
	}
	mustVerify(t, b)
}

func TestDivisionModes(t *testing.T) {
	tests := []struct {
		name      string
		precise   bool
		divide    []TriangleID
		wantVerts int
	}{
		{"precise isolated", true, []TriangleID{0}, 15},
		{"precise same batch neighbors", true, []TriangleID{0, 14}, 17},
		{"precise fan around vertex", true, []TriangleID{0, 1, 4}, 19},
		{"fast isolated", false, []TriangleID{0}, 15},
		{"fast same batch neighbors", false, []TriangleID{0, 14}, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBody(t, func(o *Options) {
				o.PreciseNormals = tt.precise
				o.VerifyIndexCollection = true
			})
			for _, id := range tt.divide {
				if err := b.MarkToDivide(id); err != nil {
					t.Fatal(err)
				}
			}
			res, err := b.ApplyManualDivisions(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if res.Stats.Added != 4*len(tt.divide) {
				t.Errorf("added = %d, want %d", res.Stats.Added, 4*len(tt.divide))
			}
			if _, _, verts := b.Counts(); verts != tt.wantVerts {
				t.Errorf("vertices = %d, want %d", verts, tt.wantVerts)
			}
			mustVerify(t, b)
		})
	}
}

func TestFarCameraDividesNothing(t *testing.T) {
	b := newTestBody(t, nil)
	res, err := b.Update(context.Background(), math.Vec3{Z: 1e6})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Added != 0 || res.Stats.Leaves != RootTriangles {
		t.Errorf("far camera: added %d leaves %d, want 0 and 20", res.Stats.Added, res.Stats.Leaves)
	}
	if res.Stats.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", res.Stats.Iterations)
	}
}

func TestNearCameraConvergesAndIsStable(t *testing.T) {
	b := newTestBody(t, nil)
	camera := math.Vec3{X: 0.2, Y: 0.3, Z: 1.3}
	ctx := context.Background()

	first, err := b.Update(ctx, camera)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Stats.Divided == 0 {
		t.Fatal("near camera divided nothing")
	}
	mustVerify(t, b)

	second, err := b.Update(ctx, camera)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.Stats.Added != 0 || second.Stats.Merged != 0 {
		t.Errorf("second update changed topology: added %d merged %d", second.Stats.Added, second.Stats.Merged)
	}
	if second.Stats.Leaves != first.Stats.Leaves {
		t.Errorf("leaves changed from %d to %d", first.Stats.Leaves, second.Stats.Leaves)
	}

	// Triangles near the camera reach the depth limit, the far side stays
	// coarser.
	var deepest, shallowest uint32 = 0, 99
	for _, l := range first.Mesh.Levels {
		deepest = max(deepest, l)
		shallowest = min(shallowest, l)
	}
	if deepest != 4 {
		t.Errorf("deepest level = %d, want 4", deepest)
	}
	if shallowest >= deepest {
		t.Errorf("uniform level %d, want adaptive subdivision", deepest)
	}
}

func TestCameraRetreatMergesBack(t *testing.T) {
	b := newTestBody(t, nil)
	ctx := context.Background()

	if _, err := b.Update(ctx, math.Vec3{Z: 1.2}); err != nil {
		t.Fatal(err)
	}
	res, err := b.Update(ctx, math.Vec3{Z: 1e6})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Merged == 0 {
		t.Fatal("retreating camera merged nothing")
	}
	if res.Stats.Leaves != RootTriangles || res.Stats.LiveTriangles != RootTriangles {
		t.Errorf("leaves %d live %d, want 20 and 20", res.Stats.Leaves, res.Stats.LiveTriangles)
	}
	mustVerify(t, b)
}

func TestCompactionDuringUpdate(t *testing.T) {
	b := newTestBody(t, func(o *Options) { o.CompactionThreshold = 0 })
	ctx := context.Background()

	if _, err := b.Update(ctx, math.Vec3{X: 1.2}); err != nil {
		t.Fatal(err)
	}
	res, err := b.Update(ctx, math.Vec3{X: -1.2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Compactions == 0 {
		t.Fatal("expected compaction after merges")
	}
	tris, live, _ := b.Counts()
	if tris != live {
		t.Errorf("%d slots for %d live triangles after compaction", tris, live)
	}
	mustVerify(t, b)

	again, err := b.Update(ctx, math.Vec3{X: -1.2})
	if err != nil {
		t.Fatal(err)
	}
	if again.Stats.Added != 0 || again.Stats.Merged != 0 {
		t.Errorf("update after compaction changed topology: added %d merged %d", again.Stats.Added, again.Stats.Merged)
	}
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("capacity", func(t *testing.T) {
		b := newTestBody(t, func(o *Options) { o.MaxTriangles = 22 })
		b.MarkToDivide(0)
		_, err := b.ApplyManualDivisions(ctx)
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("err = %v, want ErrCapacityExceeded", err)
		}
		if tris, _, verts := b.Counts(); tris != 20 || verts != 12 {
			t.Errorf("graph mutated on failed growth: %d triangles %d vertices", tris, verts)
		}
		if info, _ := b.TriangleInfo(0); info.ToDivide {
			t.Error("flag survived an aborted update")
		}
		mustVerify(t, b)
	})

	t.Run("vertex capacity", func(t *testing.T) {
		b := newTestBody(t, func(o *Options) { o.MaxVertices = 14 })
		b.MarkToDivide(0)
		if _, err := b.ApplyManualDivisions(ctx); !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("err = %v, want ErrCapacityExceeded", err)
		}
	})

	t.Run("reentrant", func(t *testing.T) {
		b := newTestBody(t, nil)
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, err := b.Update(ctx, math.Vec3{Z: 2}); !errors.Is(err, ErrUpdateInProgress) {
			t.Fatalf("err = %v, want ErrUpdateInProgress", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		b := newTestBody(t, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := b.Update(cctx, math.Vec3{Z: 2}); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("iteration cap", func(t *testing.T) {
		b := newTestBody(t, func(o *Options) { o.MaxIterations = 1 })
		if _, err := b.Update(ctx, math.Vec3{Z: 1.2}); !errors.Is(err, ErrNoFixedPoint) {
			t.Fatalf("err = %v, want ErrNoFixedPoint", err)
		}
	})

	t.Run("layer", func(t *testing.T) {
		boom := errors.New("boom")
		b := newTestBody(t, nil, WithLayers(LayerFunc(func([]math.Vec4, []bool) error { return boom })))
		if _, err := b.Update(ctx, math.Vec3{Z: 1e6}); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want layer error", err)
		}
	})
}

func TestUpdateLogsStats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := newTestBody(t, nil, WithLogger(zap.New(core)))

	res, err := b.Update(context.Background(), math.Vec3{X: 0.2, Y: 0.3, Z: 1.3})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries := logs.FilterMessage("lod updated").All()
	if len(entries) != 1 {
		t.Fatalf("got %d \"lod updated\" entries, want 1", len(entries))
	}
	stats, ok := entries[0].ContextMap()["stats"].(map[string]any)
	if !ok {
		t.Fatalf("stats field missing: %v", entries[0].ContextMap())
	}
	if got := stats["leaves"]; got != res.Stats.Leaves {
		t.Errorf("logged leaves = %v, want %d", got, res.Stats.Leaves)
	}

	// A settled body logs nothing new.
	if _, err := b.Update(context.Background(), math.Vec3{X: 0.2, Y: 0.3, Z: 1.3}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if n := logs.FilterMessage("lod updated").Len(); n != 1 {
		t.Errorf("got %d entries after a stable update, want 1", n)
	}
}

func TestDebugAPIRejectsInvalidIDs(t *testing.T) {
	b := newTestBody(t, nil)
	for _, id := range []TriangleID{-1, 20, 1000} {
		if _, err := b.TriangleInfo(id); !errors.Is(err, ErrInvalidTriangle) {
			t.Errorf("TriangleInfo(%d) err = %v", id, err)
		}
		if err := b.MarkToDivide(id); !errors.Is(err, ErrInvalidTriangle) {
			t.Errorf("MarkToDivide(%d) err = %v", id, err)
		}
		if err := b.MarkToMerge(id); !errors.Is(err, ErrInvalidTriangle) {
			t.Errorf("MarkToMerge(%d) err = %v", id, err)
		}
		if err := b.SetLevel(id, 1); !errors.Is(err, ErrInvalidTriangle) {
			t.Errorf("SetLevel(%d) err = %v", id, err)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"zero radius", func(o *Options) { o.Radius = 0 }, true},
		{"negative size", func(o *Options) { o.TriangleScreenSize = -1 }, true},
		{"merge ratio one", func(o *Options) { o.MergeRatio = 1 }, true},
		{"no iterations", func(o *Options) { o.MaxIterations = 0 }, true},
		{"too deep", func(o *Options) { o.MaxDepth = 40 }, true},
		{"tiny triangle cap", func(o *Options) { o.MaxTriangles = 10 }, true},
		{"tiny vertex cap", func(o *Options) { o.MaxVertices = 3 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("err = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func BenchmarkUpdateOrbit(b *testing.B) {
	opts := DefaultOptions()
	opts.MaxDepth = 8
	opts.TriangleScreenSize = 0.05
	body, err := NewBody(opts)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	cameras := []math.Vec3{{Z: 1.5}, {X: 1.5}, {Z: -1.5}, {X: -1.5}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := body.Update(ctx, cameras[i%len(cameras)]); err != nil {
			b.Fatal(err)
		}
	}
}
