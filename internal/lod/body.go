package lod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/celestial-sim/internal/compute"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// Stats describes one Update call.
type Stats struct {
	Iterations  int
	Divided     int // parents split
	Added       int // triangles appended
	Merged      int // parents collapsed
	Deactivated int // triangles deactivated by merges
	Compactions int

	Triangles     int // slots, deactivated included
	LiveTriangles int
	Leaves        int
	Vertices      int

	Duration time.Duration
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("iterations", s.Iterations)
	enc.AddInt("divided", s.Divided)
	enc.AddInt("added", s.Added)
	enc.AddInt("merged", s.Merged)
	enc.AddInt("deactivated", s.Deactivated)
	enc.AddInt("compactions", s.Compactions)
	enc.AddInt("triangles", s.Triangles)
	enc.AddInt("live", s.LiveTriangles)
	enc.AddInt("leaves", s.Leaves)
	enc.AddInt("vertices", s.Vertices)
	enc.AddDuration("took", s.Duration)
	return nil
}

// Result is the outcome of a successful Update.
type Result struct {
	Mesh  *Mesh
	Stats Stats
}

// UpdateOptions tweak a single Update call.
type UpdateOptions struct {
	// SkipAutoFlag keeps the flags set through MarkToDivide/MarkToMerge
	// instead of running the camera-driven flagging pass.
	SkipAutoFlag bool
}

// Body owns the LOD graph of one celestial body and drives it to a fixed
// point for a camera position. All methods serialize on one mutex; Update
// refuses to run re-entrantly.
type Body struct {
	mu       sync.Mutex
	opts     Options
	graph    *Graph
	dispatch *compute.Dispatcher
	layers   []Layer
	log      *zap.Logger
}

// Option customizes a Body.
type Option func(*Body)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Body) {
		if l != nil {
			b.log = l
		}
	}
}

// WithLayers replaces the default sphere projection layer. Layers run in
// order after every iteration that changed the topology.
func WithLayers(layers ...Layer) Option {
	return func(b *Body) {
		b.layers = layers
	}
}

// WithDispatcher sets the compute dispatcher used for every pass.
func WithDispatcher(d *compute.Dispatcher) Option {
	return func(b *Body) {
		if d != nil {
			b.dispatch = d
		}
	}
}

// NewBody validates opts and builds the base icosahedron.
func NewBody(opts Options, options ...Option) (*Body, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := &Body{
		opts:     opts,
		graph:    NewGraph(opts.Radius, opts.PreciseNormals),
		dispatch: compute.New(opts.Workers),
		layers:   []Layer{SphereLayer{Radius: opts.Radius}},
		log:      zap.NewNop(),
	}
	for _, o := range options {
		o(b)
	}

	b.log.Debug("lod body created",
		zap.Uint32("max_depth", opts.MaxDepth),
		zap.Float32("radius", opts.Radius),
		zap.Float32("triangle_screen_size", opts.TriangleScreenSize),
		zap.Bool("precise_normals", opts.PreciseNormals),
		zap.Int("workers", b.dispatch.Workers()),
	)
	return b, nil
}

// Options returns the options the body was built with.
func (b *Body) Options() Options {
	return b.opts
}

// Update runs the LOD loop for camera until no triangle changes and
// assembles the visible mesh.
func (b *Body) Update(ctx context.Context, camera math.Vec3) (*Result, error) {
	return b.UpdateWith(ctx, camera, UpdateOptions{})
}

// ApplyManualDivisions applies the flags set through MarkToDivide and
// MarkToMerge without running the flagging pass.
func (b *Body) ApplyManualDivisions(ctx context.Context) (*Result, error) {
	return b.UpdateWith(ctx, math.Vec3{}, UpdateOptions{SkipAutoFlag: true})
}

// UpdateWith is Update with per-call options.
//
// The context is checked between iterations only. On error the graph stays
// at the last completed iteration, which is structurally consistent.
func (b *Body) UpdateWith(ctx context.Context, camera math.Vec3, uo UpdateOptions) (*Result, error) {
	if !b.mu.TryLock() {
		return nil, ErrUpdateInProgress
	}
	defer b.mu.Unlock()

	start := time.Now()
	var st Stats
	params := flagParams{
		camera:     camera,
		maxDepth:   b.opts.MaxDepth,
		radius:     b.opts.Radius,
		target:     b.opts.TriangleScreenSize,
		mergeRatio: b.opts.MergeRatio,
	}

	settled := false
	for st.Iterations < b.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			b.graph.clearMasks()
			return nil, fmt.Errorf("lod update interrupted: %w", err)
		}
		st.Iterations++

		changed, err := b.iterate(params, uo, &st)
		if err != nil {
			b.graph.clearMasks()
			b.log.Error("lod iteration failed", zap.Int("iteration", st.Iterations), zap.Error(err))
			return nil, err
		}
		if !changed {
			settled = true
			break
		}
	}
	if !settled {
		b.graph.clearMasks()
		b.log.Error("lod update did not settle",
			zap.Int("iterations", st.Iterations),
			zap.Int("triangles", b.graph.TriangleCount()),
		)
		return nil, fmt.Errorf("%w after %d iterations", ErrNoFixedPoint, st.Iterations)
	}

	mesh := b.graph.assemble(b.dispatch, b.opts.StitchEdges)

	st.Triangles = b.graph.TriangleCount()
	st.LiveTriangles = b.graph.LiveCount()
	st.Leaves = mesh.FaceCount()
	st.Vertices = b.graph.VertexCount()
	st.Duration = time.Since(start)

	if st.Added > 0 || st.Merged > 0 {
		b.log.Debug("lod updated", zap.Object("stats", st))
	}
	return &Result{Mesh: mesh, Stats: st}, nil
}

// iterate runs one pass sequence and reports whether the topology changed.
func (b *Body) iterate(params flagParams, uo UpdateOptions, st *Stats) (bool, error) {
	g, d := b.graph, b.dispatch

	if !uo.SkipAutoFlag {
		g.flag(d, params)
	}
	g.enforce(d, params.maxDepth)

	limits := bufferLimits{triangles: b.opts.MaxTriangles, vertices: b.opts.MaxVertices}
	added, err := g.divide(d, limits, b.opts.VerifyIndexCollection)
	if err != nil {
		return false, fmt.Errorf("divide: %w", err)
	}
	deactivated, err := g.merge(d)
	if err != nil {
		return false, fmt.Errorf("merge: %w", err)
	}

	st.Added += added
	st.Divided += added / 4
	st.Deactivated += deactivated
	st.Merged += deactivated / 4

	if g.nDeactivated > b.opts.CompactionThreshold {
		tris, verts := g.compact(d)
		st.Compactions++
		b.log.Info("lod buffers compacted",
			zap.Int("triangles_reclaimed", tris),
			zap.Int("vertices_reclaimed", verts),
			zap.Int("triangles", g.TriangleCount()),
			zap.Int("vertices", g.VertexCount()),
		)
	}

	changed := added > 0 || deactivated > 0
	if changed {
		if err := g.updateNeighbors(d); err != nil {
			return false, fmt.Errorf("update neighbors: %w", err)
		}
	}
	if err := b.applyLayers(); err != nil {
		return false, err
	}
	return changed, nil
}

func (b *Body) applyLayers() error {
	g := b.graph
	n := g.verts.Len()
	for i, layer := range b.layers {
		if err := layer.Apply(g.verts.pos.Slice(), g.verts.updateMask.Slice()); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if g.verts.Len() != n {
			return fmt.Errorf("%w: layer %d changed the vertex count", ErrInconsistent, i)
		}
	}
	clear(g.verts.updateMask.Slice())
	return nil
}

// Mesh assembles the visible mesh of the current graph without updating it.
func (b *Body) Mesh() *Mesh {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.assemble(b.dispatch, b.opts.StitchEdges)
}

// Reset drops every division and returns to the base icosahedron.
func (b *Body) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.graph = NewGraph(b.opts.Radius, b.opts.PreciseNormals)
}

// TriangleInfo returns the record of triangle id.
func (b *Body) TriangleInfo(id TriangleID) (TriangleInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.Info(id)
}

// MarkToDivide flags id for division by the next ApplyManualDivisions.
func (b *Body) MarkToDivide(id TriangleID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.MarkToDivide(id)
}

// MarkToMerge flags the divided triangle id to collapse on the next
// ApplyManualDivisions.
func (b *Body) MarkToMerge(id TriangleID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.MarkToMerge(id)
}

// SetLevel overwrites the level of id. Debug only.
func (b *Body) SetLevel(id TriangleID, level uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.SetLevel(id, level)
}

// Verify checks the structural invariants of the current graph.
func (b *Body) Verify() *Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.Verify(b.opts.MaxDepth)
}

// Counts returns the slot, live and vertex counts of the graph.
func (b *Body) Counts() (triangles, live, vertices int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph.TriangleCount(), b.graph.LiveCount(), b.graph.VertexCount()
}
