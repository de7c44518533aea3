package lod

import "fmt"

// Options configures a Body.
type Options struct {
	// MaxDepth is the deepest subdivision level a triangle may reach.
	MaxDepth uint32
	// Radius of the sphere in local units.
	Radius float32
	// TriangleScreenSize is the target apparent size: longest edge divided
	// by the distance from the camera to the triangle.
	TriangleScreenSize float32
	// PreciseNormals shares edge midpoints between neighbors. Without it
	// every division creates three fresh vertices.
	PreciseNormals bool
	// MergeRatio scales the target size below which children merge back.
	MergeRatio float32
	// CompactionThreshold is the deactivated slot count that triggers
	// compaction.
	CompactionThreshold int
	// MaxIterations caps the update loop. Reaching it is a consistency error.
	MaxIterations int
	// Workers for compute passes; 0 uses GOMAXPROCS.
	Workers int
	// StitchEdges snaps mid-edge vertices against coarser neighbors in the
	// assembled mesh.
	StitchEdges bool
	// MaxTriangles and MaxVertices bound buffer growth; 0 means unbounded.
	MaxTriangles int
	MaxVertices  int
	// VerifyIndexCollection cross-checks the parallel flag collection with a
	// sequential scan on every division batch.
	VerifyIndexCollection bool
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth:            3,
		Radius:              1,
		TriangleScreenSize:  0.1,
		PreciseNormals:      true,
		MergeRatio:          0.4,
		CompactionThreshold: 100000,
		MaxIterations:       64,
		StitchEdges:         true,
	}
}

// maxLevel bounds MaxDepth so triangle counts stay within int32 ids.
const maxLevel = 24

// Validate checks the options for values the engine cannot run with.
func (o Options) Validate() error {
	switch {
	case o.MaxDepth > maxLevel:
		return fmt.Errorf("%w: max depth %d exceeds %d", ErrInvalidOptions, o.MaxDepth, maxLevel)
	case o.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidOptions, o.Radius)
	case o.TriangleScreenSize <= 0:
		return fmt.Errorf("%w: triangle screen size must be positive, got %g", ErrInvalidOptions, o.TriangleScreenSize)
	case o.MergeRatio <= 0 || o.MergeRatio >= 1:
		return fmt.Errorf("%w: merge ratio must be in (0, 1), got %g", ErrInvalidOptions, o.MergeRatio)
	case o.MaxIterations < 1:
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidOptions, o.MaxIterations)
	case o.CompactionThreshold < 0 || o.MaxTriangles < 0 || o.MaxVertices < 0:
		return fmt.Errorf("%w: negative buffer limit", ErrInvalidOptions)
	case o.MaxTriangles > 0 && o.MaxTriangles < RootTriangles:
		return fmt.Errorf("%w: max triangles %d below base mesh size", ErrInvalidOptions, o.MaxTriangles)
	case o.MaxVertices > 0 && o.MaxVertices < RootVertices:
		return fmt.Errorf("%w: max vertices %d below base mesh size", ErrInvalidOptions, o.MaxVertices)
	}
	return nil
}
