// Package config handles celestial-sim configuration loading and management.
package config

import "github.com/Faultbox/celestial-sim/internal/lod"

// Config holds all settings of the command-line tools.
type Config struct {
	LOD      LODConfig      `yaml:"lod"`
	Window   WindowConfig   `yaml:"window"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LODConfig mirrors lod.Options.
type LODConfig struct {
	MaxDepth              uint32  `yaml:"max_depth"`
	Radius                float32 `yaml:"radius"`
	TriangleScreenSize    float32 `yaml:"triangle_screen_size"`
	PreciseNormals        bool    `yaml:"precise_normals"`
	MergeRatio            float32 `yaml:"merge_ratio"`
	CompactionThreshold   int     `yaml:"compaction_threshold"`
	MaxIterations         int     `yaml:"max_iterations"`
	Workers               int     `yaml:"workers"` // 0 = GOMAXPROCS
	StitchEdges           bool    `yaml:"stitch_edges"`
	MaxTriangles          int     `yaml:"max_triangles"` // 0 = unbounded
	MaxVertices           int     `yaml:"max_vertices"`
	VerifyIndexCollection bool    `yaml:"verify_index_collection"`
}

// Options converts the section to engine options.
func (c LODConfig) Options() lod.Options {
	return lod.Options{
		MaxDepth:              c.MaxDepth,
		Radius:                c.Radius,
		TriangleScreenSize:    c.TriangleScreenSize,
		PreciseNormals:        c.PreciseNormals,
		MergeRatio:            c.MergeRatio,
		CompactionThreshold:   c.CompactionThreshold,
		MaxIterations:         c.MaxIterations,
		Workers:               c.Workers,
		StitchEdges:           c.StitchEdges,
		MaxTriangles:          c.MaxTriangles,
		MaxVertices:           c.MaxVertices,
		VerifyIndexCollection: c.VerifyIndexCollection,
	}
}

// WindowConfig holds display settings of the interactive tools.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// ViewerConfig holds camera and overlay settings.
type ViewerConfig struct {
	// Distance is the initial camera distance from the body center in
	// body radii.
	Distance    float32 `yaml:"distance"`
	FOV         float32 `yaml:"fov"`
	OrbitSpeed  float32 `yaml:"orbit_speed"`
	Wireframe   bool    `yaml:"wireframe"`
	VerifyEvery int     `yaml:"verify_every"` // frames; 0 disables
	ShowStats   bool    `yaml:"show_stats"`
}

// SnapshotConfig holds offline rendering settings.
type SnapshotConfig struct {
	Output      string `yaml:"output"`
	Format      string `yaml:"format"` // png, webp or tga; empty follows Output's extension
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Supersample int    `yaml:"supersample"`
	// Frames of the camera orbit run before the final image is taken.
	Frames int `yaml:"frames"`
	// Altitudes are in body radii above the surface.
	StartAltitude float32 `yaml:"start_altitude"`
	EndAltitude   float32 `yaml:"end_altitude"`
	Verify        bool    `yaml:"verify"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := lod.DefaultOptions()
	return &Config{
		LOD: LODConfig{
			MaxDepth:              opts.MaxDepth,
			Radius:                opts.Radius,
			TriangleScreenSize:    opts.TriangleScreenSize,
			PreciseNormals:        opts.PreciseNormals,
			MergeRatio:            opts.MergeRatio,
			CompactionThreshold:   opts.CompactionThreshold,
			MaxIterations:         opts.MaxIterations,
			StitchEdges:           opts.StitchEdges,
			VerifyIndexCollection: false,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			Distance:   3,
			FOV:        45,
			OrbitSpeed: 0.3,
			ShowStats:  true,
		},
		Snapshot: SnapshotConfig{
			Output:        "celestial.png",
			Width:         800,
			Height:        800,
			Supersample:   2,
			Frames:        32,
			StartAltitude: 2,
			EndAltitude:   0.2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
