package config

import (
	"flag"
	"fmt"
	"strconv"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and per-frame verification")
	flagDepth      = flag.Int("depth", -1, "Maximum subdivision depth")
	flagRadius     = flag.Float64("radius", 0, "Body radius")
	flagTriSize    = flag.Float64("tri-size", 0, "Target apparent triangle size")
	flagPrecise    = flag.String("precise-normals", "", "Share edge midpoints between neighbors (true/false)")
	flagWorkers    = flag.Int("workers", 0, "Compute workers (0 = GOMAXPROCS)")
	flagWidth      = flag.Int("width", 0, "Window or image width")
	flagHeight     = flag.Int("height", 0, "Window or image height")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagOut        = flag.String("out", "", "Snapshot output path")
	flagFormat     = flag.String("format", "", "Snapshot format: png, webp or tga")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Snapshot.Verify = true
		if cfg.Viewer.VerifyEvery == 0 {
			cfg.Viewer.VerifyEvery = 60
		}
	}
	if *flagDepth >= 0 {
		cfg.LOD.MaxDepth = uint32(*flagDepth)
	}
	if *flagRadius > 0 {
		cfg.LOD.Radius = float32(*flagRadius)
	}
	if *flagTriSize > 0 {
		cfg.LOD.TriangleScreenSize = float32(*flagTriSize)
	}
	if *flagPrecise != "" {
		v, err := strconv.ParseBool(*flagPrecise)
		if err != nil {
			return fmt.Errorf("-precise-normals: %w", err)
		}
		cfg.LOD.PreciseNormals = v
	}
	if *flagWorkers > 0 {
		cfg.LOD.Workers = *flagWorkers
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
		cfg.Snapshot.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
		cfg.Snapshot.Height = *flagHeight
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagOut != "" {
		cfg.Snapshot.Output = *flagOut
	}
	if *flagFormat != "" {
		cfg.Snapshot.Format = *flagFormat
	}
	return nil
}
