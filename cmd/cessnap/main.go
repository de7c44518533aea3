// Package main renders a snapshot of a body after a scripted camera orbit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/celestial-sim/internal/config"
	"github.com/Faultbox/celestial-sim/internal/logger"
	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/internal/snapshot"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("snapshot failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	opts := cfg.LOD.Options()
	body, err := lod.NewBody(opts, lod.WithLogger(logger.Named("lod")))
	if err != nil {
		return fmt.Errorf("creating body: %w", err)
	}

	sc := cfg.Snapshot
	var format snapshot.Format
	if sc.Format != "" {
		if format, err = snapshot.ParseFormat(sc.Format); err != nil {
			return err
		}
	} else if format, err = snapshot.FormatFromPath(sc.Output); err != nil {
		return err
	}

	frames := orbit(sc.Frames, opts.Radius, sc.StartAltitude, sc.EndAltitude)
	var res *lod.Result
	for _, f := range frames {
		res, err = body.Update(ctx, f.Eye)
		if err != nil {
			return fmt.Errorf("frame %d: %w", f.Index, err)
		}
		logger.Info("frame",
			zap.Int("frame", f.Index),
			zap.Float32("altitude", f.Altitude),
			zap.Object("stats", res.Stats),
		)
		if sc.Verify {
			if err := body.Verify().Err(); err != nil {
				return fmt.Errorf("frame %d: %w", f.Index, err)
			}
		}
	}

	last := frames[len(frames)-1]
	ro := snapshot.DefaultOptions()
	ro.Width, ro.Height, ro.Supersample = sc.Width, sc.Height, sc.Supersample
	img, err := snapshot.Render(res.Mesh, snapshot.View{
		Eye: last.Eye,
		Up:  math.Vec3{Y: 1},
		FOV: cfg.Viewer.FOV,
	}, ro)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	if err := snapshot.Save(sc.Output, img, format); err != nil {
		return fmt.Errorf("saving %s: %w", sc.Output, err)
	}

	logger.Info("snapshot written",
		zap.String("path", sc.Output),
		zap.String("format", string(format)),
		zap.Int("faces", res.Mesh.FaceCount()),
		zap.Int("width", sc.Width),
		zap.Int("height", sc.Height),
	)
	return nil
}
