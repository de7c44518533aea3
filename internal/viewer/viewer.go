// Package viewer implements the interactive orbit viewer: window, input,
// LOD updates and drawing.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/celestial-sim/internal/config"
	"github.com/Faultbox/celestial-sim/internal/engine/camera"
	"github.com/Faultbox/celestial-sim/internal/engine/input"
	"github.com/Faultbox/celestial-sim/internal/engine/renderer"
	"github.com/Faultbox/celestial-sim/internal/engine/window"
	"github.com/Faultbox/celestial-sim/internal/logger"
	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/internal/snapshot"
)

const title = "Celestial Viewer"

var printer = message.NewPrinter(language.English)

// Viewer is the interactive viewer instance.
type Viewer struct {
	cfg      *config.Config
	log      *zap.Logger
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	body     *lod.Body
	controls controls

	stats    lod.Stats
	frame    int
	uploaded bool
}

// New opens the window and builds the body.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
		controls: controls{
			wireframe: cfg.Viewer.Wireframe,
			orbiting:  cfg.Viewer.OrbitSpeed != 0,
		},
	}

	opts := cfg.LOD.Options()
	var err error
	v.body, err = lod.NewBody(opts, lod.WithLogger(logger.Named("lod")))
	if err != nil {
		return nil, fmt.Errorf("failed to create body: %w", err)
	}

	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The GL context must exist before the renderer.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h}, logger.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Resize(w, h)

	v.camera = camera.NewOrbitCamera(opts.Radius, cfg.Viewer.Distance)
	v.camera.FOV = cfg.Viewer.FOV
	v.input = input.New()

	v.log.Info("viewer initialized",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Uint32("max_depth", opts.MaxDepth),
	)
	return v, nil
}

// Run blocks in the main loop until the window closes, Esc is pressed or
// ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")

	for ctx.Err() == nil {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			break
		}
		v.handleEvents()
		if v.controls.quit {
			break
		}

		if err := v.update(ctx, dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(printer.Sprintf("%s | %d fps | %d faces | alt %.4g",
				title, frameCount, v.stats.Leaves, v.camera.Altitude()))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Object("stats", v.stats))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (v *Viewer) handleEvents() {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventKeyDown:
			v.controls.press(e.Key)
		case input.EventMouseMove:
			if v.input.IsButtonDown(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(e.DeltaX, e.DeltaY)
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(e.DeltaY)
		}
	}
}

func (v *Viewer) update(ctx context.Context, dt float32) error {
	if v.controls.orbiting {
		v.camera.Orbit(v.cfg.Viewer.OrbitSpeed, dt)
	}
	v.frame++

	if !v.controls.frozen {
		res, err := v.body.Update(ctx, v.camera.Position())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		v.stats = res.Stats
		if !v.uploaded || res.Stats.Added > 0 || res.Stats.Merged > 0 {
			v.renderer.Upload(res.Mesh)
			v.uploaded = true
		}
	}

	every := v.cfg.Viewer.VerifyEvery
	if v.controls.verify || (every > 0 && v.frame%every == 0) {
		v.controls.verify = false
		v.verify()
	}
	return nil
}

func (v *Viewer) verify() {
	rep := v.body.Verify()
	if err := rep.Err(); err != nil {
		v.log.Error("graph verification failed",
			zap.Int("violations", len(rep.Violations)),
			zap.Error(err),
		)
		return
	}
	v.log.Info("graph verified", zap.Int("triangles", rep.Checked))
}

func (v *Viewer) render() {
	v.renderer.Begin()
	w, h := v.renderer.Size()
	aspect := float32(w) / float32(max(h, 1))
	v.renderer.Draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(aspect), v.controls.wireframe)

	if v.controls.snapshot {
		v.controls.snapshot = false
		if err := v.saveSnapshot(); err != nil {
			v.log.Error("snapshot failed", zap.Error(err))
		}
	}
}

// saveSnapshot writes the back buffer next to the configured output path.
func (v *Viewer) saveSnapshot() error {
	w, h := v.renderer.Size()
	img, err := snapshot.FromPixels(v.renderer.ReadPixels(), w, h)
	if err != nil {
		return err
	}
	format := snapshot.PNG
	if v.cfg.Snapshot.Format != "" {
		if format, err = snapshot.ParseFormat(v.cfg.Snapshot.Format); err != nil {
			return err
		}
	}
	path := snapshot.Filename(filepath.Dir(v.cfg.Snapshot.Output), "viewer", format)
	if err := snapshot.Save(path, img, format); err != nil {
		return err
	}
	v.log.Info("snapshot saved", zap.String("path", path))
	return nil
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
