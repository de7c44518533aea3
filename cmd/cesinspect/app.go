package main

import (
	"context"
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/celestial-sim/internal/config"
	"github.com/Faultbox/celestial-sim/internal/engine/camera"
	"github.com/Faultbox/celestial-sim/internal/engine/framebuffer"
	"github.com/Faultbox/celestial-sim/internal/engine/picking"
	"github.com/Faultbox/celestial-sim/internal/engine/renderer"
	"github.com/Faultbox/celestial-sim/internal/engine/ui"
	"github.com/Faultbox/celestial-sim/internal/logger"
	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/internal/snapshot"
)

const panelWidth = 360

// App is the inspector state. Everything except the dialog goroutines runs
// on the main thread.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	ctx     context.Context
	backend *ui.Backend

	target   *framebuffer.Target
	renderer *renderer.Renderer
	camera   *camera.OrbitCamera
	body     *lod.Body

	edit      settings
	frozen    bool
	wireframe bool
	lastMouse imgui.Vec2

	mesh  *lod.Mesh
	stats lod.Stats

	selected int32
	info     lod.TriangleInfo
	infoErr  error
	level    int32
	report   *lod.Report
	status   string

	// Paths chosen in native dialogs, consumed on the main thread.
	pendingSnapshot chan string
	pendingConfig   chan string
}

// NewApp opens the window and builds the body.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg:             cfg,
		log:             logger.Named("inspect"),
		ctx:             ctx,
		edit:            settingsFrom(cfg.LOD.Options()),
		wireframe:       cfg.Viewer.Wireframe,
		selected:        int32(lod.NoTriangle),
		pendingSnapshot: make(chan string, 1),
		pendingConfig:   make(chan string, 1),
	}

	var err error
	app.backend, err = ui.NewBackend("Celestial Inspector", cfg.Window.Width, cfg.Window.Height, app.log)
	if err != nil {
		return nil, err
	}

	app.target, err = framebuffer.New(cfg.Window.Width-panelWidth, cfg.Window.Height)
	if err != nil {
		return nil, fmt.Errorf("creating view target: %w", err)
	}
	app.renderer, err = renderer.New(renderer.Config{Width: cfg.Window.Width, Height: cfg.Window.Height}, logger.Named("renderer"))
	if err != nil {
		app.target.Destroy()
		return nil, err
	}

	app.camera = camera.NewOrbitCamera(cfg.LOD.Radius, cfg.Viewer.Distance)
	app.camera.FOV = cfg.Viewer.FOV
	if err := app.rebuild(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// rebuild replaces the body with one built from the edited settings.
func (app *App) rebuild() error {
	opts := app.edit.apply(app.cfg.LOD.Options())
	body, err := lod.NewBody(opts, lod.WithLogger(logger.Named("lod")))
	if err != nil {
		return fmt.Errorf("creating body: %w", err)
	}
	app.body = body
	app.mesh = nil
	app.report = nil
	app.infoErr = nil
	app.selected = int32(lod.NoTriangle)
	app.log.Info("body rebuilt",
		zap.Uint32("max_depth", opts.MaxDepth),
		zap.Float32("triangle_screen_size", opts.TriangleScreenSize),
		zap.Bool("precise_normals", opts.PreciseNormals),
		zap.Bool("stitch_edges", opts.StitchEdges),
	)
	return nil
}

// Run blocks in the backend loop.
func (app *App) Run() {
	app.backend.Run(app.frame)
}

// Close releases GL resources.
func (app *App) Close() {
	if app.renderer != nil {
		app.renderer.Close()
		app.renderer = nil
	}
	if app.target != nil {
		app.target.Destroy()
		app.target = nil
	}
}

func (app *App) frame() {
	app.servePending()

	if ui.IsKeyPressed(imgui.KeyF12) {
		app.openSnapshotDialog()
	}

	x, y, w, h := ui.Viewport()
	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(panelWidth, h))
	if imgui.BeginV("Inspector", nil, flags) {
		app.renderPanel()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(x+panelWidth, y))
	imgui.SetNextWindowSize(imgui.NewVec2(w-panelWidth, h))
	if imgui.BeginV("View", nil, flags|imgui.WindowFlagsNoScrollbar) {
		app.renderView()
	}
	imgui.End()
}

// update runs the camera-driven LOD loop unless frozen.
func (app *App) update() {
	if app.frozen && app.mesh != nil {
		return
	}
	if app.frozen {
		app.setMesh(app.body.Mesh(), lod.Stats{})
		return
	}
	res, err := app.body.Update(app.ctx, app.camera.Position())
	if err != nil {
		app.fail("update", err)
		app.frozen = true
		return
	}
	if app.mesh == nil || res.Stats.Added > 0 || res.Stats.Merged > 0 {
		app.setMesh(res.Mesh, res.Stats)
		return
	}
	app.stats = res.Stats
}

func (app *App) setMesh(mesh *lod.Mesh, st lod.Stats) {
	app.mesh = mesh
	app.stats = st
	app.renderer.Upload(mesh)
	if app.selected != int32(lod.NoTriangle) {
		app.lookup()
	}
}

func (app *App) renderView() {
	app.update()

	avail := imgui.ContentRegionAvail()
	app.target.Resize(int(avail.X), int(avail.Y))
	w, h := app.target.Size()

	app.target.Begin()
	app.renderer.Begin()
	view := app.camera.ViewMatrix()
	proj := app.camera.ProjectionMatrix(float32(w) / float32(h))
	app.renderer.Draw(view, proj, app.wireframe)
	app.target.End()

	in := ui.GLImage(app.target.Texture(), float32(w), float32(h), &app.lastMouse)
	if !in.Hovered {
		return
	}
	if in.DragX != 0 || in.DragY != 0 {
		app.camera.HandleDrag(in.DragX, in.DragY)
	}
	if in.Wheel != 0 {
		app.camera.HandleZoom(in.Wheel)
	}
	if in.Clicked && app.mesh != nil {
		ray := picking.ScreenToRay(in.LocalX, in.LocalY, float32(w), float32(h), proj.Mul(view).Inverse())
		if hit, ok := picking.PickMesh(app.mesh, ray); ok {
			app.selected = int32(hit.Triangle)
			app.lookup()
		}
	}
}

// lookup refreshes the record of the selected triangle.
func (app *App) lookup() {
	app.info, app.infoErr = app.body.TriangleInfo(lod.TriangleID(app.selected))
	if app.infoErr == nil {
		app.level = int32(app.info.Level)
	}
}

// applyManual consumes the marks set from the panel.
func (app *App) applyManual() {
	res, err := app.body.ApplyManualDivisions(app.ctx)
	if err != nil {
		app.fail("manual divisions", err)
		return
	}
	app.setMesh(res.Mesh, res.Stats)
	app.status = fmt.Sprintf("applied: %d divided, %d merged", res.Stats.Divided, res.Stats.Merged)
}

func (app *App) verify() {
	app.report = app.body.Verify()
	if err := app.report.Err(); err != nil {
		app.log.Warn("verification failed", zap.Int("violations", len(app.report.Violations)))
		return
	}
	app.log.Info("graph verified", zap.Int("triangles", app.report.Checked))
}

func (app *App) fail(what string, err error) {
	app.status = fmt.Sprintf("%s: %v", what, err)
	app.log.Error(what+" failed", zap.Error(err))
}

func (app *App) openSnapshotDialog() {
	go func() {
		path, err := dialog.File().
			Filter("PNG image", "png").
			Filter("WebP image", "webp").
			Filter("TGA image", "tga").
			Title("Save Snapshot").
			Save()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case app.pendingSnapshot <- path:
		default:
		}
	}()
}

func (app *App) openConfigDialog() {
	go func() {
		path, err := dialog.File().
			Filter("YAML config", "yaml", "yml").
			Title("Save Config").
			Save()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case app.pendingConfig <- path:
		default:
		}
	}()
}

// servePending handles dialog results on the main thread, where GL calls
// are allowed.
func (app *App) servePending() {
	select {
	case path := <-app.pendingSnapshot:
		if err := app.saveSnapshot(path); err != nil {
			app.fail("snapshot", err)
		}
	case path := <-app.pendingConfig:
		cfg := *app.cfg
		cfg.LOD.MaxDepth = uint32(max(app.edit.depth, 0))
		cfg.LOD.TriangleScreenSize = app.edit.triSize
		cfg.LOD.PreciseNormals = app.edit.precise
		cfg.LOD.StitchEdges = app.edit.stitch
		cfg.LOD.VerifyIndexCollection = app.edit.verifyIdx
		if err := cfg.SaveTo(path); err != nil {
			app.fail("saving config", err)
			return
		}
		app.status = "config saved to " + path
	default:
	}
}

func (app *App) saveSnapshot(path string) error {
	img, err := app.target.Snapshot()
	if err != nil {
		return err
	}
	// Unknown extensions fall back to png.
	format, err := snapshot.FormatFromPath(path)
	if err != nil {
		format = snapshot.PNG
	}
	if err := snapshot.Save(path, img, format); err != nil {
		return err
	}
	app.status = "snapshot saved to " + path
	app.log.Info("snapshot saved", zap.String("path", path))
	return nil
}
