package main

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/celestial-sim/internal/lod"
)

// printer groups thousands in the large counters.
var printer = message.NewPrinter(language.English)

var (
	colorGood = imgui.NewVec4(0.4, 0.8, 0.4, 1)
	colorBad  = imgui.NewVec4(0.9, 0.4, 0.4, 1)
	colorDim  = imgui.NewVec4(0.6, 0.6, 0.6, 1)
)

func (app *App) renderPanel() {
	app.renderStats()
	imgui.Separator()
	app.renderSettings()
	imgui.Separator()
	app.renderTriangle()
	imgui.Separator()
	app.renderVerifier()
	imgui.Separator()

	if imgui.ButtonV("Save Snapshot... (F12)", imgui.NewVec2(-1, 0)) {
		app.openSnapshotDialog()
	}
	if imgui.ButtonV("Save Config...", imgui.NewVec2(-1, 0)) {
		app.openConfigDialog()
	}
	if app.status != "" {
		imgui.Separator()
		imgui.TextWrapped(app.status)
	}
}

func (app *App) renderStats() {
	if !imgui.TreeNodeExStrV("Statistics", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	triangles, live, vertices := app.body.Counts()
	imgui.Text(fmt.Sprintf("Altitude: %.5g", app.camera.Altitude()))
	imgui.Text(printer.Sprintf("Triangles: %d (%d live)", triangles, live))
	imgui.Text(printer.Sprintf("Vertices: %d", vertices))
	if app.mesh != nil {
		imgui.Text(printer.Sprintf("Faces drawn: %d", app.mesh.FaceCount()))
	}
	st := app.stats
	imgui.TextColored(colorDim, fmt.Sprintf("Last: %d iter, +%d / -%d, %d compactions, %s",
		st.Iterations, st.Divided, st.Merged, st.Compactions, st.Duration))
	imgui.Checkbox("Freeze LOD", &app.frozen)
	imgui.SameLine()
	imgui.Checkbox("Wireframe", &app.wireframe)
	imgui.TreePop()
}

func (app *App) renderSettings() {
	if !imgui.TreeNodeExStrV("Body", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	changed := false
	if imgui.SliderIntV("Max depth", &app.edit.depth, 0, 12, "%d", imgui.SliderFlagsNone) {
		changed = true
	}
	if imgui.SliderFloatV("Triangle size", &app.edit.triSize, 0.01, 1, "%.3f", imgui.SliderFlagsNone) {
		changed = true
	}
	if imgui.Checkbox("Precise normals", &app.edit.precise) {
		changed = true
	}
	if imgui.Checkbox("Stitch edges", &app.edit.stitch) {
		changed = true
	}
	if imgui.Checkbox("Verify index collection", &app.edit.verifyIdx) {
		changed = true
	}
	if changed {
		if err := app.rebuild(); err != nil {
			app.fail("rebuild", err)
		}
	}
	if imgui.Button("Reset body") {
		app.body.Reset()
		app.mesh = nil
		app.report = nil
	}
	imgui.TreePop()
}

func (app *App) renderTriangle() {
	if !imgui.TreeNodeExStrV("Triangle", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	defer imgui.TreePop()

	imgui.TextColored(colorDim, "Right-click the view to pick.")
	triangles, _, _ := app.body.Counts()
	if imgui.SliderIntV("Id", &app.selected, -1, int32(triangles-1), "%d", imgui.SliderFlagsNone) {
		app.lookup()
	}
	if app.selected == int32(lod.NoTriangle) {
		return
	}
	if app.infoErr != nil {
		imgui.TextColored(colorBad, app.infoErr.Error())
		return
	}

	in := app.info
	imgui.Text(fmt.Sprintf("State: %s  Level: %d  Face: %d", in.State, in.Level, in.Face))
	imgui.Text(fmt.Sprintf("Parent: %d", in.Parent))
	imgui.Text(fmt.Sprintf("Neighbors: %d %d %d", in.Neighbors[0], in.Neighbors[1], in.Neighbors[2]))
	if in.Divided {
		imgui.Text(fmt.Sprintf("Children: %d %d %d %d", in.Children[0], in.Children[1], in.Children[2], in.Children[3]))
	}
	for k, v := range in.Vertices {
		p := in.Positions[k]
		imgui.Text(fmt.Sprintf("v%d #%d (%.4f, %.4f, %.4f)", k, v, p.X, p.Y, p.Z))
	}
	if in.ToDivide || in.ToMerge {
		imgui.TextColored(colorGood, fmt.Sprintf("Marked: divide=%v merge=%v", in.ToDivide, in.ToMerge))
	}

	id := lod.TriangleID(app.selected)
	if imgui.Button("Mark divide") {
		if err := app.body.MarkToDivide(id); err != nil {
			app.fail("mark divide", err)
		}
		app.lookup()
	}
	imgui.SameLine()
	if imgui.Button("Mark merge") {
		if err := app.body.MarkToMerge(id); err != nil {
			app.fail("mark merge", err)
		}
		app.lookup()
	}
	imgui.SameLine()
	if imgui.Button("Apply") {
		app.frozen = true
		app.applyManual()
	}

	imgui.SliderIntV("##level", &app.level, 0, 24, "level %d", imgui.SliderFlagsNone)
	imgui.SameLine()
	if imgui.Button("Set level") {
		if err := app.body.SetLevel(id, uint32(app.level)); err != nil {
			app.fail("set level", err)
		}
		app.lookup()
	}
}

func (app *App) renderVerifier() {
	if imgui.ButtonV("Verify graph", imgui.NewVec2(-1, 0)) {
		app.verify()
	}
	if app.report == nil {
		return
	}
	if app.report.OK() {
		imgui.TextColored(colorGood, fmt.Sprintf("OK: %d triangles checked", app.report.Checked))
		return
	}
	imgui.TextColored(colorBad, fmt.Sprintf("%d violations", len(app.report.Violations)))
	if imgui.BeginChildStrV("Violations", imgui.NewVec2(0, 160), imgui.ChildFlagsBorders, imgui.WindowFlagsHorizontalScrollbar) {
		for _, v := range app.report.Violations {
			imgui.Text(v.String())
		}
	}
	imgui.EndChild()
}
