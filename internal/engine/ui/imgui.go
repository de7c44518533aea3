// Package ui wraps the ImGui SDL backend used by the inspector.
package ui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Backend owns the ImGui window.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	log     *zap.Logger
}

// NewBackend creates the window and loads the GL function pointers.
func NewBackend(title string, width, height int, log *zap.Logger) (*Backend, error) {
	b := &Backend{log: log}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetAfterCreateContextHook(func() {
		log.Debug("imgui context created")
	})
	b.backend.SetBgColor(imgui.NewVec4(0.06, 0.07, 0.09, 1.0))
	b.backend.CreateWindow(title, width, height)

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init opengl: %w", err)
	}
	log.Info("inspector window created", zap.Int("width", width), zap.Int("height", height))
	return b, nil
}

// Run blocks in the backend loop, calling frame once per frame.
func (b *Backend) Run(frame func()) {
	b.backend.Run(frame)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// Viewport returns the main viewport work area.
func Viewport() (x, y, w, h float32) {
	vp := imgui.MainViewport()
	pos, size := vp.WorkPos(), vp.WorkSize()
	return pos.X, pos.Y, size.X, size.Y
}

// ImageInput is the mouse interaction over a drawn texture.
type ImageInput struct {
	Hovered        bool
	DragX, DragY   float32
	Wheel          float32
	Clicked        bool
	LocalX, LocalY float32 // cursor relative to the image, in pixels
}

// GLImage draws a GL texture flipped to top-down and reports mouse input
// over it. last carries the cursor position between frames.
func GLImage(texture uint32, w, h float32, last *imgui.Vec2) ImageInput {
	origin := imgui.CursorScreenPos()
	ref := imgui.NewTextureRefTextureID(imgui.TextureID(texture))
	imgui.ImageWithBgV(
		*ref,
		imgui.NewVec2(w, h),
		imgui.NewVec2(0, 1),
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 1),
		imgui.NewVec4(1, 1, 1, 1),
	)

	var in ImageInput
	if !imgui.IsItemHovered() {
		return in
	}
	mouse := imgui.MousePos()
	in.Hovered = true
	in.LocalX, in.LocalY = mouse.X-origin.X, mouse.Y-origin.Y
	if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
		in.DragX, in.DragY = mouse.X-last.X, mouse.Y-last.Y
	}
	*last = mouse
	in.Wheel = imgui.CurrentIO().MouseWheel()
	in.Clicked = imgui.IsMouseClickedBool(imgui.MouseButtonRight)
	return in
}

// IsKeyPressed reports a key press this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}
