// Package snapshot renders LOD meshes to images without a GPU and writes
// them as png, webp or tga.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// View places the camera.
type View struct {
	Eye    math.Vec3
	Target math.Vec3
	Up     math.Vec3
	// FOV is the vertical field of view in degrees.
	FOV float32
}

// Options controls rasterization.
type Options struct {
	Width, Height int
	// Supersample renders at this multiple of the output size and scales
	// down. Values below 2 disable it.
	Supersample int
	Background  color.NRGBA
	// LightDir points from the surface towards the light.
	LightDir math.Vec3
	Ambient  float32
}

// DefaultOptions returns a square 512 px render with 2x supersampling.
func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      512,
		Supersample: 2,
		Background:  color.NRGBA{R: 0x0b, G: 0x0d, B: 0x14, A: 0xff},
		LightDir:    math.Vec3{X: 0.4, Y: 0.6, Z: 0.7}.Normalize(),
		Ambient:     0.25,
	}
}

// ErrEmptyImage is returned for non-positive output sizes.
var ErrEmptyImage = errors.New("snapshot: image size must be positive")

// frameBuffer is the render target as flat slices. Smaller depth is closer.
type frameBuffer struct {
	width, height int
	color         []uint8
	depth         []float32
}

func newFrameBuffer(w, h int, bg color.NRGBA) *frameBuffer {
	fb := &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, w*h*4),
		depth:  make([]float32, w*h),
	}
	for i := range fb.depth {
		fb.depth[i] = math32.Inf(1)
		fb.color[4*i] = bg.R
		fb.color[4*i+1] = bg.G
		fb.color[4*i+2] = bg.B
		fb.color[4*i+3] = bg.A
	}
	return fb
}

// Render draws mesh flat-shaded with one color per subdivision level.
func Render(mesh *lod.Mesh, view View, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, opts.Width, opts.Height)
	}
	scale := max(opts.Supersample, 1)
	w, h := opts.Width*scale, opts.Height*scale

	up := view.Up
	if up == (math.Vec3{}) {
		up = math.Vec3{Y: 1}
	}
	fov := view.FOV
	if fov <= 0 {
		fov = 45
	}
	dist := view.Eye.Distance(view.Target)
	near := math32.Max(dist*1e-3, 1e-4)
	proj := math.Perspective(fov*math32.Pi/180, float32(w)/float32(h), near, dist*4)
	mvp := proj.Mul(math.LookAt(view.Eye, view.Target, up))

	fb := newFrameBuffer(w, h, opts.Background)
	light := opts.LightDir.Normalize()

	for f := range mesh.FaceCount() {
		p := mesh.Positions[3*f : 3*f+3]
		n := mesh.Normals[3*f]
		if n.Dot(view.Eye.Sub(p[0])) <= 0 {
			continue
		}

		var sx, sy, sz [3]float32
		visible := true
		for k := range 3 {
			clip := mvp.MulVec4(p[k].Vec4(1))
			if clip[3] <= near {
				visible = false
				break
			}
			sx[k] = (clip[0]/clip[3]*0.5 + 0.5) * float32(w)
			sy[k] = (0.5 - clip[1]/clip[3]*0.5) * float32(h)
			sz[k] = clip[2] / clip[3]
		}
		if !visible {
			continue
		}

		shade := opts.Ambient + (1-opts.Ambient)*math32.Max(0, n.Dot(light))
		fb.fillTriangle(sx, sy, sz, LevelColor(mesh.Levels[3*f]), shade)
	}

	img := &image.NRGBA{Pix: fb.color, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	if scale > 1 {
		img = Downsample(img, opts.Width, opts.Height)
	}
	return img, nil
}

// fillTriangle rasterizes one screen-space triangle with a depth test.
func (fb *frameBuffer) fillTriangle(x, y, z [3]float32, c color.NRGBA, shade float32) {
	minX := max(int(math32.Floor(min(x[0], x[1], x[2]))), 0)
	maxX := min(int(math32.Ceil(max(x[0], x[1], x[2]))), fb.width-1)
	minY := max(int(math32.Floor(min(y[0], y[1], y[2]))), 0)
	maxY := min(int(math32.Ceil(max(y[0], y[1], y[2]))), fb.height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y[1]-y[2])*(x[0]-x[2]) + (x[2]-x[1])*(y[0]-y[2])
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det
	dy12, dx21 := y[1]-y[2], x[2]-x[1]
	dy20, dx02 := y[2]-y[0], x[0]-x[2]

	r := uint8(math32.Min(float32(c.R)*shade, 255))
	g := uint8(math32.Min(float32(c.G)*shade, 255))
	b := uint8(math32.Min(float32(c.B)*shade, 255))

	for py := minY; py <= maxY; py++ {
		dy := float32(py) + 0.5 - y[2]
		row := py * fb.width
		for px := minX; px <= maxX; px++ {
			dx := float32(px) + 0.5 - x[2]
			w0 := (dy12*dx + dx21*dy) * invDet
			w1 := (dy20*dx + dx02*dy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}

			i := row + px
			depth := w0*z[0] + w1*z[1] + w2*z[2]
			if depth >= fb.depth[i] {
				continue
			}
			fb.depth[i] = depth
			fb.color[4*i] = r
			fb.color[4*i+1] = g
			fb.color[4*i+2] = b
			fb.color[4*i+3] = c.A
		}
	}
}
