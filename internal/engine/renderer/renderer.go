// Package renderer draws LOD meshes with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/celestial-sim/internal/engine/shader"
	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/internal/snapshot"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;

uniform mat4 uViewProj;

out vec3 vNormal;
out vec3 vColor;

void main() {
	gl_Position = uViewProj * vec4(aPos, 1.0);
	vNormal = aNormal;
	vColor = aColor;
}
`

const fragmentShader = `
#version 410 core

in vec3 vNormal;
in vec3 vColor;

uniform vec3 uLightDir;
uniform float uAmbient;
uniform int uWire;

out vec4 FragColor;

void main() {
	if (uWire == 1) {
		FragColor = vec4(vColor * 0.25, 1.0);
		return;
	}
	float diffuse = max(dot(normalize(vNormal), uLightDir), 0.0);
	FragColor = vec4(vColor * (uAmbient + (1.0 - uAmbient) * diffuse), 1.0);
}
`

// floatsPerVertex is position, normal and color.
const floatsPerVertex = 9

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer owns the GL objects of one mesh.
type Renderer struct {
	config  Config
	program *shader.Program
	log     *zap.Logger

	vao, vbo    uint32
	capacity    int // floats allocated in vbo
	vertexCount int32
	staging     []float32

	LightDir   math.Vec3
	Ambient    float32
	Background [3]float32
}

// New creates a renderer. The GL context must be current.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.Compile(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r := &Renderer{
		config:     cfg,
		program:    program,
		log:        log,
		LightDir:   math.Vec3{X: 0.4, Y: 0.6, Z: 0.7}.Normalize(),
		Ambient:    0.25,
		Background: [3]float32{0.04, 0.05, 0.08},
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(6*4)))
	gl.EnableVertexAttribArray(2)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return r, nil
}

// Upload replaces the drawn mesh.
func (r *Renderer) Upload(mesh *lod.Mesh) {
	n := len(mesh.Positions)
	r.staging = r.staging[:0]
	for i := range n {
		p, nm := mesh.Positions[i], mesh.Normals[i]
		c := snapshot.LevelColor(mesh.Levels[i])
		r.staging = append(r.staging,
			p.X, p.Y, p.Z,
			nm.X, nm.Y, nm.Z,
			float32(c.R)/255, float32(c.G)/255, float32(c.B)/255,
		)
	}
	r.vertexCount = int32(n)
	if n == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if len(r.staging) > r.capacity {
		r.capacity = cap(r.staging)
		gl.BufferData(gl.ARRAY_BUFFER, r.capacity*4, nil, gl.DYNAMIC_DRAW)
		r.log.Debug("mesh buffer grown", zap.Int("floats", r.capacity))
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.staging)*4, gl.Ptr(r.staging))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Begin clears the current framebuffer to the background color.
func (r *Renderer) Begin() {
	gl.ClearColor(r.Background[0], r.Background[1], r.Background[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders the uploaded mesh, optionally with a wireframe overlay.
func (r *Renderer) Draw(view, proj math.Mat4, wireframe bool) {
	if r.vertexCount == 0 {
		return
	}
	viewProj := proj.Mul(view)

	// Hosts such as ImGui change these between frames.
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uViewProj"), 1, false, viewProj.Ptr())
	gl.Uniform3f(r.program.Uniform("uLightDir"), r.LightDir.X, r.LightDir.Y, r.LightDir.Z)
	gl.Uniform1f(r.program.Uniform("uAmbient"), r.Ambient)
	gl.BindVertexArray(r.vao)

	// Push the faces back so the lines win the depth test.
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(1, 1)
	gl.Uniform1i(r.program.Uniform("uWire"), 0)
	gl.DrawArrays(gl.TRIANGLES, 0, r.vertexCount)
	gl.Disable(gl.POLYGON_OFFSET_FILL)

	if wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		gl.Uniform1i(r.program.Uniform("uWire"), 1)
		gl.DrawArrays(gl.TRIANGLES, 0, r.vertexCount)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.BindVertexArray(0)
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Size returns the viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// ReadPixels reads the bound framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() []byte {
	pixels := make([]byte, r.config.Width*r.config.Height*4)
	gl.ReadPixels(0, 0, int32(r.config.Width), int32(r.config.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Close releases the GL objects.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	r.program.Delete()
}
