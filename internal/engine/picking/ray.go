// Package picking casts screen rays against LOD meshes.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

// Ray is a half line with a normalized direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates (origin top-left) to a ray using
// the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	near := unproject(invViewProj, ndcX, ndcY, -1)
	far := unproject(invViewProj, ndcX, ndcY, 1)
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, x, y, z float32) math.Vec3 {
	p := inv.MulVec4(math.Vec4{x, y, z, 1})
	if p[3] != 0 {
		p[0] /= p[3]
		p[1] /= p[3]
		p[2] /= p[3]
	}
	return p.XYZ()
}

const epsilon = 1e-7

// IntersectTriangle returns the distance to the front face of the triangle
// a, b, c wound counter-clockwise. Back faces and parallel rays miss.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (float32, bool) {
	e1, e2 := b.Sub(a), c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det < epsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Hit is the closest mesh face along a ray.
type Hit struct {
	Triangle lod.TriangleID
	Distance float32
	Point    math.Vec3
}

// PickMesh returns the closest face of mesh hit by r.
func PickMesh(mesh *lod.Mesh, r Ray) (Hit, bool) {
	best := Hit{Triangle: lod.NoTriangle, Distance: math32.MaxFloat32}
	for f, id := range mesh.Triangles {
		p := mesh.Positions[3*f : 3*f+3]
		if t, ok := r.IntersectTriangle(p[0], p[1], p[2]); ok && t < best.Distance {
			best.Triangle, best.Distance = id, t
		}
	}
	if best.Triangle == lod.NoTriangle {
		return Hit{Triangle: lod.NoTriangle}, false
	}
	best.Point = r.At(best.Distance)
	return best, true
}
