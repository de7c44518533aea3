package picking

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: -1}
	b := math.Vec3{X: 1, Y: -1}
	c := math.Vec3{Y: 1}

	tests := []struct {
		name   string
		ray    Ray
		want   float32
		wantOK bool
	}{
		{"front face", Ray{math.Vec3{Z: 3}, math.Vec3{Z: -1}}, 3, true},
		{"back face", Ray{math.Vec3{Z: -3}, math.Vec3{Z: 1}}, 0, false},
		{"outside", Ray{math.Vec3{X: 2, Z: 3}, math.Vec3{Z: -1}}, 0, false},
		{"behind origin", Ray{math.Vec3{Z: 3}, math.Vec3{Z: 1}}, 0, false},
		{"parallel", Ray{math.Vec3{Z: 1}, math.Vec3{X: 1}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ray.IntersectTriangle(a, b, c)
			if ok != tt.wantOK {
				t.Fatalf("hit = %v, want %v", ok, tt.wantOK)
			}
			if ok && math32.Abs(got-tt.want) > 1e-5 {
				t.Errorf("distance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScreenToRayCenter(t *testing.T) {
	eye := math.Vec3{Z: 5}
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(math32.Pi/4, 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	r := ScreenToRay(50, 50, 100, 100, inv)
	if !r.Direction.ApproxEqual(math.Vec3{Z: -1}, 1e-4) {
		t.Errorf("direction = %+v, want -Z", r.Direction)
	}
	if !r.Origin.ApproxEqual(math.Vec3{Z: 4.9}, 1e-2) {
		t.Errorf("origin = %+v, want on the near plane", r.Origin)
	}
}

func TestPickMesh(t *testing.T) {
	body, err := lod.NewBody(lod.DefaultOptions())
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	mesh := body.Mesh()

	ray := Ray{math.Vec3{X: 0.05, Y: 0.1, Z: 5}, math.Vec3{Z: -1}}
	hit, ok := PickMesh(mesh, ray)
	if !ok {
		t.Fatal("ray towards the body missed")
	}
	if hit.Triangle < 0 || hit.Triangle >= 20 {
		t.Errorf("hit triangle %d is not a root", hit.Triangle)
	}
	if hit.Point.Z <= 0 || hit.Point.Z > 1 {
		t.Errorf("hit point %+v is not on the near side", hit.Point)
	}

	info, err := body.TriangleInfo(hit.Triangle)
	if err != nil {
		t.Fatalf("TriangleInfo: %v", err)
	}
	if _, ok := ray.IntersectTriangle(info.Positions[0], info.Positions[1], info.Positions[2]); !ok {
		t.Error("picked triangle does not contain the hit")
	}

	// From the center every face is seen from behind.
	if _, ok := PickMesh(mesh, Ray{math.Vec3{}, math.Vec3{Z: 1}}); ok {
		t.Error("ray from inside hit a face")
	}
}
