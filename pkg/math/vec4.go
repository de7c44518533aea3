package math

// Vec4 is a 4-component vector. Vertex buffers store positions as Vec4 with
// w used as padding.
type Vec4 [4]float32

// XYZ drops the w component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Midpoint averages xyz and keeps the w of v.
func (v Vec4) Midpoint(other Vec4) Vec4 {
	return Vec4{
		(v[0] + other[0]) * 0.5,
		(v[1] + other[1]) * 0.5,
		(v[2] + other[2]) * 0.5,
		v[3],
	}
}
