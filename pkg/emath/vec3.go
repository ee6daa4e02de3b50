package emath

// 3-vectors and 3x3 matrices for the photometric and camera math. Local
// types over golang.org/x/image/math/f64 so we can hang methods off them.

import(
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

type Vec3 f64.Vec3
type Mat3 f64.Mat3

func (v Vec3)Add(w Vec3) Vec3        { return Vec3{v[0]+w[0], v[1]+w[1], v[2]+w[2]} }
func (v Vec3)Sub(w Vec3) Vec3        { return Vec3{v[0]-w[0], v[1]-w[1], v[2]-w[2]} }
func (v Vec3)Scale(s float64) Vec3   { return Vec3{s*v[0], s*v[1], s*v[2]} }
func (v Vec3)Neg() Vec3              { return Vec3{-v[0], -v[1], -v[2]} }
func (v Vec3)Dot(w Vec3) float64     { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }
func (v Vec3)Norm() float64          { return math.Sqrt(v.Dot(v)) }

func (v Vec3)Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Normalize returns the unit vector; the zero vector comes back unchanged.
func (v Vec3)Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

func (v Vec3)String() string {
	return fmt.Sprintf("[%12.6f, %12.6f, %12.6f]", v[0], v[1], v[2])
}

func (m Mat3)Apply(v Vec3) Vec3 {
	return Vec3{
		(m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2]),
		(m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2]),
		(m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2]),
	}
}

// RowsToMat3 builds a matrix whose rows are the three given vectors. Handy
// for world-to-camera rotations, where the rows are the camera axes.
func RowsToMat3(r0, r1, r2 Vec3) Mat3 {
	return Mat3{
		r0[0], r0[1], r0[2],
		r1[0], r1[1], r1[2],
		r2[0], r2[1], r2[2],
	}
}

// Clip limits x to [lo,hi]; used on cosines before acos, where numerical
// noise can push the value just past 1.
func Clip(x, lo, hi float64) float64 {
	if x < lo { return lo }
	if x > hi { return hi }
	return x
}
