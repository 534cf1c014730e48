package ephem

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// R3R1R3 composes R3(θ3)·R1(θ2)·R3(θ1), i.e. a 3-1-3 sequence applied right to left.
// The precession of ecliptic vectors is of that form.
func R3R1R3(θ1, θ2, θ3 float64) *mat64.Dense {
	var r13, r313 mat64.Dense
	r13.Mul(R1(θ2), R3(θ1))
	r313.Mul(R3(θ3), &r13)
	return &r313
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v [3]float64) (o [3]float64) {
	vVec := mat64.NewVector(3, v[:])
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return [3]float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// rotZ returns the vector rotated by an angle θ about the Z axis, i.e. its longitude increased by θ.
// Only the XY plane is affected, hence no matrix is needed.
func rotZ(θ float64, v [3]float64) [3]float64 {
	s, c := math.Sincos(θ)
	return [3]float64{c*v[0] - s*v[1], s*v[0] + c*v[1], v[2]}
}
