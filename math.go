package ephem

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/unit"
)

const (
	deg2rad = math.Pi / 180
	twoπ    = 2 * math.Pi
	// arcsec2rad converts arc seconds to radians.
	arcsec2rad = deg2rad / 3600
	// machineε is the float64 machine epsilon.
	machineε = 2.220446049250313e-16
	// convergenceε is the tolerance of every iterative solver in this package.
	convergenceε = 1000 * machineε
)

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// unitVec returns the unit vector of a given vector.
func unitVec(a [3]float64) (b [3]float64) {
	n := norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-15) {
		return
	}
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// dot performs the inner product via mat64/BLAS.
func dot(a, b [3]float64) float64 {
	return mat64.Dot(mat64.NewVector(3, a[:]), mat64.NewVector(3, b[:]))
}

// sub returns a - b.
func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// add returns a + b.
func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// scale returns f*a.
func scale(f float64, a [3]float64) [3]float64 {
	return [3]float64{f * a[0], f * a[1], f * a[2]}
}

// mod2π reduces an angle in radians to [0, 2π).
func mod2π(a float64) float64 {
	return unit.PMod(a, twoπ)
}

// shortestArc returns the difference b-a wrapped to (-π, π], i.e. the shortest angular path from a to b.
func shortestArc(a, b float64) float64 {
	d := mod2π(b - a)
	if d > math.Pi {
		d -= twoπ
	}
	return d
}

// clamp1 clamps the argument of an inverse cosine or sine to [-1, 1].
func clamp1(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return mod2π(a * deg2rad)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return unit.PMod(a/deg2rad, 360)
}
