package ephem

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

// Vector3 is either a Cartesian triple (X, Y, Z) or a polar triple (longitude, latitude, radius),
// optionally carrying the covariance of its components. Angles are in radians.
// Vector3 is a value type: every transformation returns a new vector and a new covariance.
type Vector3 struct {
	V     [3]float64
	Polar bool
	Cov   *Covariance
}

// NewCartesian returns a Cartesian vector without covariance.
func NewCartesian(x, y, z float64) Vector3 {
	return Vector3{V: [3]float64{x, y, z}}
}

// NewPolar returns a polar vector without covariance.
func NewPolar(lon, lat, r float64) Vector3 {
	return Vector3{V: [3]float64{lon, lat, r}, Polar: true}
}

// WithCov returns a copy of this vector carrying the provided covariance.
func (v Vector3) WithCov(c Covariance) Vector3 {
	v.Cov = &c
	return v
}

// WithoutCov returns a copy of this vector without covariance.
func (v Vector3) WithoutCov() Vector3 {
	v.Cov = nil
	return v
}

// HasCov returns whether this vector carries a covariance.
func (v Vector3) HasCov() bool {
	return v.Cov != nil
}

// Radius returns the distance, whichever the representation.
func (v Vector3) Radius() float64 {
	if v.Polar {
		return v.V[2]
	}
	return norm(v.V)
}

// Sigma returns the standard deviations of the components, or zeros without covariance.
func (v Vector3) Sigma() (σ [3]float64) {
	if v.Cov == nil {
		return
	}
	for i := 0; i < 3; i++ {
		σ[i] = sqrtPos(v.Cov[i])
	}
	return
}

// transformed returns a new vector with the provided components, and the covariance propagated
// through J when this vector has one.
func (v Vector3) transformed(out [3]float64, polar bool, J mat64.Matrix) Vector3 {
	o := Vector3{V: out, Polar: polar}
	if v.Cov != nil {
		c := PropagateCovariance(J, *v.Cov)
		o.Cov = &c
	}
	return o
}

// String implements the Stringer interface.
func (v Vector3) String() string {
	var s string
	if v.Polar {
		s = fmt.Sprintf("λ=%.6f° β=%.6f° r=%.9f", Rad2deg(v.V[0]), v.V[1]/deg2rad, v.V[2])
	} else {
		s = fmt.Sprintf("X=%.9f Y=%.9f Z=%.9f", v.V[0], v.V[1], v.V[2])
	}
	if v.Cov != nil {
		s += " " + v.Cov.String()
	}
	return s
}

func sqrtPos(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}
