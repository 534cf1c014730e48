package ephem

import (
	"math"
)

const (
	// GaussK is the Gaussian gravitational constant, in AU^(3/2)/day.
	GaussK = 0.01720209895
	// keplerMaxIter bounds the hyperbolic fixed point, and the elliptic Newton iteration.
	keplerMaxIter = 500
)

// SolveKepler returns the true anomaly and the radius factor (the ratio of the heliocentric distance
// to the perihelion distance) for a mean anomaly M (rad), an eccentricity e and the velocity factor
// sqrt(|(1+e)/(1-e)|). The last boolean reports whether the iteration met its tolerance; the last
// iterate is returned regardless.
func SolveKepler(M, e, vFactor float64) (ν, radiusFactor float64, converged bool) {
	switch {
	case e == 1:
		// Barker's equation in closed form.
		W := 3 * M
		Y := math.Cbrt(W/2 + math.Sqrt(W*W/4+1))
		s := Y - 1/Y
		return 2 * math.Atan(s), 1 + s*s, true

	case math.Abs(e) < 1:
		M = mod2π(M)
		E := M
		if e > 0.8 {
			E = math.Pi
		}
		for i := 0; i < keplerMaxIter; i++ {
			sE, cE := math.Sincos(E)
			ΔE := (E - e*sE - M) / (1 - e*cE)
			E -= ΔE
			if math.Abs(ΔE) < convergenceε {
				converged = true
				break
			}
		}
		ν = 2 * math.Atan(vFactor*math.Tan(E/2))
		return ν, (1 - e*math.Cos(E)) / (1 - e), converged

	default:
		var E float64
		for i := 0; i < keplerMaxIter; i++ {
			Enext := math.Asinh((M + E) / e)
			Δ := Enext - E
			E = Enext
			if Δ == 0 || math.Abs(Δ) < convergenceε {
				converged = true
				break
			}
		}
		ν = 2 * math.Atan(vFactor*math.Tanh(E/2))
		return ν, (1 - e*math.Cosh(E)) / (1 - e), converged
	}
}

// VelocityFactor returns sqrt(|(1+e)/(1-e)|), or zero for a parabola where it is unused.
func VelocityFactor(e float64) float64 {
	if e == 1 {
		return 0
	}
	return math.Sqrt(math.Abs((1 + e) / (1 - e)))
}

// MeanMotion returns the mean motion in rad/day for a semimajor axis a in AU (negative for hyperbolae).
// A null semimajor axis yields a null mean motion.
func MeanMotion(a float64) float64 {
	if a == 0 {
		return 0
	}
	return GaussK / math.Pow(math.Abs(a), 1.5)
}

// ParabolicMeanMotion returns the mean motion of a parabola, in rad/day, from its perihelion distance in AU.
// With this mean motion, the "mean anomaly" n(t-T) gives W = 3M in Barker's equation.
func ParabolicMeanMotion(q float64) float64 {
	if q <= 0 {
		return 0
	}
	return GaussK / math.Sqrt(2*q*q*q)
}

// GaussConstant is one of the three (factor, angle) pairs which express a heliocentric ecliptic coordinate
// as factor * r * sin(angle + ν).
type GaussConstant struct {
	Factor, Angle float64
}

// gaussConstants computes the Gauss constants from the inclination, the longitude of the ascending node
// and the argument of perihelion, all in radians.
func gaussConstants(i, Ω, ω float64) [3]GaussConstant {
	sΩ, cΩ := math.Sincos(Ω)
	si, ci := math.Sincos(i)
	return [3]GaussConstant{
		{math.Sqrt(cΩ*cΩ + sΩ*sΩ*ci*ci), math.Atan2(cΩ, -sΩ*ci) + ω},
		{math.Sqrt(sΩ*sΩ + cΩ*cΩ*ci*ci), math.Atan2(sΩ, cΩ*ci) + ω},
		{si, ω},
	}
}

// interpolateGauss blends two sets of Gauss constants, with the angles along the shortest arc.
func interpolateGauss(a, b [3]GaussConstant, frac float64) (g [3]GaussConstant) {
	for i := range g {
		g[i].Factor = a[i].Factor + frac*(b[i].Factor-a[i].Factor)
		g[i].Angle = a[i].Angle + frac*shortestArc(a[i].Angle, b[i].Angle)
	}
	return
}

// ArcState is the osculating state of an orbit at one instant, as returned by a catalog lookup or
// by an element set: everything needed to solve Kepler's equation and compose the position.
type ArcState struct {
	M, E, VFactor, Q float64
	Gauss            [3]GaussConstant
	Equinox          Equinox
}

// Position returns the heliocentric ecliptic Cartesian position in AU, referred to the state's equinox,
// and the heliocentric distance.
func (s ArcState) Position() (x [3]float64, r float64, converged bool) {
	ν, rf, converged := SolveKepler(s.M, s.E, s.VFactor)
	r = s.Q * rf
	for i, g := range s.Gauss {
		x[i] = r * g.Factor * math.Sin(g.Angle+ν)
	}
	return x, r, converged
}
