package ephem

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

const (
	// galactic pole and node, referred to the B1950 equator.
	galPoleα      = 192.25 * deg2rad
	galPoleδ      = 27.4 * deg2rad
	galNodeL      = 303 * deg2rad
	galInvNodeL   = 123 * deg2rad
	galInvPoleα   = 12.25 * deg2rad
	earthRadiusAU = 4.263521e-5 // sin(8.794148″), i.e. the equatorial horizontal parallax at 1 AU.
)

// polarToCartesian returns the Cartesian components and, if requested, the Jacobian ∂(x,y,z)/∂(λ,β,r).
func polarToCartesian(p [3]float64, withJ bool) ([3]float64, *mat64.Dense) {
	sλ, cλ := math.Sincos(p[0])
	sβ, cβ := math.Sincos(p[1])
	r := p[2]
	x := [3]float64{r * cβ * cλ, r * cβ * sλ, r * sβ}
	if !withJ {
		return x, nil
	}
	return x, jacobian(
		[3]float64{-x[1], -r * sβ * cλ, cβ * cλ},
		[3]float64{x[0], -r * sβ * sλ, cβ * sλ},
		[3]float64{0, r * cβ, sβ})
}

// cartesianToPolar returns the polar components (longitude in [0, 2π)) and, if requested,
// the Jacobian ∂(λ,β,r)/∂(x,y,z). Rows which would require a division by a zero radius or
// a zero projected radius are zeroed instead.
func cartesianToPolar(x [3]float64, withJ bool) ([3]float64, *mat64.Dense) {
	ρ2 := x[0]*x[0] + x[1]*x[1]
	ρ := math.Sqrt(ρ2)
	r2 := ρ2 + x[2]*x[2]
	r := math.Sqrt(r2)
	p := [3]float64{0, 0, r}
	if ρ > 0 {
		p[0] = mod2π(math.Atan2(x[1], x[0]))
	}
	if r > 0 {
		p[1] = math.Atan2(x[2], ρ)
	}
	if !withJ {
		return p, nil
	}
	var jλ, jβ, jr [3]float64
	if ρ > 0 {
		jλ = [3]float64{-x[1] / ρ2, x[0] / ρ2, 0}
		jβ = [3]float64{-x[0] * x[2] / (r2 * ρ), -x[1] * x[2] / (r2 * ρ), ρ / r2}
	}
	if r > 0 {
		jr = [3]float64{x[0] / r, x[1] / r, x[2] / r}
	}
	return p, jacobian(jλ, jβ, jr)
}

// PolarToCartesian converts a polar vector to Cartesian, propagating its covariance.
// A vector which is already Cartesian is returned as is.
func PolarToCartesian(v Vector3) Vector3 {
	if !v.Polar {
		return v
	}
	x, J := polarToCartesian(v.V, v.HasCov())
	return v.transformed(x, false, J)
}

// CartesianToPolar converts a Cartesian vector to polar, propagating its covariance.
// The longitude is normalized to [0, 2π). A vector which is already polar is returned as is.
func CartesianToPolar(v Vector3) Vector3 {
	if v.Polar {
		return v
	}
	p, J := cartesianToPolar(v.V, v.HasCov())
	return v.transformed(p, true, J)
}

// rotatePolar applies a rotation matrix to a polar vector: pre and post are the diagonal
// sign/offset adjustments on the longitude before and after the rotation.
func rotatePolar(v Vector3, R *mat64.Dense, inSign, inOffset, outSign, outOffset float64) Vector3 {
	withJ := v.HasCov()
	in := [3]float64{inOffset + inSign*v.V[0], v.V[1], v.V[2]}
	x, Jin := polarToCartesian(in, withJ)
	p, Jout := cartesianToPolar(MxV33(R, x), withJ)
	p[0] = mod2π(outOffset + outSign*p[0])
	if !withJ {
		return Vector3{V: p, Polar: true}
	}
	var J mat64.Dense
	J.Product(diagSign(outSign), Jout, R, Jin, diagSign(inSign))
	return v.transformed(p, true, &J)
}

func diagSign(s float64) *mat64.Dense {
	return mat64.NewDense(3, 3, []float64{s, 0, 0, 0, 1, 0, 0, 0, 1})
}

// EclipticToEquatorial converts a polar ecliptic vector (λ, β, r) to a polar equatorial vector
// (α, δ, r) for the obliquity ε.
func EclipticToEquatorial(v Vector3, ε float64) Vector3 {
	return rotatePolar(v, R1(-ε), 1, 0, 1, 0)
}

// EquatorialToEcliptic is the inverse of EclipticToEquatorial.
func EquatorialToEcliptic(v Vector3, ε float64) Vector3 {
	return rotatePolar(v, R1(ε), 1, 0, 1, 0)
}

// EquatorialToHorizontal converts a polar equatorial vector (α, δ, r) to a polar horizontal vector
// (A, h, r) given the local sidereal time θ and the latitude φ of the observer.
// The azimuth A is counted from the North through the East.
func EquatorialToHorizontal(v Vector3, θ, φ float64) Vector3 {
	// The hour angle H = θ - α is the longitude in the local meridian frame, and the azimuth
	// from the South westward comes out of a rotation about the East-West axis.
	return rotatePolar(v, R2(math.Pi/2-φ), -1, θ, 1, math.Pi)
}

// HorizontalToEquatorial is the inverse of EquatorialToHorizontal.
func HorizontalToEquatorial(v Vector3, θ, φ float64) Vector3 {
	return rotatePolar(v, R2(φ-math.Pi/2), 1, -math.Pi, -1, θ)
}

// HourAngleFromRA converts a polar equatorial vector (α, δ, r) to (H, δ, r) for the local sidereal time θ.
func HourAngleFromRA(v Vector3, θ float64) Vector3 {
	o := v
	o.V[0] = mod2π(θ - v.V[0])
	if v.Cov != nil {
		c := PropagateCovariance(diagSign(-1), *v.Cov)
		o.Cov = &c
	}
	return o
}

// RAFromHourAngle is the inverse of HourAngleFromRA (which is its own inverse up to θ).
func RAFromHourAngle(v Vector3, θ float64) Vector3 {
	return HourAngleFromRA(v, θ)
}

// ApplyParallax converts a geocentric polar vector (H, δ, Δ) in hour angle, declination and distance (AU)
// into the topocentric one, for an observer with parallax constants ρcosφ′ and ρsinφ′ (in Earth radii).
func ApplyParallax(v Vector3, ρcosφ, ρsinφ float64) Vector3 {
	withJ := v.HasCov()
	x, Jin := polarToCartesian(v.V, withJ)
	x[0] -= ρcosφ * earthRadiusAU
	x[2] -= ρsinφ * earthRadiusAU
	p, Jout := cartesianToPolar(x, withJ)
	if !withJ {
		return Vector3{V: p, Polar: true}
	}
	var J mat64.Dense
	J.Mul(Jout, Jin)
	return v.transformed(p, true, &J)
}

// Refraction returns the atmospheric refraction in radians for a true altitude h in radians,
// following Saemundsson's formula for standard pressure and temperature.
func Refraction(h float64) float64 {
	hd := h / deg2rad
	if hd <= -5 {
		return 0
	}
	return (1.02 / 60) * deg2rad / math.Tan((hd+10.3/(hd+5.11))*deg2rad)
}

// ApplyRefraction returns the apparent altitude for a true altitude h (radians). The correction is
// only applied when the refracted altitude is not below the horizon.
func ApplyRefraction(h float64) float64 {
	R := Refraction(h)
	if R <= 0 || h+R < 0 {
		return h
	}
	return h + R
}

// EquatorialToGalactic converts a polar equatorial vector referred to B1950 to galactic (l, b, r).
// The covariance is not propagated.
func EquatorialToGalactic(v Vector3) Vector3 {
	sδ, cδ := math.Sincos(v.V[1])
	sp, cp := math.Sincos(galPoleδ)
	sα, cα := math.Sincos(galPoleα - v.V[0])
	x := math.Atan2(sα, cα*sp-sδ/cδ*cp)
	if cδ == 0 {
		x = math.Atan2(sα, -math.Copysign(1, sδ)*cp)
	}
	b := math.Asin(clamp1(sδ*sp + cδ*cp*cα))
	return NewPolar(mod2π(galNodeL-x), b, v.V[2])
}

// GalacticToEquatorial converts a galactic polar vector to equatorial (α, δ, r) referred to B1950.
// The covariance is not propagated.
func GalacticToEquatorial(v Vector3) Vector3 {
	sb, cb := math.Sincos(v.V[1])
	sp, cp := math.Sincos(galPoleδ)
	sl, cl := math.Sincos(v.V[0] - galInvNodeL)
	y := math.Atan2(sl, cl*sp-sb/cb*cp)
	if cb == 0 {
		y = math.Atan2(sl, -math.Copysign(1, sb)*cp)
	}
	δ := math.Asin(clamp1(sb*sp + cb*cp*cl))
	return NewPolar(mod2π(y+galInvPoleα), δ, v.V[2])
}
