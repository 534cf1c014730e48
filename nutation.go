package ephem

import (
	"math"

	"github.com/soniakeys/meeus/v3/base"
)

// nutationTerm is one term of the nutation series: the multipliers of D, M, M′, F and Ω, then the
// coefficients of Δψ and Δε (constant and linear in T), in units of 0.0001″.
type nutationTerm struct {
	d, m, mʹ, f, Ω float64
	ψ0, ψ1, ε0, ε1 float64
}

var nutationSeries = [63]nutationTerm{
	{0, 0, 0, 0, 1, -171996, -174.2, 92025, 8.9},
	{-2, 0, 0, 2, 2, -13187, -1.6, 5736, -3.1},
	{0, 0, 0, 2, 2, -2274, -0.2, 977, -0.5},
	{0, 0, 0, 0, 2, 2062, 0.2, -895, 0.5},
	{0, 1, 0, 0, 0, 1426, -3.4, 54, -0.1},
	{0, 0, 1, 0, 0, 712, 0.1, -7, 0},
	{-2, 1, 0, 2, 2, -517, 1.2, 224, -0.6},
	{0, 0, 0, 2, 1, -386, -0.4, 200, 0},
	{0, 0, 1, 2, 2, -301, 0, 129, -0.1},
	{-2, -1, 0, 2, 2, 217, -0.5, -95, 0.3},
	{-2, 0, 1, 0, 0, -158, 0, 0, 0},
	{-2, 0, 0, 2, 1, 129, 0.1, -70, 0},
	{0, 0, -1, 2, 2, 123, 0, -53, 0},
	{2, 0, 0, 0, 0, 63, 0, 0, 0},
	{0, 0, 1, 0, 1, 63, 0.1, -33, 0},
	{2, 0, -1, 2, 2, -59, 0, 26, 0},
	{0, 0, -1, 0, 1, -58, -0.1, 32, 0},
	{0, 0, 1, 2, 1, -51, 0, 27, 0},
	{-2, 0, 2, 0, 0, 48, 0, 0, 0},
	{0, 0, -2, 2, 1, 46, 0, -24, 0},
	{2, 0, 0, 2, 2, -38, 0, 16, 0},
	{0, 0, 2, 2, 2, -31, 0, 13, 0},
	{0, 0, 2, 0, 0, 29, 0, 0, 0},
	{-2, 0, 1, 2, 2, 29, 0, -12, 0},
	{0, 0, 0, 2, 0, 26, 0, 0, 0},
	{-2, 0, 0, 2, 0, -22, 0, 0, 0},
	{0, 0, -1, 2, 1, 21, 0, -10, 0},
	{0, 2, 0, 0, 0, 17, -0.1, 0, 0},
	{2, 0, -1, 0, 1, 16, 0, -8, 0},
	{-2, 2, 0, 2, 2, -16, 0.1, 7, 0},
	{0, 1, 0, 0, 1, -15, 0, 9, 0},
	{-2, 0, 1, 0, 1, -13, 0, 7, 0},
	{0, -1, 0, 0, 1, -12, 0, 6, 0},
	{0, 0, 2, -2, 0, 11, 0, 0, 0},
	{2, 0, -1, 2, 1, -10, 0, 5, 0},
	{2, 0, 1, 2, 2, -8, 0, 3, 0},
	{0, 1, 0, 2, 2, 7, 0, -3, 0},
	{-2, 1, 1, 0, 0, -7, 0, 0, 0},
	{0, -1, 0, 2, 2, -7, 0, 3, 0},
	{2, 0, 0, 2, 1, -7, 0, 3, 0},
	{2, 0, 1, 0, 0, 6, 0, 0, 0},
	{-2, 0, 2, 2, 2, 6, 0, -3, 0},
	{-2, 0, 1, 2, 1, 6, 0, -3, 0},
	{2, 0, -2, 0, 1, -6, 0, 3, 0},
	{2, 0, 0, 0, 1, -6, 0, 3, 0},
	{0, -1, 1, 0, 0, 5, 0, 0, 0},
	{-2, -1, 0, 2, 1, -5, 0, 3, 0},
	{-2, 0, 0, 0, 1, -5, 0, 3, 0},
	{0, 0, 2, 2, 1, -5, 0, 3, 0},
	{-2, 0, 2, 0, 1, 4, 0, 0, 0},
	{-2, 1, 0, 2, 1, 4, 0, 0, 0},
	{0, 0, 1, -2, 0, 4, 0, 0, 0},
	{-1, 0, 1, 0, 0, -4, 0, 0, 0},
	{-2, 1, 0, 0, 0, -4, 0, 0, 0},
	{1, 0, 0, 0, 0, -4, 0, 0, 0},
	{0, 0, 1, 2, 0, 3, 0, 0, 0},
	{0, 0, -2, 2, 2, -3, 0, 0, 0},
	{-1, -1, 1, 0, 0, -3, 0, 0, 0},
	{0, 1, 1, 0, 0, -3, 0, 0, 0},
	{0, -1, 1, 2, 2, -3, 0, 0, 0},
	{2, -1, -1, 2, 2, -3, 0, 0, 0},
	{0, 0, 3, 2, 2, -3, 0, 0, 0},
	{2, -1, 0, 2, 2, -3, 0, 0, 0},
}

// NutationResult holds the nutation in longitude and in obliquity, in radians.
type NutationResult struct {
	Δψ, CosΔψ, SinΔψ float64
	Δε               float64
}

// julianCenturies returns the time in Julian centuries of TT from J2000.0.
func julianCenturies(jde float64) float64 {
	return (jde - base.J2000) / base.JulianCentury
}

// Nutation computes the nutation at the provided JDE. Only the requested components are summed;
// the others are left to zero (and CosΔψ to one).
func Nutation(jde float64, wantψ, wantε bool) NutationResult {
	res := NutationResult{CosΔψ: 1}
	if !wantψ && !wantε {
		return res
	}
	T := julianCenturies(jde)
	D := base.Horner(T, 297.85036, 445267.111480, -0.0019142, 1./189474) * deg2rad
	M := base.Horner(T, 357.52772, 35999.050340, -0.0001603, -1./300000) * deg2rad
	Mʹ := base.Horner(T, 134.96298, 477198.867398, 0.0086972, 1./56250) * deg2rad
	F := base.Horner(T, 93.27191, 483202.017538, -0.0036825, 1./327270) * deg2rad
	Ω := base.Horner(T, 125.04452, -1934.136261, 0.0020708, 1./450000) * deg2rad
	var ψ, ε float64
	// Sum the smallest terms first.
	for i := len(nutationSeries) - 1; i >= 0; i-- {
		n := nutationSeries[i]
		arg := n.d*D + n.m*M + n.mʹ*Mʹ + n.f*F + n.Ω*Ω
		if wantψ {
			ψ += math.Sin(arg) * (n.ψ0 + n.ψ1*T)
		}
		if wantε && n.ε0 != 0 {
			ε += math.Cos(arg) * (n.ε0 + n.ε1*T)
		}
	}
	if wantψ {
		res.Δψ = ψ * 1e-4 * arcsec2rad
		res.SinΔψ, res.CosΔψ = math.Sincos(res.Δψ)
	}
	if wantε {
		res.Δε = ε * 1e-4 * arcsec2rad
	}
	return res
}

// MeanObliquity returns the mean obliquity of the ecliptic at the provided JDE, in radians,
// from Laskar's polynomial which holds within a few hundredths of an arc second over 10 000 years
// around J2000.
func MeanObliquity(jde float64) float64 {
	U := julianCenturies(jde) / 100
	return (84381.448 + base.Horner(U, 0, -4680.93, -1.55, 1999.25, -51.38, -249.67,
		-39.05, 7.12, 27.87, 5.79, 2.45)) * arcsec2rad
}

// Obliquity returns the obliquity of the ecliptic corrected by the nutation in obliquity Δε.
func Obliquity(jde, Δε float64) float64 {
	return MeanObliquity(jde) + Δε
}

// TrueObliquity returns the obliquity of date, computing the nutation in obliquity itself.
func TrueObliquity(jde float64) float64 {
	return Obliquity(jde, Nutation(jde, false, true).Δε)
}
