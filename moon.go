package ephem

import (
	"math"

	"github.com/soniakeys/meeus/v3/base"
)

const (
	// AU is the astronomical unit in km.
	AU = 149597870.7
	// moonMeanDistance is the constant term of the distance series, in km.
	moonMeanDistance = 385000.56
)

// lunarTerm holds the multipliers of D, M, M′ and F, and the amplitudes of a periodic term
// (longitude and distance, or latitude only), in 1e-6 degree and in 1e-3 km.
type lunarTerm struct {
	d, m, mʹ, f float64
	a, b        float64
}

// lunarLR holds the terms of the longitude (a) and the distance (b).
var lunarLR = [60]lunarTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
	{2, 1, 0, -2, -399, 0},
	{0, 0, 2, -2, -381, -4421},
	{1, 1, 1, 0, 351, 0},
	{3, 0, -2, 0, -340, 0},
	{4, 0, -3, 0, 330, 0},
	{2, -1, 2, 0, 327, 0},
	{0, 2, 1, 0, -323, 1165},
	{1, 1, -1, 0, 299, 0},
	{2, 0, 3, 0, 294, 0},
	{2, 0, -1, -2, 0, 8752},
}

// lunarB holds the terms of the latitude (a).
var lunarB = [60]lunarTerm{
	{0, 0, 0, 1, 5128122, 0},
	{0, 0, 1, 1, 280602, 0},
	{0, 0, 1, -1, 277693, 0},
	{2, 0, 0, -1, 173237, 0},
	{2, 0, -1, 1, 55413, 0},
	{2, 0, -1, -1, 46271, 0},
	{2, 0, 0, 1, 32573, 0},
	{0, 0, 2, 1, 17198, 0},
	{2, 0, 1, -1, 9266, 0},
	{0, 0, 2, -1, 8822, 0},
	{2, -1, 0, -1, 8216, 0},
	{2, 0, -2, -1, 4324, 0},
	{2, 0, 1, 1, 4200, 0},
	{2, 1, 0, -1, -3359, 0},
	{2, -1, -1, 1, 2463, 0},
	{2, -1, 0, 1, 2211, 0},
	{2, -1, -1, -1, 2065, 0},
	{0, 1, -1, -1, -1870, 0},
	{4, 0, -1, -1, 1828, 0},
	{0, 1, 0, 1, -1794, 0},
	{0, 0, 0, 3, -1749, 0},
	{0, 1, -1, 1, -1565, 0},
	{1, 0, 0, 1, -1491, 0},
	{0, 1, 1, 1, -1475, 0},
	{0, 1, 1, -1, -1410, 0},
	{0, 1, 0, -1, -1344, 0},
	{1, 0, 0, -1, -1335, 0},
	{0, 0, 3, 1, 1107, 0},
	{4, 0, 0, -1, 1021, 0},
	{4, 0, -1, 1, 833, 0},
	{0, 0, 1, -3, 777, 0},
	{4, 0, -2, 1, 671, 0},
	{2, 0, 0, -3, 607, 0},
	{2, 0, 2, -1, 596, 0},
	{2, -1, 1, -1, 491, 0},
	{2, 0, -2, 1, -451, 0},
	{0, 0, 3, -1, 439, 0},
	{2, 0, 2, 1, 422, 0},
	{2, 0, -3, -1, 421, 0},
	{2, 1, -1, 1, -366, 0},
	{2, 1, 0, 1, -351, 0},
	{4, 0, 0, 1, 331, 0},
	{2, -1, 1, 1, 315, 0},
	{2, -2, 0, -1, 302, 0},
	{0, 0, 1, 3, -283, 0},
	{2, 1, 1, -1, -229, 0},
	{1, 1, 0, -1, 223, 0},
	{1, 1, 0, 1, 223, 0},
	{0, 1, -2, -1, -220, 0},
	{2, 1, -1, -1, -220, 0},
	{1, 0, 1, 1, -185, 0},
	{2, -1, -2, -1, 181, 0},
	{0, 1, 2, 1, -177, 0},
	{4, 0, -2, -1, 176, 0},
	{4, -1, -1, -1, 166, 0},
	{1, 0, 1, -1, -164, 0},
	{4, 0, 1, -1, 132, 0},
	{1, 0, -1, -1, -119, 0},
	{4, -1, 0, -1, 115, 0},
	{2, -2, 0, 1, 107, 0},
}

// eccentricityFactor returns the correction of a term whose multiple of the solar mean anomaly is m.
func eccentricityFactor(m, E float64) float64 {
	switch math.Abs(m) {
	case 1:
		return E
	case 2:
		return E * E
	}
	return 1
}

// MoonGeocentric returns the geometric geocentric ecliptic longitude and latitude (rad) of the Moon,
// referred to the mean equinox of date, and its distance (AU), at the provided JDE.
func MoonGeocentric(jde float64) (λ, β, Δ float64) {
	T := julianCenturies(jde)
	Lʹ := base.Horner(T, 218.3164477, 481267.88123421, -0.0015786, 1./538841, -1./65194000) * deg2rad
	D := base.Horner(T, 297.8501921, 445267.1114034, -0.0018819, 1./545868, -1./113065000) * deg2rad
	M := base.Horner(T, 357.5291092, 35999.0502909, -0.0001536, 1./24490000) * deg2rad
	Mʹ := base.Horner(T, 134.9633964, 477198.8675055, 0.0087414, 1./69699, -1./14712000) * deg2rad
	F := base.Horner(T, 93.2720950, 483202.0175233, -0.0036539, -1./3526000, 1./863310000) * deg2rad
	A1 := (119.75 + 131.849*T) * deg2rad
	A2 := (53.09 + 479264.290*T) * deg2rad
	A3 := (313.45 + 481266.484*T) * deg2rad
	E := base.Horner(T, 1, -0.002516, -0.0000074)

	var Σl, Σr, Σb float64
	for i := len(lunarLR) - 1; i >= 0; i-- {
		t := &lunarLR[i]
		arg := t.d*D + t.m*M + t.mʹ*Mʹ + t.f*F
		sa, ca := math.Sincos(arg)
		f := eccentricityFactor(t.m, E)
		Σl += t.a * f * sa
		Σr += t.b * f * ca
	}
	for i := len(lunarB) - 1; i >= 0; i-- {
		t := &lunarB[i]
		arg := t.d*D + t.m*M + t.mʹ*Mʹ + t.f*F
		Σb += t.a * eccentricityFactor(t.m, E) * math.Sin(arg)
	}
	Σl += 3958*math.Sin(A1) + 1962*math.Sin(Lʹ-F) + 318*math.Sin(A2)
	Σb += -2235*math.Sin(Lʹ) + 382*math.Sin(A3) + 175*math.Sin(A1-F) +
		175*math.Sin(A1+F) + 127*math.Sin(Lʹ-Mʹ) - 115*math.Sin(Lʹ+Mʹ)

	λ = mod2π(Lʹ + Σl*1e-6*deg2rad)
	β = Σb * 1e-6 * deg2rad
	Δ = (moonMeanDistance + Σr*1e-3) / AU
	return
}

// moonGeocentricCartesian returns the geocentric ecliptic Cartesian position of the Moon (AU),
// referred to the mean equinox of date.
func moonGeocentricCartesian(jde float64) [3]float64 {
	λ, β, Δ := MoonGeocentric(jde)
	x, _ := polarToCartesian([3]float64{λ, β, Δ}, false)
	return x
}
