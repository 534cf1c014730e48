package ephem

import (
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/illum"
	"github.com/soniakeys/unit"
)

const (
	sunMagnitude1AU = -26.74
	// DefaultSlope is the slope parameter G of the H-G magnitude law used for minor bodies.
	DefaultSlope = 0.15
)

// ElongationPhase returns the elongation from the Sun and the phase angle (rad) from the three sides
// of the Sun-observer-target triangle: R the observer to Sun distance, Δ the observer to target
// distance and r the Sun to target distance. Degenerate triangles yield null angles.
func ElongationPhase(R, Δ, r float64) (elong, phase float64) {
	if R > 0 && Δ > 0 {
		elong = math.Acos(clamp1((R*R + Δ*Δ - r*r) / (2 * R * Δ)))
	}
	if r > 0 && Δ > 0 {
		phase = math.Acos(clamp1((r*r + Δ*Δ - R*R) / (2 * r * Δ)))
	}
	return
}

// HGMagnitude returns the visual magnitude of a minor body from its absolute magnitude H, its slope G,
// its heliocentric and observer distances (AU) and its phase angle (rad).
func HGMagnitude(H, G, r, Δ, i float64) float64 {
	t := math.Tan(math.Abs(i) / 2)
	Φ1 := math.Exp(-3.33 * math.Pow(t, 0.63))
	Φ2 := math.Exp(-1.87 * math.Pow(t, 1.22))
	return H + 5*math.Log10(r*Δ) - 2.5*math.Log10((1-G)*Φ1+G*Φ2)
}

// MoonMagnitude returns the visual magnitude of the Moon; the phase angle i is in radians.
func MoonMagnitude(r, Δ, i float64) float64 {
	id := math.Abs(i) / deg2rad
	return 0.21 + 5*math.Log10(r*Δ) + 0.026*id + 4e-9*id*id*id*id
}

// SunMagnitude returns the visual magnitude of the Sun at a distance Δ (AU).
func SunMagnitude(Δ float64) float64 {
	return sunMagnitude1AU + 5*math.Log10(Δ)
}

// saturnRingPole returns the pole of Saturn's rings in the ecliptic and mean equinox of date.
func saturnRingPole(jde float64) [3]float64 {
	T := julianCenturies(jde)
	i := base.Horner(T, 28.075216, -0.012998, 0.000004) * deg2rad
	Ω := base.Horner(T, 169.508470, 1.394681, 0.000412) * deg2rad
	si, ci := math.Sincos(i)
	sΩ, cΩ := math.Sincos(Ω)
	return [3]float64{si * sΩ, -si * cΩ, ci}
}

// SaturnRing returns the tilt B of the rings toward the observer and the difference ΔU of the
// Saturnicentric longitudes of the Sun and of the observer in the ring plane, from the heliocentric
// position of Saturn and its position relative to the observer (ecliptic of date).
func SaturnRing(jde float64, helio, rel [3]float64) (B, ΔU float64) {
	p := saturnRingPole(jde)
	toObs := unitVec(scale(-1, rel))
	toSun := unitVec(scale(-1, helio))
	B = math.Asin(clamp1(dot(p, toObs)))
	u1 := unitVec(sub(toSun, scale(dot(toSun, p), p)))
	u2 := unitVec(sub(toObs, scale(dot(toObs, p), p)))
	ΔU = math.Acos(clamp1(dot(u1, u2)))
	return
}

// PlanetMagnitude returns the visual magnitude of a major planet from its heliocentric distance r,
// its distance Δ to the observer and its phase angle i (rad), following the 1984 Astronomical Almanac.
// Saturn requires the ring geometry (see SaturnRing).
func PlanetMagnitude(id int, r, Δ, i, ringB, ringΔU float64) float64 {
	switch id {
	case Mercury:
		return illum.Mercury84(r, Δ, unit.Angle(i))
	case Venus:
		return illum.Venus84(r, Δ, unit.Angle(i))
	case Mars:
		return illum.Mars84(r, Δ, unit.Angle(i))
	case Jupiter:
		return illum.Jupiter84(r, Δ, unit.Angle(i))
	case Saturn:
		return illum.Saturn84(r, Δ, unit.Angle(ringB), unit.Angle(ringΔU))
	case Uranus:
		return illum.Uranus84(r, Δ)
	case Neptune:
		return illum.Neptune84(r, Δ)
	case Pluto:
		return illum.Pluto84(r, Δ)
	case Earth:
		// Seen from elsewhere: empirical full-phase magnitude with a linear phase coefficient.
		return -3.86 + 5*math.Log10(r*Δ) + 0.01*math.Abs(i)/deg2rad
	default:
		return math.NaN()
	}
}
