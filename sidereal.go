package ephem

import (
	"github.com/soniakeys/meeus/v3/base"
)

// MeanSiderealTime returns the mean sidereal time at Greenwich, in radians within [0, 2π),
// for the provided Julian Date in UT.
func MeanSiderealTime(jd float64) float64 {
	T := julianCenturies(jd)
	θ0 := base.Horner(T, 0, 0, 0.000387933, -1./38710000) + 280.46061837 + 360.98564736629*(jd-base.J2000)
	return mod2π(θ0 * deg2rad)
}

// ApparentSiderealTime returns the mean sidereal time at Greenwich corrected by the equation of
// the equinoxes, i.e. by the nutation in longitude projected on the equator.
func ApparentSiderealTime(jd float64, nut NutationResult, cosε float64) float64 {
	return mod2π(MeanSiderealTime(jd) + nut.Δψ*cosε)
}

// LocalSiderealTime returns the sidereal time at the provided east longitude.
func LocalSiderealTime(θ0, longitude float64) float64 {
	return mod2π(θ0 + longitude)
}
