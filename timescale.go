package ephem

import (
	"github.com/soniakeys/meeus/v3/deltat"
)

const secondsPerDay = 86400

// TimeScale converts Julian dates between Universal Time and Terrestrial (dynamical) Time.
type TimeScale interface {
	TTFromUT(jd float64) float64
	UTFromTT(jde float64) float64
}

// DeltaT is the TimeScale of the historical and extrapolated values of ΔT = TT - UT.
type DeltaT struct{}

// Seconds returns ΔT in seconds at the provided Julian date. Within 1620 and 2010 the tabulated
// values are interpolated; outside, the Morrison-Stephenson parabola is used, with the Espenak-Meeus
// polynomial bridging it to the present.
func (DeltaT) Seconds(jd float64) float64 {
	y := 2000 + (jd-J2000)/365.25
	u := (y - 1820) / 100
	parabola := -20 + 32*u*u
	switch {
	case y < 1620:
		return parabola
	case y < 2010:
		return float64(deltat.Interp10A(jd))
	case y < 2050:
		t := y - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	case y < 2150:
		return parabola - 0.5628*(2150-y)
	default:
		return parabola
	}
}

// TTFromUT implements the TimeScale interface.
func (d DeltaT) TTFromUT(jd float64) float64 {
	return jd + d.Seconds(jd)/secondsPerDay
}

// UTFromTT implements the TimeScale interface.
func (d DeltaT) UTFromTT(jde float64) float64 {
	jd := jde - d.Seconds(jde)/secondsPerDay
	// ΔT varies slowly enough for a single refinement.
	return jde - d.Seconds(jd)/secondsPerDay
}

// FixedDeltaT is a TimeScale with a constant ΔT in seconds.
type FixedDeltaT float64

// TTFromUT implements the TimeScale interface.
func (f FixedDeltaT) TTFromUT(jd float64) float64 {
	return jd + float64(f)/secondsPerDay
}

// UTFromTT implements the TimeScale interface.
func (f FixedDeltaT) UTFromTT(jde float64) float64 {
	return jde - float64(f)/secondsPerDay
}
