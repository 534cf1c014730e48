package ephem

import (
	"math"
	"sync"

	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/meeus/v3/base"
)

const (
	// J2000 is the JDE of the standard equinox.
	J2000 = base.J2000
	// B1950 is the JDE of the Besselian epoch used by the galactic system.
	B1950 = 2433282.4235
	// precessionTolerance is the epoch difference, in days, below which precession is skipped.
	precessionTolerance = 1.0
)

// B1875 is the JDE of the Besselian epoch of the constellation boundaries.
var B1875 = besselianYearToJDE(1875)

func besselianYearToJDE(by float64) float64 {
	return 2415020.3135 + (by-1900)*365.242198781
}

// JulianYearToJDE returns the JDE of a Julian epoch such as 2000.0.
func JulianYearToJDE(jy float64) float64 {
	return base.J2000 + (jy-2000)*365.25
}

// BesselianYearToJDE returns the JDE of a Besselian epoch such as 1950.0.
func BesselianYearToJDE(by float64) float64 {
	return besselianYearToJDE(by)
}

// samePrecessionEpoch returns whether two epochs are close enough for precession to be skipped.
func samePrecessionEpoch(a, b float64) bool {
	return math.Abs(a-b) <= precessionTolerance
}

// precessionKey identifies a memoized precession.
type precessionKey struct {
	from, to float64
}

// precessionEntry is a memoized rotation, along with its inverse.
type precessionEntry struct {
	key      precessionKey
	fwd, inv *mat64.Dense
}

// PrecessionCache memoizes the precession angles of the last equinox or pair of equinoxes used by
// each of the three precession algorithms. It is safe for concurrent use: a miss only recomputes
// values which are a pure function of the key.
type PrecessionCache struct {
	mu         sync.RWMutex
	cartesian  *precessionEntry
	ecliptic   *precessionEntry
	equatorial *precessionEntry
	metrics    *Metrics
}

// NewPrecessionCache returns an empty cache.
func NewPrecessionCache() *PrecessionCache {
	return &PrecessionCache{}
}

// instrument counts the hits and misses of the cache in m, unless it already reports to other metrics.
func (pc *PrecessionCache) instrument(m *Metrics) {
	if m == nil {
		return
	}
	pc.mu.Lock()
	if pc.metrics == nil {
		pc.metrics = m
	}
	pc.mu.Unlock()
}

// lookup returns the memoized entry in slot if its key matches, and computes and stores it otherwise.
func (pc *PrecessionCache) lookup(slot **precessionEntry, key precessionKey, compute func() *mat64.Dense) *precessionEntry {
	pc.mu.RLock()
	e, m := *slot, pc.metrics
	pc.mu.RUnlock()
	if e != nil && e.key == key {
		m.cacheHit()
		return e
	}
	m.cacheMiss()
	fwd := compute()
	var inv mat64.Dense
	inv.Clone(fwd.T())
	e = &precessionEntry{key: key, fwd: fwd, inv: &inv}
	pc.mu.Lock()
	*slot = e
	pc.mu.Unlock()
	return e
}

// eclipticAngles returns η, Π and p of the precession of the ecliptic from the equinox `from`
// to the equinox `to` (Lieske's constants, as arranged by Meeus).
func eclipticAngles(from, to float64) (η, Π, p float64) {
	T := julianCenturies(from)
	t := (to - from) / base.JulianCentury
	η = base.Horner(t, 0,
		base.Horner(T, 47.0029, -0.06603, 0.000598),
		base.Horner(T, -0.03302, 0.000598),
		0.000060) * arcsec2rad
	Π = 174.876384*deg2rad + base.Horner(T, 0, 3289.4789, 0.60622)*arcsec2rad -
		base.Horner(t, 0, base.Horner(T, 869.8089, 0.50491), -0.03536)*arcsec2rad
	p = base.Horner(t, 0,
		base.Horner(T, 5029.0966, 2.22226, -0.000042),
		base.Horner(T, 1.11113, -0.000042),
		-0.000006) * arcsec2rad
	return
}

// eclipticMatrix is the rotation from the mean ecliptic and equinox `from` to the one of `to`.
func eclipticMatrix(from, to float64) *mat64.Dense {
	η, Π, p := eclipticAngles(from, to)
	return R3R1R3(Π, η, -(Π + p))
}

// equatorialMatrix is the rotation of equatorial coordinates from the mean equinox `from` to `to`.
func equatorialMatrix(from, to float64) *mat64.Dense {
	T := julianCenturies(from)
	t := (to - from) / base.JulianCentury
	lin := base.Horner(T, 2306.2181, 1.39656, -0.000139)
	ζ := base.Horner(t, 0, lin, base.Horner(T, 0.30188, -0.000344), 0.017998) * arcsec2rad
	z := base.Horner(t, 0, lin, base.Horner(T, 1.09468, 0.000066), 0.018203) * arcsec2rad
	θ := base.Horner(t, 0, base.Horner(T, 2004.3109, -0.85330, -0.000217),
		-base.Horner(T, 0.42665, 0.000217), -0.041833) * arcsec2rad
	var m, r mat64.Dense
	m.Mul(R2(θ), R3(-ζ))
	r.Mul(R3(-z), &m)
	return &r
}

// PrecessCartesian precesses a Cartesian ecliptic vector from J2000 to the mean ecliptic and
// equinox of `equinox` when forward is set, or back from that equinox to J2000 otherwise.
// The rotation is memoized per equinox.
func (pc *PrecessionCache) PrecessCartesian(v Vector3, equinox float64, forward bool) Vector3 {
	if samePrecessionEpoch(equinox, J2000) {
		return v
	}
	c := PolarToCartesian(v)
	e := pc.lookup(&pc.cartesian, precessionKey{J2000, equinox}, func() *mat64.Dense {
		return eclipticMatrix(J2000, equinox)
	})
	R := e.fwd
	if !forward {
		R = e.inv
	}
	return c.transformed(MxV33(R, c.V), false, R)
}

// EclipticPrecession precesses a polar ecliptic vector between two arbitrary equinoxes.
// The angles are memoized per pair of equinoxes.
func (pc *PrecessionCache) EclipticPrecession(v Vector3, from, to float64) Vector3 {
	if samePrecessionEpoch(from, to) {
		return v
	}
	e := pc.lookup(&pc.ecliptic, precessionKey{from, to}, func() *mat64.Dense {
		return eclipticMatrix(from, to)
	})
	return rotatePolar(CartesianToPolar(v), e.fwd, 1, 0, 1, 0)
}

// PrecessEquatorial precesses a polar equatorial vector (α, δ, r) between two mean equinoxes.
// The angles are memoized per pair of equinoxes.
func (pc *PrecessionCache) PrecessEquatorial(v Vector3, from, to float64) Vector3 {
	if samePrecessionEpoch(from, to) {
		return v
	}
	e := pc.lookup(&pc.equatorial, precessionKey{from, to}, func() *mat64.Dense {
		return equatorialMatrix(from, to)
	})
	return rotatePolar(CartesianToPolar(v), e.fwd, 1, 0, 1, 0)
}

// PrecessRADec is a convenience wrapper of PrecessEquatorial for bare angles in radians.
func (pc *PrecessionCache) PrecessRADec(α, δ, from, to float64) (float64, float64) {
	o := pc.PrecessEquatorial(NewPolar(α, δ, 1), from, to)
	return o.V[0], o.V[1]
}

// PrecessToB1875 returns the position referred to the equinox of the constellation boundaries.
func (pc *PrecessionCache) PrecessToB1875(α, δ, equinox float64) (float64, float64) {
	return pc.PrecessRADec(α, δ, equinox, B1875)
}

// ToGalactic converts a polar equatorial vector referred to `equinox` into galactic coordinates.
func (pc *PrecessionCache) ToGalactic(v Vector3, equinox float64) Vector3 {
	return EquatorialToGalactic(pc.PrecessEquatorial(v.WithoutCov(), equinox, B1950))
}

// FromGalactic converts galactic coordinates into a polar equatorial vector referred to `equinox`.
func (pc *PrecessionCache) FromGalactic(v Vector3, equinox float64) Vector3 {
	return pc.PrecessEquatorial(GalacticToEquatorial(v), B1950, equinox)
}
