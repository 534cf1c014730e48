package ephem

import (
	"errors"
	"fmt"
	"math"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mshafiee/jpleph"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/planetelements"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"
	"github.com/soniakeys/unit"
)

// ErrEvaluatorUnavailable is returned when an evaluator cannot produce a position, e.g. a missing data file.
var ErrEvaluatorUnavailable = errors.New("planet evaluator unavailable")

// PlanetPosition is a heliocentric ecliptic polar position (λ, β, r) of a major body. When J2000 is set,
// the position is referred to the mean ecliptic and equinox J2000, otherwise to those of date.
type PlanetPosition struct {
	LBR   Vector3
	J2000 bool
}

// PlanetEvaluator returns heliocentric positions of the Sun (a null vector), the eight planets and Pluto.
type PlanetEvaluator interface {
	Heliocentric(jde float64, body int) (PlanetPosition, error)
	Name() string
}

// heliocentricSun is the position of the Sun, common to all evaluators.
func heliocentricSun() PlanetPosition {
	return PlanetPosition{LBR: NewPolar(0, 0, 0).WithCov(Covariance{})}
}

// heliocentricPluto uses Meeus' series for Pluto, valid from 1885 to 2099, referred to J2000.
func heliocentricPluto(jde float64, σAngle, σDist float64) PlanetPosition {
	l, b, r := pluto.Heliocentric(jde)
	lbr := NewPolar(mod2π(l.Rad()), b.Rad(), r)
	return PlanetPosition{LBR: lbr.WithCov(NewDiagonalCovariance(σAngle, σAngle, σDist)), J2000: true}
}

// positionCov returns the covariance of a polar position with angular and radial uncertainties.
// The longitude uncertainty is scaled by the latitude so that it is an arc on the sky.
func positionCov(β, σAngle, σDist float64) Covariance {
	cβ := math.Cos(β)
	σλ := σAngle
	if cβ > 1e-9 {
		σλ = σAngle / cβ
	}
	return NewDiagonalCovariance(σλ, σAngle, σDist)
}

// VSOP87Evaluator evaluates the VSOP87 theory (as distributed in the VSOP87B files) of each planet, loaded
// from the data directory on first use. Positions are of date.
type VSOP87Evaluator struct {
	Dir           string
	σAngle, σDist float64
	mu            sync.Mutex
	planets       [8]*pp.V87Planet
	logger        kitlog.Logger
}

// NewVSOP87Evaluator returns an evaluator reading the VSOP87 files in dir. σAngle (rad) and σDist (AU)
// are the one sigma uncertainties attached to the positions.
func NewVSOP87Evaluator(dir string, σAngle, σDist float64, logger kitlog.Logger) *VSOP87Evaluator {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &VSOP87Evaluator{Dir: dir, σAngle: σAngle, σDist: σDist, logger: kitlog.With(logger, "evaluator", "vsop87")}
}

// Name implements the PlanetEvaluator interface.
func (v *VSOP87Evaluator) Name() string { return "VSOP87" }

func (v *VSOP87Evaluator) planet(body int) (*pp.V87Planet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p := v.planets[body-1]; p != nil {
		return p, nil
	}
	p, err := pp.LoadPlanetPath(body-1, v.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: could not load planet number %d: %s", ErrEvaluatorUnavailable, body, err)
	}
	level.Info(v.logger).Log("body", body, "dir", v.Dir, "msg", "loaded")
	v.planets[body-1] = p
	return p, nil
}

// Heliocentric implements the PlanetEvaluator interface.
func (v *VSOP87Evaluator) Heliocentric(jde float64, body int) (PlanetPosition, error) {
	switch {
	case body == Sun:
		return heliocentricSun(), nil
	case body == Pluto:
		return heliocentricPluto(jde, v.σAngle, v.σDist), nil
	case body < Mercury || body > Neptune:
		return PlanetPosition{}, fmt.Errorf("%w %d", ErrUnknownBody, body)
	}
	p, err := v.planet(body)
	if err != nil {
		return PlanetPosition{}, err
	}
	l, b, r := p.Position(jde)
	lbr := NewPolar(mod2π(l.Rad()), b.Rad(), r)
	return PlanetPosition{LBR: lbr.WithCov(positionCov(b.Rad(), v.σAngle, v.σDist))}, nil
}

// MeanElementsEvaluator computes Keplerian positions from the mean elements of the planets of date.
// It does not need any data file, at the cost of an accuracy of the order of the arc minute.
type MeanElementsEvaluator struct {
	σAngle, σDist float64
}

// NewMeanElementsEvaluator returns an evaluator with the provided one sigma uncertainties (rad and AU).
func NewMeanElementsEvaluator(σAngle, σDist float64) *MeanElementsEvaluator {
	return &MeanElementsEvaluator{σAngle, σDist}
}

// Name implements the PlanetEvaluator interface.
func (m *MeanElementsEvaluator) Name() string { return "mean elements" }

// Heliocentric implements the PlanetEvaluator interface.
func (m *MeanElementsEvaluator) Heliocentric(jde float64, body int) (PlanetPosition, error) {
	switch {
	case body == Sun:
		return heliocentricSun(), nil
	case body == Pluto:
		return heliocentricPluto(jde, m.σAngle, m.σDist), nil
	case body < Mercury || body > Neptune:
		return PlanetPosition{}, fmt.Errorf("%w %d", ErrUnknownBody, body)
	}
	el := meanElements(body, jde)
	Ω := el.Node.Rad()
	ϖ := el.Peri.Rad()
	e := el.Ecc
	st := ArcState{
		M:       el.Lon.Rad() - ϖ,
		E:       e,
		VFactor: VelocityFactor(e),
		Q:       el.Axis * (1 - e),
		Gauss:   gaussConstants(el.Inc.Rad(), Ω, ϖ-Ω),
		Equinox: EquinoxOfDate,
	}
	x, _, _ := st.Position()
	lbr, _ := cartesianToPolar(x, false)
	return PlanetPosition{LBR: NewPolar(lbr[0], lbr[1], lbr[2]).WithCov(positionCov(lbr[1], m.σAngle, m.σDist))}, nil
}

// earthMean holds the mean longitude, perihelion longitude and eccentricity of the Earth of date
// (Meeus table 31.A). The node of the Earth is undefined on the ecliptic of date, which
// planetelements.Mean does not support.
var earthMean = struct{ L, ϖ, e []float64 }{
	[]float64{100.466457, 36000.7698278, .00030322, .00000002},
	[]float64{102.937348, 1.7195366, .00045688, -.000000018},
	[]float64{.01670863, -.000042037, -.0000001267, .00000000014},
}

// meanElements returns the mean elements of date of a planet. The Earth has a null inclination
// and node, so its argument of perihelion is its longitude of perihelion.
func meanElements(body int, jde float64) (el planetelements.Elements) {
	if body != Earth {
		planetelements.Mean(body-1, jde, &el)
		return
	}
	T := base.J2000Century(jde)
	el.Lon = unit.AngleFromDeg(base.Horner(T, earthMean.L...)).Mod1()
	el.Axis = 1.000001018
	el.Ecc = base.Horner(T, earthMean.e...)
	el.Peri = unit.AngleFromDeg(base.Horner(T, earthMean.ϖ...))
	return
}

// JPLEvaluator reads a JPL DE binary ephemeris. The positions are rotated from the ICRF equator to the
// ecliptic J2000.
type JPLEvaluator struct {
	eph           *jpleph.Ephemeris
	σAngle, σDist float64
	mu            sync.Mutex
}

// NewJPLEvaluator opens a JPL DE binary file. The caller must Close the evaluator.
func NewJPLEvaluator(file string, σAngle, σDist float64) (*JPLEvaluator, error) {
	eph, err := jpleph.NewEphemeris(file, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEvaluatorUnavailable, err)
	}
	return &JPLEvaluator{eph: eph, σAngle: σAngle, σDist: σDist}, nil
}

// Name implements the PlanetEvaluator interface.
func (j *JPLEvaluator) Name() string { return "JPL " + j.eph.GetEphemName() }

// Close releases the ephemeris file.
func (j *JPLEvaluator) Close() error {
	return j.eph.Close()
}

// Heliocentric implements the PlanetEvaluator interface.
func (j *JPLEvaluator) Heliocentric(jde float64, body int) (PlanetPosition, error) {
	switch {
	case body == Sun:
		return heliocentricSun(), nil
	case body < Mercury || body > Pluto:
		return PlanetPosition{}, fmt.Errorf("%w %d", ErrUnknownBody, body)
	}
	// The reader keeps its current record, hence a single reader at a time.
	j.mu.Lock()
	pos, _, err := j.eph.CalculatePV(jde, jpleph.Planet(body), jpleph.CenterSun, false)
	j.mu.Unlock()
	if err != nil {
		return PlanetPosition{}, fmt.Errorf("%w: body %d at %f: %s", ErrEvaluatorUnavailable, body, jde, err)
	}
	ecl := MxV33(R1(j2000Obliquity), [3]float64{pos.X, pos.Y, pos.Z})
	lbr, _ := cartesianToPolar(ecl, false)
	return PlanetPosition{LBR: NewPolar(lbr[0], lbr[1], lbr[2]).WithCov(positionCov(lbr[1], j.σAngle, j.σDist)), J2000: true}, nil
}

// j2000Obliquity is the obliquity of the ecliptic J2000 used to rotate equatorial ephemerides.
var j2000Obliquity = MeanObliquity(J2000)

// ToFK5 applies the correction from the dynamical equinox of VSOP87 to the FK5 system, for a position
// referred to the ecliptic of date.
func ToFK5(v Vector3, jde float64) Vector3 {
	L, B := pp.ToFK5(unit.Angle(v.V[0]), unit.Angle(v.V[1]), jde)
	o := v
	o.V[0], o.V[1] = mod2π(L.Rad()), B.Rad()
	return o
}
