package ephem

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/kit/log/level"
)

// Body identifiers. Positive identifiers above Moon refer to catalog bodies.
const (
	AdHoc   = -1
	Sun     = 0
	Mercury = 1
	Venus   = 2
	Earth   = 3
	Mars    = 4
	Jupiter = 5
	Saturn  = 6
	Uranus  = 7
	Neptune = 8
	Pluto   = 9
	Moon    = 10
)

// moonSigma is the one sigma uncertainty of the lunar series: longitude, latitude (rad) and distance (AU).
var moonSigma = [3]float64{10 * arcsec2rad, 4 * arcsec2rad, 10 / AU}

// celestialObject defines a body known without a catalog.
type celestialObject struct {
	Name   string
	Radius float64 // km
	a      float64 // mean distance to the Sun, AU
}

var celestialObjects = [...]celestialObject{
	Sun:     {"Sun", 695700, 0},
	Mercury: {"Mercury", 2439.7, 0.387098},
	Venus:   {"Venus", 6051.8, 0.723332},
	Earth:   {"Earth", 6378.1363, 1.000001},
	Mars:    {"Mars", 3396.19, 1.523679},
	Jupiter: {"Jupiter", 71492.0, 5.2026},
	Saturn:  {"Saturn", 60268.0, 9.5549},
	Uranus:  {"Uranus", 25559.0, 19.2184},
	Neptune: {"Neptune", 24764.0, 30.1104},
	Pluto:   {"Pluto", 1188.3, 39.482},
	Moon:    {"Moon", 1737.4, 1.000001},
}

// moonEarthDistance is the mean distance between the Moon and the Earth, in AU.
const moonEarthDistance = 384400 / AU

// BodyFromName returns the identifier of a body from its name, or parses a numerical identifier.
func BodyFromName(name string) (int, error) {
	n := strings.TrimSpace(name)
	for id, obj := range celestialObjects {
		if strings.EqualFold(obj.Name, n) {
			return id, nil
		}
	}
	switch strings.ToLower(n) {
	case "adhoc", "elements":
		return AdHoc, nil
	}
	id, err := strconv.Atoi(n)
	if err != nil {
		return 0, fmt.Errorf("%w '%s'", ErrUnknownBody, name)
	}
	return id, nil
}

// BodyName returns the name of a body for display purposes.
func BodyName(id int) string {
	switch {
	case id == AdHoc:
		return "elements"
	case id >= 0 && id < len(celestialObjects):
		return celestialObjects[id].Name
	default:
		return fmt.Sprintf("#%d", id)
	}
}

// initialDistance returns a coarse distance between two bodies (AU), the first guess of the light time
// solver. Zero means unknown.
func initialDistance(target, observer int) float64 {
	if (target == Moon && observer == Earth) || (target == Earth && observer == Moon) {
		return moonEarthDistance
	}
	if target < 0 || observer < 0 || target >= len(celestialObjects) || observer >= len(celestialObjects) {
		return 0
	}
	return math.Abs(celestialObjects[target].a - celestialObjects[observer].a)
}

// Body is one of MajorPlanet, MoonBody, AdHocElements or CatalogBody.
type Body interface {
	ID() int
	// heliocentric returns the heliocentric ecliptic Cartesian position, referred to the mean
	// ecliptic and equinox of `equinox`, at the provided JDE.
	heliocentric(e *Engine, jde, equinox float64, fk5 bool) (Vector3, error)
	// magnitude returns the visual magnitude given the heliocentric position of the body, its position
	// relative to the observer, and the phase angle.
	magnitude(e *Engine, jde float64, helio, rel [3]float64, i float64) float64
}

// MajorPlanet is the Sun, a planet or Pluto, as provided by the engine's PlanetEvaluator.
type MajorPlanet int

// ID implements the Body interface.
func (p MajorPlanet) ID() int { return int(p) }

func (p MajorPlanet) heliocentric(e *Engine, jde, equinox float64, fk5 bool) (Vector3, error) {
	pos, err := e.evaluator.Heliocentric(jde, int(p))
	if err != nil {
		return Vector3{}, err
	}
	from := jde
	if pos.J2000 {
		from = J2000
	} else if fk5 {
		pos.LBR = ToFK5(pos.LBR, jde)
	}
	return e.toEquinox(pos.LBR, from, equinox), nil
}

func (p MajorPlanet) magnitude(e *Engine, jde float64, helio, rel [3]float64, i float64) float64 {
	r, Δ := norm(helio), norm(rel)
	if Δ == 0 {
		return math.NaN()
	}
	if p == Sun {
		return SunMagnitude(Δ)
	}
	var B, ΔU float64
	if p == Saturn {
		B, ΔU = SaturnRing(jde, helio, rel)
	}
	return PlanetMagnitude(int(p), r, Δ, i, B, ΔU)
}

// MoonBody is the Moon from the lunar series, added to the Earth's heliocentric position.
type MoonBody struct{}

// ID implements the Body interface.
func (MoonBody) ID() int { return Moon }

func (MoonBody) heliocentric(e *Engine, jde, equinox float64, fk5 bool) (Vector3, error) {
	earth, err := MajorPlanet(Earth).heliocentric(e, jde, equinox, fk5)
	if err != nil {
		return Vector3{}, err
	}
	λ, β, Δ := MoonGeocentric(jde)
	geo := NewPolar(λ, β, Δ).WithCov(NewDiagonalCovariance(moonSigma[0], moonSigma[1], moonSigma[2]))
	geoC := e.toEquinox(geo, jde, equinox)
	out := NewCartesian(earth.V[0]+geoC.V[0], earth.V[1]+geoC.V[1], earth.V[2]+geoC.V[2])
	if earth.Cov != nil {
		out = out.WithCov(earth.Cov.Add(*geoC.Cov))
	} else {
		out = out.WithCov(*geoC.Cov)
	}
	return out, nil
}

func (MoonBody) magnitude(e *Engine, jde float64, helio, rel [3]float64, i float64) float64 {
	r, Δ := norm(helio), norm(rel)
	if Δ == 0 {
		return math.NaN()
	}
	return MoonMagnitude(r, Δ, i)
}

// AdHocElements is the body described by the engine's current element set.
type AdHocElements struct{}

// ID implements the Body interface.
func (AdHocElements) ID() int { return AdHoc }

func (AdHocElements) heliocentric(e *Engine, jde, equinox float64, fk5 bool) (Vector3, error) {
	st, err := e.elements.State(jde)
	if err != nil {
		return Vector3{}, err
	}
	return e.arcPosition(AdHoc, st, jde, equinox), nil
}

func (AdHocElements) magnitude(e *Engine, jde float64, helio, rel [3]float64, i float64) float64 {
	return HGMagnitude(e.elements.AbsMag(), DefaultSlope, norm(helio), norm(rel), i)
}

// CatalogBody is a minor body of the engine's orbit catalog.
type CatalogBody int

// ID implements the Body interface.
func (c CatalogBody) ID() int { return int(c) }

func (c CatalogBody) heliocentric(e *Engine, jde, equinox float64, fk5 bool) (Vector3, error) {
	st, err := e.catalog.Lookup(int(c), jde)
	if err != nil {
		return Vector3{}, err
	}
	return e.arcPosition(int(c), st, jde, equinox), nil
}

func (c CatalogBody) magnitude(e *Engine, jde float64, helio, rel [3]float64, i float64) float64 {
	info, err := e.catalog.Info(int(c))
	if err != nil {
		return math.NaN()
	}
	return HGMagnitude(info.AbsMag, DefaultSlope, norm(helio), norm(rel), i)
}

// arcPosition composes the position of an osculating state and refers it to the working equinox.
func (e *Engine) arcPosition(id int, st ArcState, jde, equinox float64) Vector3 {
	x, _, converged := st.Position()
	if !converged {
		level.Debug(e.logger).Log("body", id, "jde", jde, "e", st.E, "msg", "Kepler's equation did not converge")
	}
	return e.toEquinox(NewCartesian(x[0], x[1], x[2]), st.Equinox.At(jde), equinox)
}

// Body returns the body of the provided identifier.
func (e *Engine) Body(id int) (Body, error) {
	switch {
	case id == AdHoc:
		return AdHocElements{}, nil
	case id == Moon:
		return MoonBody{}, nil
	case id >= Sun && id <= Pluto:
		return MajorPlanet(id), nil
	case e.catalog != nil && e.catalog.Has(id):
		return CatalogBody(id), nil
	}
	return nil, fmt.Errorf("%w %d", ErrUnknownBody, id)
}
