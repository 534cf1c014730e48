package ephem

import (
	"fmt"
	"math"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

const (
	// SpeedOfLight in AU/day.
	SpeedOfLight = 173.1446326846693
	// lightTimeMaxIter bounds the light time fixed point.
	lightTimeMaxIter = 25
)

// OutputKind selects the coordinate system of a result.
type OutputKind uint8

const (
	// Ecliptical outputs (λ, β, Δ).
	Ecliptical OutputKind = iota
	// Equatorial outputs (α, δ, Δ).
	Equatorial
	// Horizontal outputs (A, h, Δ), the azimuth counted from the North through the East. Needs a site.
	Horizontal
	// Elongation outputs the elongation, the phase angle and the visual magnitude. The Sun, observer
	// and target triangle is always taken from the center of the observer: a site is ignored.
	Elongation
	// Galactic outputs (l, b, Δ).
	Galactic
)

func (k OutputKind) String() string {
	switch k {
	case Ecliptical:
		return "ecliptical"
	case Equatorial:
		return "equatorial"
	case Horizontal:
		return "horizontal"
	case Elongation:
		return "elongation"
	case Galactic:
		return "galactic"
	default:
		panic(fmt.Errorf("unknown output kind %d", k))
	}
}

// OutputKindFromString returns the output kind from its name.
func OutputKindFromString(s string) (OutputKind, error) {
	for k := Ecliptical; k <= Galactic; k++ {
		if strings.EqualFold(k.String(), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown output kind '%s'", s)
}

// Request is one ephemeris query. Use NewRequest for the defaults: the Earth as observer and the
// equinox J2000.
type Request struct {
	Epoch    float64 // Julian date, in TT unless UT is set
	UT       bool
	Target   int
	Observer int
	Site     *Observer // topocentric when set, the observer must then be the Earth
	Equinox  Equinox
	Output   OutputKind

	Cartesian  bool // converts the polar output to Cartesian
	Geometric  bool // no light time correction
	Aberration bool
	ErrorBars  bool // propagates the covariance
	FK5        bool // applies the FK5 correction to positions of date from the planet evaluator
	Refraction bool
}

// NewRequest returns an apparent ecliptical request of the target seen from the Earth, equinox J2000.
func NewRequest(epoch float64, target int) Request {
	return Request{Epoch: epoch, Target: target, Observer: Earth, Equinox: EquinoxJ2000, Aberration: true}
}

// Result of a Request.
type Result struct {
	// Vector is the position in the requested output, or (elongation, phase, magnitude) for Elongation.
	Vector Vector3

	// Elongation from the Sun and phase angle in radians, and visual magnitude, for every output.
	// They are geocentric even when the request has a site.
	Elongation, Phase, Magnitude float64
	LightTime                    float64 // days
	Iterations                   int
	Converged                    bool
	Epoch                        float64 // JDE (TT)
	UT                           float64 // Julian date (UT)
	Equinox                      float64 // JDE of the equinox the result is referred to
}

// Engine composes positions of solar system bodies.
type Engine struct {
	evaluator PlanetEvaluator
	catalog   *OrbitCatalog
	elements  *OrbitalElementSet
	timescale TimeScale
	cache     *PrecessionCache
	logger    kitlog.Logger
	metrics   *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator sets the planet evaluator.
func WithEvaluator(ev PlanetEvaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

// WithCatalog sets the orbit catalog of minor bodies.
func WithCatalog(c *OrbitCatalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithTimeScale sets the UT to TT conversion.
func WithTimeScale(ts TimeScale) Option {
	return func(e *Engine) { e.timescale = ts }
}

// WithLogger sets the logger.
func WithLogger(logger kitlog.Logger) Option {
	return func(e *Engine) { e.logger = kitlog.With(logger, "component", "engine") }
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPrecessionCache shares a precession cache between engines.
func WithPrecessionCache(pc *PrecessionCache) Option {
	return func(e *Engine) { e.cache = pc }
}

// NewEngine returns an engine. Without options, planets come from their mean elements, the catalog
// is empty and ΔT follows DeltaT.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		evaluator: NewMeanElementsEvaluator(DefaultMeanElementsSigma, DefaultMeanElementsDistSigma),
		catalog:   NewOrbitCatalog(),
		elements:  &OrbitalElementSet{},
		timescale: DeltaT{},
		logger:    kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewPrecessionCache()
	}
	e.cache.instrument(e.metrics)
	return e
}

// withLength returns v rescaled to the length r, with its covariance scaled accordingly.
// A null vector is returned unchanged.
func withLength(v Vector3, r float64) Vector3 {
	d := norm(v.V)
	if d == 0 {
		return v
	}
	f := r / d
	return v.transformed(scale(f, v.V), v.Polar, jacobian([3]float64{f, 0, 0}, [3]float64{0, f, 0}, [3]float64{0, 0, f}))
}

// Precession returns the precession cache of the engine.
func (e *Engine) Precession() *PrecessionCache {
	return e.cache
}

// Catalog returns the orbit catalog of the engine.
func (e *Engine) Catalog() *OrbitCatalog {
	return e.catalog
}

// SetElements replaces the ad hoc element set (see NewOrbitalElementSet).
func (e *Engine) SetElements(values []float64, perihelionForm bool) error {
	return e.elements.Set(values, perihelionForm)
}

// Elements returns the ad hoc element set, which fails with ErrNoElements until set.
func (e *Engine) Elements() *OrbitalElementSet {
	return e.elements
}

// toEquinox refers a heliocentric ecliptic position from one equinox to another, and returns it as
// a Cartesian vector. Positions referred to J2000 use the memoized rotation of the other equinox.
func (e *Engine) toEquinox(v Vector3, from, to float64) Vector3 {
	switch {
	case samePrecessionEpoch(from, to):
		return PolarToCartesian(v)
	case samePrecessionEpoch(from, J2000):
		return e.cache.PrecessCartesian(v, to, true)
	case samePrecessionEpoch(to, J2000):
		return e.cache.PrecessCartesian(v, from, false)
	default:
		return PolarToCartesian(e.cache.EclipticPrecession(CartesianToPolar(v), from, to))
	}
}

func (e *Engine) position(b Body, jde, equinox float64, req *Request) (Vector3, error) {
	v, err := b.heliocentric(e, jde, equinox, req.FK5)
	if err != nil {
		return Vector3{}, err
	}
	if !req.ErrorBars {
		return v.WithoutCov(), nil
	}
	if v.Cov == nil {
		v = v.WithCov(Covariance{})
	}
	return v, nil
}

// difference returns a - b, adding the covariances of both.
func difference(a, b Vector3) Vector3 {
	d := NewCartesian(a.V[0]-b.V[0], a.V[1]-b.V[1], a.V[2]-b.V[2])
	if a.Cov != nil && b.Cov != nil {
		d = d.WithCov(a.Cov.Add(*b.Cov))
	}
	return d
}

// Compute runs a request.
func (e *Engine) Compute(req Request) (res Result, err error) {
	defer func() {
		e.metrics.request(req.Output, res.Iterations, err)
	}()
	if req.Equinox == (Equinox{}) {
		req.Equinox = EquinoxJ2000
	}
	if req.Site != nil && req.Observer != Earth {
		return res, fmt.Errorf("%w: a site requires the Earth as observer, not %s", ErrNoObserver, BodyName(req.Observer))
	}
	if req.Output == Horizontal && req.Site == nil {
		return res, fmt.Errorf("%w: horizontal coordinates", ErrNoObserver)
	}

	// Time scales.
	jde, jdUT := req.Epoch, req.Epoch
	if req.UT {
		jde = e.timescale.TTFromUT(req.Epoch)
	} else {
		jdUT = e.timescale.UTFromTT(req.Epoch)
	}
	res.Epoch, res.UT = jde, jdUT
	ofDate := req.Equinox.OfDate || req.Output == Horizontal || req.Output == Elongation
	equinox := req.Equinox.At(jde)
	if ofDate {
		equinox = jde
	}
	res.Equinox = equinox

	// Nutation only applies to apparent places of date.
	withNutation := ofDate && !(req.Geometric && !req.Aberration)
	nut := Nutation(jde, withNutation, withNutation)
	ε := Obliquity(jde, nut.Δε)
	θ0 := ApparentSiderealTime(jdUT, nut, math.Cos(ε))

	target, err := e.Body(req.Target)
	if err != nil {
		return res, err
	}
	observer, err := e.Body(req.Observer)
	if err != nil {
		return res, err
	}

	// Everything is computed in the mean ecliptic and equinox of date.
	obs, err := e.position(observer, jde, jde, &req)
	if err != nil {
		return res, fmt.Errorf("observer %s: %w", BodyName(req.Observer), err)
	}
	var tgt, rel Vector3
	if req.Geometric {
		if tgt, err = e.position(target, jde, jde, &req); err != nil {
			return res, fmt.Errorf("target %s: %w", BodyName(req.Target), err)
		}
		rel = difference(tgt, obs)
		res.Converged = true
	} else {
		τ := initialDistance(req.Target, req.Observer) / SpeedOfLight
		for res.Iterations < lightTimeMaxIter {
			res.Iterations++
			if tgt, err = e.position(target, jde-τ, jde, &req); err != nil {
				return res, fmt.Errorf("target %s: %w", BodyName(req.Target), err)
			}
			rel = difference(tgt, obs)
			τnext := norm(rel.V) / SpeedOfLight
			Δτ := τnext - τ
			τ = τnext
			if math.Abs(Δτ) < convergenceε {
				res.Converged = true
				break
			}
		}
		if !res.Converged {
			level.Debug(e.logger).Log("target", req.Target, "observer", req.Observer, "jde", jde, "τ", τ, "msg", "light time did not converge")
		}
		res.LightTime = τ
		if req.Aberration {
			obsRet, err := e.position(observer, jde-τ, jde, &req)
			if err != nil {
				return res, fmt.Errorf("observer %s: %w", BodyName(req.Observer), err)
			}
			rel = withLength(difference(tgt, obsRet), norm(rel.V))
		}
	}

	// Elongation, phase and magnitude, from the three sides of the triangle.
	res.Elongation, res.Phase = ElongationPhase(norm(obs.V), norm(rel.V), norm(tgt.V))
	res.Magnitude = target.magnitude(e, jde, tgt.V, rel.V, res.Phase)
	if req.Output == Elongation {
		res.Vector = NewCartesian(res.Elongation, res.Phase, res.Magnitude)
		return res, nil
	}

	if withNutation {
		R := R3(-nut.Δψ)
		rel = rel.transformed(MxV33(R, rel.V), false, R)
	}
	polar := CartesianToPolar(rel)

	var out Vector3
	var θ float64
	if req.Site != nil {
		θ = LocalSiderealTime(θ0, req.Site.Longθ)
	}
	switch req.Output {
	case Ecliptical:
		out = polar
		if req.Site != nil {
			eq := e.topocentric(EclipticToEquatorial(polar, ε), θ, req.Site)
			out = EquatorialToEcliptic(eq, ε)
		}
		if !ofDate {
			out = e.cache.EclipticPrecession(out, jde, equinox)
		}
	case Equatorial, Galactic:
		out = EclipticToEquatorial(polar, ε)
		if req.Site != nil {
			out = e.topocentric(out, θ, req.Site)
		}
		if req.Output == Galactic {
			out = e.cache.ToGalactic(out, jde)
			res.Equinox = B1950
		} else if !ofDate {
			out = e.cache.PrecessEquatorial(out, jde, equinox)
		}
	case Horizontal:
		eq := e.topocentric(EclipticToEquatorial(polar, ε), θ, req.Site)
		out = EquatorialToHorizontal(eq, θ, req.Site.LatΦ)
		if req.Refraction {
			out.V[1] = ApplyRefraction(out.V[1])
		}
	default:
		panic(fmt.Errorf("unknown output kind %d", req.Output))
	}
	if req.Cartesian {
		out = PolarToCartesian(out)
	}
	res.Vector = out
	return res, nil
}

// topocentric applies the parallax of the site to a polar equatorial vector of date.
func (e *Engine) topocentric(eq Vector3, θ float64, site *Observer) Vector3 {
	ρsinφ, ρcosφ := site.ParallaxConstants()
	H := ApplyParallax(HourAngleFromRA(eq, θ), ρcosφ, ρsinφ)
	return RAFromHourAngle(H, θ)
}
