package ephem

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/gonum/floats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fixedEvaluator returns constant positions of date, in (λ, β, r).
type fixedEvaluator map[int][3]float64

func (f fixedEvaluator) Name() string { return "fixed" }

func (f fixedEvaluator) Heliocentric(jde float64, body int) (PlanetPosition, error) {
	p, ok := f[body]
	if !ok {
		return PlanetPosition{}, ErrUnknownBody
	}
	return PlanetPosition{LBR: NewPolar(p[0], p[1], p[2])}, nil
}

func TestOutputKind(t *testing.T) {
	for k := Ecliptical; k <= Galactic; k++ {
		back, err := OutputKindFromString(" " + k.String() + " ")
		if err != nil || back != k {
			t.Fatalf("%s: got %s (%v)", k, back, err)
		}
	}
	if k, err := OutputKindFromString("EQUATORIAL"); err != nil || k != Equatorial {
		t.Fatal("names are case insensitive")
	}
	if _, err := OutputKindFromString("polar"); err == nil {
		t.Fatal("unknown kind accepted")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("unknown kind did not panic")
		}
	}()
	_ = OutputKind(42).String()
}

func TestEngineElongation(t *testing.T) {
	ev := fixedEvaluator{
		Sun:     {0, 0, 0},
		Earth:   {0, 0, 1},
		Mars:    {0, 0, 1.5},
		Jupiter: {math.Pi, 0, 5},
		Venus:   {math.Pi / 2, 0, 1},
	}
	e := NewEngine(WithEvaluator(ev))
	for _, tc := range []struct {
		target       int
		elong, phase float64
	}{
		{Mars, math.Pi, 0},
		{Jupiter, 0, 0},
		{Venus, math.Pi / 4, math.Pi / 4},
	} {
		for _, geometric := range []bool{true, false} {
			req := NewRequest(J2000, tc.target)
			req.Output = Elongation
			req.Geometric = geometric
			res, err := e.Compute(req)
			if err != nil {
				t.Fatalf("%s: %s", BodyName(tc.target), err)
			}
			if !floats.EqualWithinAbs(res.Elongation, tc.elong, 1e-9) || !floats.EqualWithinAbs(res.Phase, tc.phase, 1e-9) {
				t.Fatalf("%s: elong=%f phase=%f", BodyName(tc.target), res.Elongation/deg2rad, res.Phase/deg2rad)
			}
			if res.Vector.V[0] != res.Elongation || res.Vector.V[1] != res.Phase || res.Vector.V[2] != res.Magnitude {
				t.Fatalf("%s: vector %s does not hold the elongation", BodyName(tc.target), res.Vector)
			}
			if res.Equinox != res.Epoch {
				t.Fatal("elongation must be of date")
			}
			if !res.Converged {
				t.Fatalf("%s: not converged", BodyName(tc.target))
			}
		}
	}
	// The Sun seen from the Earth has no elongation, and its own magnitude.
	res, err := e.Compute(Request{Epoch: J2000, Target: Sun, Observer: Earth, Output: Elongation})
	if err != nil {
		t.Fatal(err)
	}
	if res.Elongation != 0 || !floats.EqualWithinAbs(res.Magnitude, sunMagnitude1AU, 1e-12) {
		t.Fatalf("Sun: elong=%f mag=%f", res.Elongation, res.Magnitude)
	}
}

func TestEngineLightTime(t *testing.T) {
	e := NewEngine()
	res, err := e.Compute(NewRequest(J2000, Mars))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged || res.Iterations >= lightTimeMaxIter || res.Iterations < 2 {
		t.Fatalf("converged=%v after %d iterations", res.Converged, res.Iterations)
	}
	if !floats.EqualWithinAbs(res.LightTime*SpeedOfLight, res.Vector.V[2], 1e-6) {
		t.Fatalf("τ=%f d but Δ=%f AU", res.LightTime, res.Vector.V[2])
	}
	if res.Vector.V[2] < 0.37 || res.Vector.V[2] > 2.68 {
		t.Fatalf("Mars at %f AU", res.Vector.V[2])
	}
	if math.IsNaN(res.Magnitude) || res.Magnitude < -3 || res.Magnitude > 2 {
		t.Fatalf("Mars magnitude %f", res.Magnitude)
	}
	if res.Equinox != J2000 {
		t.Fatalf("equinox %f", res.Equinox)
	}
	geo := NewRequest(J2000, Mars)
	geo.Geometric = true
	gres, err := e.Compute(geo)
	if err != nil {
		t.Fatal(err)
	}
	if gres.LightTime != 0 || gres.Iterations != 0 || !gres.Converged {
		t.Fatalf("geometric: τ=%f iterations=%d", gres.LightTime, gres.Iterations)
	}
	// Mars moves by about half a degree a day: a light time of minutes shifts it by arc seconds.
	if d := math.Abs(shortestArc(res.Vector.V[0], gres.Vector.V[0])); d == 0 || d > 100*arcsec2rad {
		t.Fatalf("apparent and geometric longitudes differ by %f arcsec", d/arcsec2rad)
	}
}

func TestEngineSun(t *testing.T) {
	e := NewEngine()
	// Meeus example 25.a: 1992 October 13, 0h TD.
	req := NewRequest(2448908.5, Sun)
	req.Equinox = EquinoxOfDate
	req.Output = Equatorial
	res, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(Rad2deg(res.Vector.V[0]), 198.38083, 0.02) {
		t.Fatalf("α=%f", Rad2deg(res.Vector.V[0]))
	}
	if !floats.EqualWithinAbs(res.Vector.V[1]/deg2rad, -7.78507, 0.02) {
		t.Fatalf("δ=%f", res.Vector.V[1]/deg2rad)
	}
	if !floats.EqualWithinAbs(res.Vector.V[2], 0.99766, 2e-4) {
		t.Fatalf("R=%f", res.Vector.V[2])
	}
	// Same instant, ecliptical.
	req.Output = Ecliptical
	if res, err = e.Compute(req); err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(Rad2deg(res.Vector.V[0]), 199.90988, 0.02) {
		t.Fatalf("λ=%f", Rad2deg(res.Vector.V[0]))
	}
	if math.Abs(res.Vector.V[1]) > arcsec2rad {
		t.Fatalf("β=%f arcsec", res.Vector.V[1]/arcsec2rad)
	}
	// Cartesian output keeps the distance.
	req.Cartesian = true
	cres, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if cres.Vector.Polar || !floats.EqualWithinAbs(norm(cres.Vector.V), res.Vector.V[2], 1e-12) {
		t.Fatalf("cartesian %s vs %s", cres.Vector, res.Vector)
	}
}

func TestEngineMoon(t *testing.T) {
	e := NewEngine()
	jde := 2448724.5
	req := NewRequest(jde, Moon)
	req.Geometric, req.Aberration = true, false
	req.Equinox = EquinoxOfDate
	res, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	λ, β, Δ := MoonGeocentric(jde)
	exp := [3]float64{λ, β, Δ}
	if !floats.EqualWithinAbs(shortestArc(res.Vector.V[0], λ), 0, 1e-10) ||
		!floats.EqualWithinAbs(res.Vector.V[1], β, 1e-10) || !floats.EqualWithinAbs(res.Vector.V[2], Δ, 1e-12) {
		t.Fatalf("got %s, exp %v", res.Vector, exp)
	}
	if km := res.Vector.V[2] * AU; km < 356000 || km > 407000 {
		t.Fatalf("Moon at %f km", km)
	}
	// Apparent: the light time is about a second.
	req = NewRequest(jde, Moon)
	if res, err = e.Compute(req); err != nil {
		t.Fatal(err)
	}
	if s := res.LightTime * secondsPerDay; s < 1.1 || s > 1.4 {
		t.Fatalf("light time %f s", s)
	}
}

func TestEngineErrors(t *testing.T) {
	e := NewEngine(WithCatalog(testCatalog(t)))
	req := NewRequest(J2000, Mars)
	req.Output = Horizontal
	if _, err := e.Compute(req); !errors.Is(err, ErrNoObserver) {
		t.Fatalf("horizontal without a site: %v", err)
	}
	req = NewRequest(J2000, Mars)
	req.Site = &DSS65Madrid
	req.Observer = Venus
	if _, err := e.Compute(req); !errors.Is(err, ErrNoObserver) {
		t.Fatalf("site on Venus: %v", err)
	}
	if _, err := e.Compute(NewRequest(J2000, 5000)); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("unknown target: %v", err)
	}
	req = NewRequest(J2000, Mars)
	req.Observer = -42
	if _, err := e.Compute(req); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("unknown observer: %v", err)
	}
	if _, err := e.Compute(NewRequest(J2000, AdHoc)); !errors.Is(err, ErrNoElements) {
		t.Fatalf("ad hoc without elements: %v", err)
	}
	if _, err := e.Compute(NewRequest(J2000, 1002)); !errors.Is(err, ErrNoCatalogEntry) {
		t.Fatalf("body without arcs: %v", err)
	}
	// Evaluator failures are wrapped.
	ev := fixedEvaluator{Earth: {0, 0, 1}}
	if _, err := NewEngine(WithEvaluator(ev)).Compute(NewRequest(J2000, Mars)); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("evaluator failure: %v", err)
	}
}

func TestEngineMinorBodies(t *testing.T) {
	e := NewEngine(WithCatalog(testCatalog(t)))
	res, err := e.Compute(NewRequest(2451600.5, 1001))
	if err != nil {
		t.Fatal(err)
	}
	if res.Vector.V[2] < 1.5 || res.Vector.V[2] > 4.1 || math.IsNaN(res.Magnitude) {
		t.Fatalf("Ceres at %s, magnitude %f", res.Vector, res.Magnitude)
	}
	if err := e.SetElements(encke(), true); err != nil {
		t.Fatal(err)
	}
	req := NewRequest(2448170.5, AdHoc)
	req.Output = Equatorial
	res, err = e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged || math.IsNaN(res.Magnitude) {
		t.Fatalf("converged=%v magnitude=%f", res.Converged, res.Magnitude)
	}
	// Encke from the Earth, as a target and as an observer.
	back := NewRequest(2448170.5, Earth)
	back.Observer = AdHoc
	back.Geometric = true
	bres, err := e.Compute(back)
	if err != nil {
		t.Fatal(err)
	}
	req.Geometric = true
	fres, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(bres.Vector.V[2], fres.Vector.V[2], 1e-12) {
		t.Fatalf("distances differ: %f != %f", bres.Vector.V[2], fres.Vector.V[2])
	}
}

func TestEngineHorizontal(t *testing.T) {
	e := NewEngine()
	// 2020 June 21 near local noon at DSS65: the Sun transits high in the South.
	req := NewRequest(2459021.5+11.75/24, Sun)
	req.UT = true
	req.Site = &DSS65Madrid
	req.Output = Horizontal
	res, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	A, h := Rad2deg(res.Vector.V[0]), res.Vector.V[1]/deg2rad
	if !floats.EqualWithinAbs(h, 90-40.427222+23.44, 0.5) {
		t.Fatalf("h=%f", h)
	}
	if !floats.EqualWithinAbs(A, 180, 6) {
		t.Fatalf("A=%f", A)
	}
	if res.UT != req.Epoch || res.Epoch <= res.UT {
		t.Fatalf("UT=%f TT=%f", res.UT, res.Epoch)
	}
	if res.Equinox != res.Epoch {
		t.Fatal("horizontal must be of date")
	}
	req.Refraction = true
	rres, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if dh := rres.Vector.V[1] - res.Vector.V[1]; dh <= 0 || dh > 60*arcsec2rad {
		t.Fatalf("refraction raised the Sun by %f arcsec", dh/arcsec2rad)
	}
	// The Sun is below the horizon at local midnight.
	req.Epoch -= 0.5
	if res, err = e.Compute(req); err != nil {
		t.Fatal(err)
	}
	if res.Vector.V[1] > 0 {
		t.Fatalf("h=%f at midnight", res.Vector.V[1]/deg2rad)
	}
}

func TestEngineTopocentricMoon(t *testing.T) {
	e := NewEngine()
	req := NewRequest(2448724.5, Moon)
	req.Output = Equatorial
	req.Equinox = EquinoxOfDate
	geo, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	req.Site = &DSS34Canberra
	topo, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	// The lunar parallax is at most about a degree.
	d := math.Hypot(shortestArc(geo.Vector.V[0], topo.Vector.V[0])*math.Cos(geo.Vector.V[1]), topo.Vector.V[1]-geo.Vector.V[1])
	if d == 0 || d > 1.1*deg2rad {
		t.Fatalf("parallax of %f deg", Rad2deg(d))
	}
}

func TestEngineGalactic(t *testing.T) {
	e := NewEngine()
	req := NewRequest(J2000, Jupiter)
	req.Output = Galactic
	req.ErrorBars = true
	res, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Equinox != B1950 {
		t.Fatalf("equinox %f", res.Equinox)
	}
	// The ecliptic is inclined by about 60 degrees on the galactic plane.
	if b := math.Abs(res.Vector.V[1]/deg2rad); b > 63 {
		t.Fatalf("b=%f", b)
	}
	req.Output = Equatorial
	eq, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	back := e.Precession().FromGalactic(res.Vector, J2000)
	if d := math.Abs(shortestArc(back.V[0], eq.Vector.V[0])); d > 1e-8 || math.Abs(back.V[1]-eq.Vector.V[1]) > 1e-8 {
		t.Fatalf("galactic round trip off by %f arcsec", d/arcsec2rad)
	}
}

func TestEngineErrorBars(t *testing.T) {
	e := NewEngine()
	req := NewRequest(J2000, Saturn)
	req.Output = Equatorial
	res, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Vector.HasCov() {
		t.Fatal("covariance without error bars")
	}
	req.ErrorBars = true
	if res, err = e.Compute(req); err != nil {
		t.Fatal(err)
	}
	if !res.Vector.HasCov() {
		t.Fatal("no covariance with error bars")
	}
	σ := res.Vector.Sigma()
	for i, s := range σ {
		if s <= 0 || math.IsNaN(s) {
			t.Fatalf("σ%d=%f", i+1, s)
		}
	}
	// The angular uncertainty is of the order of the evaluator's.
	if σ[1] > 10*DefaultMeanElementsSigma {
		t.Fatalf("σδ=%f arcsec", σ[1]/arcsec2rad)
	}
}

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := NewEngine(WithMetrics(m))
	e.Compute(NewRequest(J2000, Mars))
	e.Compute(NewRequest(J2000, Venus))
	req := NewRequest(J2000, Mars)
	req.Output = Horizontal
	e.Compute(req)
	if v := testutil.ToFloat64(m.requests.WithLabelValues(Ecliptical.String())); v != 2 {
		t.Fatalf("ecliptical requests=%f", v)
	}
	if v := testutil.ToFloat64(m.errors.WithLabelValues(Horizontal.String())); v != 1 {
		t.Fatalf("horizontal errors=%f", v)
	}
}

func TestEngineConcurrent(t *testing.T) {
	e := NewEngine(WithCatalog(testCatalog(t)))
	if err := e.SetElements(encke(), true); err != nil {
		t.Fatal(err)
	}
	targets := []int{Sun, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, Moon, AdHoc, 1001}
	exp := make([]Result, len(targets))
	for i, target := range targets {
		req := NewRequest(2451600.5, target)
		req.Equinox = Equinox{JDE: B1950}
		res, err := e.Compute(req)
		if err != nil {
			t.Fatalf("%s: %s", BodyName(target), err)
		}
		exp[i] = res
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(targets)*4)
	for rep := 0; rep < 4; rep++ {
		for i, target := range targets {
			wg.Add(1)
			go func(i, target int) {
				defer wg.Done()
				req := NewRequest(2451600.5, target)
				req.Equinox = Equinox{JDE: B1950}
				res, err := e.Compute(req)
				if err != nil {
					errs <- err
					return
				}
				if res.Vector.V != exp[i].Vector.V {
					errs <- errors.New(BodyName(target) + ": results differ")
				}
			}(i, target)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestEngineSharedCache(t *testing.T) {
	pc := NewPrecessionCache()
	a := NewEngine(WithPrecessionCache(pc))
	req := NewRequest(2451600.5, Jupiter)
	req.Equinox = Equinox{JDE: B1950}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Compute(req)
		}()
	}
	m := NewMetrics(nil)
	b := NewEngine(WithPrecessionCache(pc), WithMetrics(m))
	wg.Wait()
	if b.Precession() != pc {
		t.Fatal("cache not shared")
	}
	if _, err := b.Compute(req); err != nil {
		t.Fatal(err)
	}
	if n := testutil.ToFloat64(m.cacheHits) + testutil.ToFloat64(m.cacheMisses); n == 0 {
		t.Fatal("shared cache not instrumented")
	}
	// The first metrics stay in place.
	NewEngine(WithPrecessionCache(pc), WithMetrics(NewMetrics(nil)))
	before := testutil.ToFloat64(m.cacheHits)
	b.Compute(req)
	if testutil.ToFloat64(m.cacheHits) <= before {
		t.Fatal("cache metrics replaced")
	}
}

func TestWithLength(t *testing.T) {
	v := NewCartesian(3, 0, 4).WithCov(NewDiagonalCovariance(0.1, 0.2, 0.3))
	w := withLength(v, 10)
	if !vec3Equal(w.V, [3]float64{6, 0, 8}, 1e-15) {
		t.Fatalf("v=%v", w.V)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !floats.EqualWithinAbs(w.Cov.At(i, j), 4*v.Cov.At(i, j), 1e-15) {
				t.Fatalf("cov[%d][%d]=%f, expected %f", i, j, w.Cov.At(i, j), 4*v.Cov.At(i, j))
			}
		}
	}
	if v.Cov.At(0, 0) != 0.1*0.1 {
		t.Fatal("input covariance modified")
	}
	if z := withLength(NewCartesian(0, 0, 0), 1); z.V != [3]float64{} {
		t.Fatalf("null vector: %v", z.V)
	}
}

func TestEngineElongationIgnoresSite(t *testing.T) {
	e := NewEngine()
	req := NewRequest(J2000, Moon)
	req.Output = Elongation
	geo, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	req.Site = &DSS65Madrid
	topo, err := e.Compute(req)
	if err != nil {
		t.Fatal(err)
	}
	if topo.Elongation != geo.Elongation || topo.Phase != geo.Phase {
		t.Fatalf("elongation %f != %f", topo.Elongation, geo.Elongation)
	}
}

func TestEngineEarthFromEarth(t *testing.T) {
	e := NewEngine()
	for _, geometric := range []bool{true, false} {
		req := NewRequest(J2000, Earth)
		req.Geometric = geometric
		req.Cartesian = true
		res, err := e.Compute(req)
		if err != nil {
			t.Fatal(err)
		}
		if res.Vector.V != [3]float64{} {
			t.Fatalf("geometric=%v: %s", geometric, res.Vector)
		}
		if !res.Converged || res.LightTime != 0 || !math.IsNaN(res.Magnitude) {
			t.Fatalf("geometric=%v: converged=%v τ=%f mag=%f", geometric, res.Converged, res.LightTime, res.Magnitude)
		}
	}
}
