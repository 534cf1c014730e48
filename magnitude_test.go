package ephem

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/soniakeys/meeus/v3/illum"
	"github.com/soniakeys/unit"
)

func TestElongationPhase(t *testing.T) {
	// Outer body at opposition and at conjunction.
	if elong, phase := ElongationPhase(1, 0.5, 1.5); !floats.EqualWithinAbs(elong, math.Pi, 1e-12) || phase != 0 {
		t.Fatalf("opposition: elong=%f phase=%f", elong, phase)
	}
	if elong, phase := ElongationPhase(1, 2.5, 1.5); elong != 0 || phase != 0 {
		t.Fatalf("conjunction: elong=%f phase=%f", elong, phase)
	}
	// Right angle at the target: r=3, Δ=4, R=5.
	elong, phase := ElongationPhase(5, 4, 3)
	if !floats.EqualWithinAbs(phase, math.Pi/2, 1e-12) {
		t.Fatalf("phase=%f", phase)
	}
	if !floats.EqualWithinAbs(elong, math.Atan2(3, 4), 1e-12) {
		t.Fatalf("elong=%f", elong)
	}
	// Degenerate triangles.
	if elong, phase := ElongationPhase(0, 1, 1); elong != 0 || phase != 0 {
		t.Fatalf("observer at the Sun: elong=%f phase=%f", elong, phase)
	}
	// Rounding beyond the triangle inequality must not yield NaN.
	if elong, phase := ElongationPhase(1, 0.5, 1.5+1e-15); math.IsNaN(elong) || math.IsNaN(phase) {
		t.Fatal("NaN on a flat triangle")
	}
}

func TestHGMagnitude(t *testing.T) {
	if m := HGMagnitude(11.5, DefaultSlope, 1, 1, 0); !floats.EqualWithinAbs(m, 11.5, 1e-12) {
		t.Fatalf("m=%f at unit distances and null phase", m)
	}
	m := HGMagnitude(11.5, DefaultSlope, 2, 1.5, 0)
	if !floats.EqualWithinAbs(m, 11.5+5*math.Log10(3), 1e-12) {
		t.Fatalf("m=%f", m)
	}
	if HGMagnitude(11.5, DefaultSlope, 2, 1.5, 30*deg2rad) <= m {
		t.Fatal("a larger phase angle must make the body fainter")
	}
	if HGMagnitude(11.5, DefaultSlope, 2, 1.5, -0.3) != HGMagnitude(11.5, DefaultSlope, 2, 1.5, 0.3) {
		t.Fatal("magnitude must not depend on the sign of the phase angle")
	}
}

func TestSunMoonMagnitude(t *testing.T) {
	if m := SunMagnitude(1); m != sunMagnitude1AU {
		t.Fatalf("Sun at 1 AU: %f", m)
	}
	if m := SunMagnitude(5.2); !floats.EqualWithinAbs(m, -26.74+5*math.Log10(5.2), 1e-12) {
		t.Fatalf("Sun at 5.2 AU: %f", m)
	}
	full := MoonMagnitude(1, 0.00257, 0)
	if !floats.EqualWithinAbs(full, 0.21+5*math.Log10(0.00257), 1e-12) {
		t.Fatalf("full Moon: %f", full)
	}
	if full > -12 || full < -13.5 {
		t.Fatalf("full Moon magnitude %f is implausible", full)
	}
	if quarter := MoonMagnitude(1, 0.00257, math.Pi/2); quarter-full < 2 {
		t.Fatalf("quarter Moon %f should be much fainter than full Moon %f", quarter, full)
	}
}

func TestSaturnRing(t *testing.T) {
	jde := 2448972.5
	p := saturnRingPole(jde)
	if !floats.EqualWithinAbs(norm(p), 1, 1e-12) {
		t.Fatalf("|pole|=%f", norm(p))
	}
	// Observer along the pole: the rings are seen face on.
	helio := [3]float64{9.5, 0, 0}
	B, _ := SaturnRing(jde, helio, scale(-1, p))
	if !floats.EqualWithinAbs(B, math.Pi/2, 1e-7) {
		t.Fatalf("B=%f", B/deg2rad)
	}
	// Observer at the Sun: null longitude difference, and B within the ring tilt.
	B, ΔU := SaturnRing(jde, helio, helio)
	if !floats.EqualWithinAbs(ΔU, 0, 1e-7) {
		t.Fatalf("ΔU=%f", Rad2deg(ΔU))
	}
	if math.Abs(B) > 28.1*deg2rad {
		t.Fatalf("B=%f exceeds the ring inclination", B/deg2rad)
	}
}

func TestPlanetMagnitude(t *testing.T) {
	r, Δ, i := 0.724604, 0.910947, 72.96*deg2rad
	if m, exp := PlanetMagnitude(Venus, r, Δ, i, 0, 0), illum.Venus84(r, Δ, unit.Angle(i)); m != exp {
		t.Fatalf("Venus: %f != %f", m, exp)
	}
	if m, exp := PlanetMagnitude(Saturn, 9.867882, 10.464606, 0, 16.442*deg2rad, 4.198*deg2rad),
		illum.Saturn84(9.867882, 10.464606, unit.AngleFromDeg(16.442), unit.AngleFromDeg(4.198)); !floats.EqualWithinAbs(m, exp, 1e-12) {
		t.Fatalf("Saturn: %f != %f", m, exp)
	}
	for _, id := range []int{Mercury, Venus, Earth, Mars, Jupiter, Uranus, Neptune, Pluto} {
		near := PlanetMagnitude(id, 1.5, 1, 0.2, 0, 0)
		far := PlanetMagnitude(id, 1.5, 2, 0.2, 0, 0)
		if math.IsNaN(near) || far <= near {
			t.Fatalf("%s: near=%f far=%f", BodyName(id), near, far)
		}
	}
	if m := PlanetMagnitude(Sun, 1, 1, 0, 0, 0); !math.IsNaN(m) {
		t.Fatalf("Sun: %f", m)
	}
}
