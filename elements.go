package ephem

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrParabolicSemimajor is returned for a parabolic orbit given by its semimajor axis, which is undefined.
	ErrParabolicSemimajor = errors.New("parabolic orbit requires the perihelion distance")
	// ErrElementSetSize is returned when an element set does not have exactly nine values.
	ErrElementSetSize = errors.New("an element set has exactly nine values")
	// ErrNoElements is returned when the ad hoc body is requested before any element set was provided.
	ErrNoElements = errors.New("no element set")
	// ErrEquinox is returned for an unparsable equinox specifier.
	ErrEquinox = errors.New("invalid equinox")
)

// Equinox is the reference equinox of a set of elements or of a position: either a fixed epoch,
// or the equinox of date.
type Equinox struct {
	JDE    float64
	OfDate bool
}

// EquinoxJ2000 is the standard equinox.
var EquinoxJ2000 = Equinox{JDE: J2000}

// EquinoxOfDate is the mean equinox of the epoch of interest.
var EquinoxOfDate = Equinox{OfDate: true}

// At returns the JDE of the equinox for the provided epoch.
func (q Equinox) At(epoch float64) float64 {
	if q.OfDate {
		return epoch
	}
	return q.JDE
}

func (q Equinox) String() string {
	if q.OfDate {
		return "DATE"
	}
	return fmt.Sprintf("J%.3f", 2000+(q.JDE-J2000)/365.25)
}

// ParseEquinox parses an equinox specifier: Jyyyy.y (Julian epoch), Byyyy.y (Besselian epoch),
// DATE, or an empty string for J2000.
func ParseEquinox(s string) (Equinox, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EquinoxJ2000, nil
	}
	if strings.EqualFold(s, "date") {
		return EquinoxOfDate, nil
	}
	year, err := strconv.ParseFloat(s[1:], 64)
	if err != nil {
		return Equinox{}, fmt.Errorf("%w %q: %s", ErrEquinox, s, err)
	}
	switch s[0] {
	case 'J', 'j':
		return Equinox{JDE: JulianYearToJDE(year)}, nil
	case 'B', 'b':
		return Equinox{JDE: BesselianYearToJDE(year)}, nil
	default:
		return Equinox{}, fmt.Errorf("%w %q", ErrEquinox, s)
	}
}

// OrbitalElementSet is a single set of heliocentric ecliptic elements. Angles are in degrees.
// With PerihelionForm, AQ is the perihelion distance and MT the time of perihelion passage (JDE);
// otherwise AQ is the semimajor axis and MT the mean anomaly at Epoch.
type OrbitalElementSet struct {
	Equinox        Equinox
	Epoch          float64
	AQ, E          float64
	I, Ω, ω        float64
	MT             float64
	H              float64
	PerihelionForm bool

	mu      sync.Mutex
	loaded  bool
	derived *elementSetState
}

// elementSetState caches what is derived from the element set once.
type elementSetState struct {
	q, n, vFactor float64
	gauss         [3]GaussConstant
}

// NewOrbitalElementSet builds an element set from nine values: equinox (Julian year, zero for J2000),
// epoch (JDE), semimajor axis or perihelion distance (AU), eccentricity, inclination, node,
// argument of perihelion (degrees), mean anomaly (degrees) or perihelion time (JDE), and
// absolute magnitude.
func NewOrbitalElementSet(values []float64, perihelionForm bool) (*OrbitalElementSet, error) {
	s := &OrbitalElementSet{}
	if err := s.Set(values, perihelionForm); err != nil {
		return nil, err
	}
	return s, nil
}

// Set replaces the elements and invalidates whatever was derived from the previous ones.
func (s *OrbitalElementSet) Set(values []float64, perihelionForm bool) error {
	if len(values) != 9 {
		return fmt.Errorf("%w: got %d", ErrElementSetSize, len(values))
	}
	if values[3] < 0 {
		return fmt.Errorf("negative eccentricity %f", values[3])
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Equinox = EquinoxJ2000
	if values[0] != 0 {
		s.Equinox = Equinox{JDE: JulianYearToJDE(values[0])}
	}
	s.Epoch, s.AQ, s.E = values[1], values[2], values[3]
	s.I, s.Ω, s.ω = values[4], values[5], values[6]
	s.MT, s.H = values[7], values[8]
	s.PerihelionForm = perihelionForm
	s.loaded = true
	s.derived = nil
	return nil
}

// Invalidate drops the cached derived values, and must be called after modifying the fields directly.
func (s *OrbitalElementSet) Invalidate() {
	s.mu.Lock()
	s.derived = nil
	s.mu.Unlock()
}

// derive returns the cached derived values, computing them if needed. The caller holds s.mu.
func (s *OrbitalElementSet) derive() (*elementSetState, error) {
	if !s.loaded {
		return nil, ErrNoElements
	}
	if s.derived != nil {
		return s.derived, nil
	}
	d := &elementSetState{vFactor: VelocityFactor(s.E)}
	if s.PerihelionForm {
		d.q = s.AQ
		if s.E == 1 {
			d.n = ParabolicMeanMotion(d.q)
		} else {
			d.n = MeanMotion(d.q / (1 - s.E))
		}
	} else {
		if s.E == 1 {
			return nil, ErrParabolicSemimajor
		}
		d.q = s.AQ * (1 - s.E)
		d.n = MeanMotion(s.AQ)
	}
	d.gauss = gaussConstants(s.I*deg2rad, s.Ω*deg2rad, s.ω*deg2rad)
	s.derived = d
	return d, nil
}

// State returns the osculating state at the provided epoch.
func (s *OrbitalElementSet) State(epoch float64) (ArcState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.derive()
	if err != nil {
		return ArcState{}, err
	}
	var M float64
	if s.PerihelionForm {
		M = d.n * (epoch - s.MT)
	} else {
		M = s.MT*deg2rad + d.n*(epoch-s.Epoch)
	}
	return ArcState{M: M, E: s.E, VFactor: d.vFactor, Q: d.q, Gauss: d.gauss, Equinox: s.Equinox}, nil
}

// AbsMag returns the absolute magnitude H.
func (s *OrbitalElementSet) AbsMag() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.H
}

// Cartesian returns the heliocentric ecliptic position at the provided epoch, the JDE of the equinox
// it is referred to, and the heliocentric distance.
func (s *OrbitalElementSet) Cartesian(epoch float64) (x [3]float64, equinox, r float64, err error) {
	st, err := s.State(epoch)
	if err != nil {
		return x, math.NaN(), 0, err
	}
	x, r, _ = st.Position()
	return x, st.Equinox.At(epoch), r, nil
}
