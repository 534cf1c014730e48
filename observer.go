package ephem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// ErrNoObserver is returned for topocentric outputs requested without an observer site on the Earth.
var ErrNoObserver = errors.New("no observer site")

var (
	DSS34Canberra  = NewObserver("DSS34Canberra", -35.398333, 148.981944, 691.750)
	DSS65Madrid    = NewObserver("DSS65Madrid", 40.427222, 4.250556, 834.939)
	DSS13Goldstone = NewObserver("DSS13Goldstone", 35.247164, 243.205, 1071.14904)
)

// Observer defines a site on the Earth.
type Observer struct {
	Name        string
	LatΦ, Longθ float64 // these are stored in radians! Longitude is positive eastward.
	Height      float64 // above the reference ellipsoid, in meters
}

// NewObserver returns a new observer. Angles in degrees, height in meters.
func NewObserver(name string, latΦ, longθ, height float64) Observer {
	return Observer{name, latΦ * deg2rad, shortestArc(0, longθ*deg2rad), height}
}

// ParallaxConstants returns ρ sin φ′ and ρ cos φ′ of the site, in Earth equatorial radii.
func (o Observer) ParallaxConstants() (ρsinφ, ρcosφ float64) {
	return globe.Earth76.ParallaxConstants(unit.Angle(o.LatΦ), o.Height)
}

func (o Observer) String() string {
	return fmt.Sprintf("%s (%f,%f); height = %f m", o.Name, o.LatΦ/deg2rad, o.Longθ/deg2rad, o.Height)
}

// BuiltinObserverFromName returns one of the Deep Space Network antennas.
func BuiltinObserverFromName(name string) (Observer, error) {
	switch strings.ToLower(name) {
	case "dss13":
		return DSS13Goldstone, nil
	case "dss34":
		return DSS34Canberra, nil
	case "dss65":
		return DSS65Madrid, nil
	default:
		return Observer{}, fmt.Errorf("unknown station `%s`", name)
	}
}
