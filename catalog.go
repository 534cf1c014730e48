package ephem

import (
	"errors"
	"fmt"
	"sort"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

var (
	// ErrUnknownBody is returned for a body identifier which no component knows about.
	ErrUnknownBody = errors.New("unknown body")
	// ErrNoCatalogEntry is returned when a catalog body has no tabulated arc.
	ErrNoCatalogEntry = errors.New("no orbit catalog entry")
)

// OrbitalArc is one tabulated set of osculating elements of a catalog body. Angles are in radians
// and the mean motion in rad/day.
type OrbitalArc struct {
	Epoch   float64
	Q, E    float64
	VFactor float64
	N, M    float64
	Gauss   [3]GaussConstant
}

// NewOrbitalArc derives an arc from classical elements. Angles are in degrees. With perihelionForm,
// aq is the perihelion distance and mt the time of perihelion passage; otherwise aq is the semimajor
// axis and mt the mean anomaly at epoch.
func NewOrbitalArc(epoch, aq, e, i, Ω, ω, mt float64, perihelionForm bool) (OrbitalArc, error) {
	if e < 0 {
		return OrbitalArc{}, fmt.Errorf("negative eccentricity %f", e)
	}
	arc := OrbitalArc{Epoch: epoch, E: e, VFactor: VelocityFactor(e)}
	if perihelionForm {
		arc.Q = aq
		if e == 1 {
			arc.N = ParabolicMeanMotion(aq)
		} else {
			arc.N = MeanMotion(aq / (1 - e))
		}
		arc.M = arc.N * (epoch - mt)
	} else {
		if e == 1 {
			return OrbitalArc{}, ErrParabolicSemimajor
		}
		arc.Q = aq * (1 - e)
		arc.N = MeanMotion(aq)
		arc.M = mt * deg2rad
	}
	arc.Gauss = gaussConstants(i*deg2rad, Ω*deg2rad, ω*deg2rad)
	return arc, nil
}

// propagated returns the mean anomaly of this arc moved to the provided epoch.
func (a *OrbitalArc) propagated(epoch float64) float64 {
	return a.M + a.N*(epoch-a.Epoch)
}

// BodyInfo is the metadata of a catalog body.
type BodyInfo struct {
	AbsMag  float64
	Equinox Equinox
	Comment string
}

type catalogEntry struct {
	id   int
	info BodyInfo
	arcs []OrbitalArc
}

// OrbitCatalog stores the tabulated arcs of minor bodies, sorted by body and by epoch.
// It is read-only once loaded and safe for concurrent lookups.
type OrbitCatalog struct {
	entries []catalogEntry
	logger  kitlog.Logger
}

// NewOrbitCatalog returns an empty catalog.
func NewOrbitCatalog() *OrbitCatalog {
	return &OrbitCatalog{logger: kitlog.NewNopLogger()}
}

// SetLogger sets the logger used to report extrapolations beyond the tabulated arcs.
func (c *OrbitCatalog) SetLogger(logger kitlog.Logger) {
	c.logger = kitlog.With(logger, "component", "catalog")
}

// Add adds (or replaces) a body. The arcs are sorted by epoch.
func (c *OrbitCatalog) Add(id int, info BodyInfo, arcs []OrbitalArc) {
	sorted := make([]OrbitalArc, len(arcs))
	copy(sorted, arcs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Epoch < sorted[j].Epoch })
	idx := c.index(id)
	if idx < len(c.entries) && c.entries[idx].id == id {
		c.entries[idx] = catalogEntry{id, info, sorted}
		return
	}
	c.entries = append(c.entries, catalogEntry{})
	copy(c.entries[idx+1:], c.entries[idx:])
	c.entries[idx] = catalogEntry{id, info, sorted}
}

func (c *OrbitCatalog) index(id int) int {
	return sort.Search(len(c.entries), func(i int) bool { return c.entries[i].id >= id })
}

func (c *OrbitCatalog) entry(id int) (*catalogEntry, error) {
	idx := c.index(id)
	if idx == len(c.entries) || c.entries[idx].id != id {
		return nil, fmt.Errorf("%w %d", ErrUnknownBody, id)
	}
	return &c.entries[idx], nil
}

// Has returns whether the body is in the catalog.
func (c *OrbitCatalog) Has(id int) bool {
	_, err := c.entry(id)
	return err == nil
}

// IDs returns the identifiers of all bodies, in increasing order.
func (c *OrbitCatalog) IDs() []int {
	ids := make([]int, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.id
	}
	return ids
}

// Info returns the metadata of a body.
func (c *OrbitCatalog) Info(id int) (BodyInfo, error) {
	e, err := c.entry(id)
	if err != nil {
		return BodyInfo{}, err
	}
	return e.info, nil
}

// Arcs returns the number of arcs of a body.
func (c *OrbitCatalog) Arcs(id int) int {
	e, err := c.entry(id)
	if err != nil {
		return 0
	}
	return len(e.arcs)
}

// Lookup returns the osculating state of a body at the provided epoch. An epoch equal to an arc's own
// epoch returns that arc as is; an epoch strictly between two arcs blends both arcs linearly, each
// mean anomaly being first propagated to the epoch; beyond either end of the table, the nearest arc
// is propagated with its own mean motion.
func (c *OrbitCatalog) Lookup(id int, epoch float64) (ArcState, error) {
	e, err := c.entry(id)
	if err != nil {
		return ArcState{}, err
	}
	if len(e.arcs) == 0 {
		return ArcState{}, fmt.Errorf("%w for body %d", ErrNoCatalogEntry, id)
	}
	arcs := e.arcs
	idx := sort.Search(len(arcs), func(i int) bool { return arcs[i].Epoch >= epoch })
	switch {
	case idx < len(arcs) && arcs[idx].Epoch == epoch:
		return arcs[idx].state(arcs[idx].M, e.info.Equinox), nil
	case idx == 0 || idx == len(arcs):
		if idx == len(arcs) {
			idx--
		}
		a := &arcs[idx]
		if len(arcs) > 1 {
			level.Debug(c.logger).Log("body", id, "epoch", epoch, "arc", a.Epoch, "msg", "extrapolating beyond the tabulated arcs")
		}
		return a.state(a.propagated(epoch), e.info.Equinox), nil
	}
	a, b := &arcs[idx-1], &arcs[idx]
	frac := (epoch - a.Epoch) / (b.Epoch - a.Epoch)
	Ma, Mb := a.propagated(epoch), b.propagated(epoch)
	return ArcState{
		M:       Ma + frac*shortestArc(Ma, Mb),
		E:       a.E + frac*(b.E-a.E),
		VFactor: a.VFactor + frac*(b.VFactor-a.VFactor),
		Q:       a.Q + frac*(b.Q-a.Q),
		Gauss:   interpolateGauss(a.Gauss, b.Gauss, frac),
		Equinox: e.info.Equinox,
	}, nil
}

func (a *OrbitalArc) state(M float64, equinox Equinox) ArcState {
	return ArcState{M: M, E: a.E, VFactor: a.VFactor, Q: a.Q, Gauss: a.Gauss, Equinox: equinox}
}
