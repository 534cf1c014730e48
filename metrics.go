package ephem

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the engine's Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	errors         *prometheus.CounterVec
	lightTimeIters prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, when not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ephem_requests_total",
				Help: "Total number of ephemeris requests, by output kind.",
			},
			[]string{"output"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ephem_errors_total",
				Help: "Total number of failed ephemeris requests, by output kind.",
			},
			[]string{"output"},
		),
		lightTimeIters: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ephem_light_time_iterations",
				Help:    "Number of iterations of the light time solver.",
				Buckets: prometheus.LinearBuckets(1, 2, 13),
			},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ephem_precession_cache_hits_total",
			Help: "Total number of precession rotations served from the cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ephem_precession_cache_misses_total",
			Help: "Total number of precession rotations computed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.errors, m.lightTimeIters, m.cacheHits, m.cacheMisses)
	}
	return m
}

func (m *Metrics) request(kind OutputKind, iterations int, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind.String()).Inc()
	if err != nil {
		m.errors.WithLabelValues(kind.String()).Inc()
		return
	}
	if iterations > 0 {
		m.lightTimeIters.Observe(float64(iterations))
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}
