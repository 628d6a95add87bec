package server

import "github.com/prometheus/client_golang/prometheus"

// collectors are registered per server so tests can build routers freely.
type collectors struct {
	analyses  *prometheus.CounterVec
	skipped   prometheus.Counter
	duration  prometheus.Histogram
	cache     *prometheus.CounterVec
	throttled prometheus.Counter
}

func newCollectors(reg prometheus.Registerer) *collectors {
	c := &collectors{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gex",
				Name:      "analyses_total",
				Help:      "Total number of chain analyses",
			},
			[]string{"source", "status"}, // source: request|sample, status: success|error
		),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gex",
			Name:      "skipped_contracts_total",
			Help:      "Contracts excluded from aggregation because their gamma could not be computed",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gex",
			Name:      "analysis_duration_seconds",
			Help:      "Chain analysis duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gex",
				Name:      "report_cache_total",
				Help:      "Report cache lookups",
			},
			[]string{"result"}, // result: hit|miss
		),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gex",
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(c.analyses, c.skipped, c.duration, c.cache, c.throttled)
	return c
}
