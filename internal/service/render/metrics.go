package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_render_lookups_total",
		Help: "EnsureRendered calls by outcome (hit, rendered, failed)",
	}, []string{"outcome"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_render_duration_seconds",
		Help:    "Time to rasterize and encode every page of one document",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	pagesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_render_pages_written_total",
		Help: "Page images committed to the artifact directory",
	})

	artifactsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_render_artifacts_evicted_total",
		Help: "Page images removed by eviction",
	})
)
