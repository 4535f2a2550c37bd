package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_refresh_published_total",
		Help: "Refresh signals published",
	})

	deliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_refresh_delivered_total",
		Help: "Events returned to sessions by type",
	}, []string{"event"})
)
