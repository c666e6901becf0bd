package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// viewsActive is the number of mounted views per report.
	viewsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockreport_views_active",
			Help: "Mounted dashboard views with a running refresh schedule",
		},
		[]string{"report"},
	)

	// refreshTotal counts finished view refreshes by outcome
	// (success, not_modified, failed, discarded).
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockreport_view_refresh_total",
			Help: "Total number of dashboard view refreshes by outcome",
		},
		[]string{"report", "outcome"},
	)

	refreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockreport_view_refresh_duration_seconds",
			Help:    "Duration of dashboard view refreshes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"},
	)
)
