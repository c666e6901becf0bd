package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal counts every request by route pattern and status.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockreport_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// queryDuration observes the store query behind each API call.
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockreport_query_duration_seconds",
			Help:    "Duration of report queries issued by the API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report", "result"},
	)

	// reportRows is the row count of the last successful response per report.
	reportRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockreport_report_rows",
			Help: "Rows returned by the last successful report query",
		},
		[]string{"report", "filter"},
	)
)
