package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTPRequestsTotal counts requests per route pattern, not raw path, so
	// date parameters do not explode label cardinality.
	HTTPRequestsTotal *prometheus.CounterVec

	HTTPRequestDuration *prometheus.HistogramVec

	HTTPRequestsInFlight prometheus.Gauge

	// QueryDuration is the time one repository operation held its read session.
	QueryDuration *prometheus.HistogramVec

	// QueryRows counts rows handed back by each repository operation.
	QueryRows *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "climate_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_query_duration_seconds",
			Help:    "Datastore latency per repository operation",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "outcome"},
	)
	QueryRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_query_rows_total",
			Help: "Rows returned per repository operation",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		QueryDuration, QueryRows,
	)
}

// ObserveQuery records one repository operation. Call with the start time
// and the error it returned.
func ObserveQuery(operation string, start time.Time, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	QueryDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	if rows > 0 {
		QueryRows.WithLabelValues(operation).Add(float64(rows))
	}
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
