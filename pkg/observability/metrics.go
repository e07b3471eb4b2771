package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Index metrics
	IndexBuildsTotal   *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
	ReloadsTotal       *prometheus.CounterVec

	// Snapshot metrics
	SnapshotGeneration prometheus.Gauge
	SnapshotSymbols    prometheus.Gauge
	SnapshotFiles      prometheus.Gauge

	// Query metrics
	QueriesTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "protodoc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "protodoc_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		// Index metrics
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_index_builds_total",
				Help: "Total number of descriptor index builds",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protodoc_index_build_duration_seconds",
				Help:    "Descriptor index build duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_reloads_total",
				Help: "Total number of snapshot reloads by trigger and result",
			},
			[]string{"trigger", "result"},
		),

		// Snapshot metrics
		SnapshotGeneration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protodoc_snapshot_generation",
				Help: "Generation of the snapshot currently served",
			},
		),
		SnapshotSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protodoc_snapshot_symbols",
				Help: "Number of symbols in the current snapshot",
			},
		),
		SnapshotFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protodoc_snapshot_files",
				Help: "Number of descriptor files in the current snapshot",
			},
		),

		// Query metrics
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_queries_total",
				Help: "Total number of introspection queries",
			},
			[]string{"operation", "status"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protodoc_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
		m.ReloadsTotal,
		m.SnapshotGeneration,
		m.SnapshotSymbols,
		m.SnapshotFiles,
		m.QueriesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// The helpers below are no-ops on a nil *Metrics so that components can run
// without instrumentation.

// ObserveBuild records one index build that started at start
func (m *Metrics) ObserveBuild(start time.Time, err error) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.WithLabelValues(status(err)).Inc()
	m.IndexBuildDuration.Observe(time.Since(start).Seconds())
}

// ObserveReload records one reload attempt. result is "swapped",
// "unchanged" or "failed".
func (m *Metrics) ObserveReload(trigger, result string) {
	if m == nil {
		return
	}
	m.ReloadsTotal.WithLabelValues(trigger, result).Inc()
}

// SetSnapshot records the shape of the snapshot being served
func (m *Metrics) SetSnapshot(generation uint64, symbols, files int) {
	if m == nil {
		return
	}
	m.SnapshotGeneration.Set(float64(generation))
	m.SnapshotSymbols.Set(float64(symbols))
	m.SnapshotFiles.Set(float64(files))
}

// ObserveQuery records one query of the given operation
func (m *Metrics) ObserveQuery(operation string, err error) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation, status(err)).Inc()
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Requests are labeled with the matched mux route template so that symbol
// paths do not explode label cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			duration := time.Since(start).Seconds()
			code := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, gatherer prometheus.Gatherer) {
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
