package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navintent").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navintent",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	settlements     prometheus.Counter
	liveSessions    prometheus.Gauge
	sessionDuration prometheus.Histogram
	wsErrors        *prometheus.CounterVec
}

// globalMetrics is created by the first call to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by route, method and status code",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),

		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total URL resolutions by resulting route kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		settlements: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "search_settlements_total",
			Help:        "Total debounced search values settled",
			ConstLabels: config.ConstLabels,
		}),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_search_sessions",
			Help:        "Number of open live search WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_search_session_seconds",
			Help:        "Lifetime of live search sessions in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 10, 60, 300, 1800, 3600},
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates HTTP middleware that counts and times requests.
//
// Requests are labelled by their chi route pattern rather than the raw path,
// so /open/* stays a single series no matter which links are opened.
// Requests that match no route are labelled "unmatched".
//
// Metrics collected:
//   - navintent_http_requests_total: Counter by route, method and status
//   - navintent_http_request_duration_seconds: Histogram by route and method
//   - navintent_resolutions_total: Counter by kind (RecordResolve)
//   - navintent_search_settlements_total: Counter (RecordSettle)
//   - navintent_live_search_sessions: Gauge (RecordSessionOpen/Close)
//   - navintent_live_search_session_seconds: Histogram (RecordSessionClose)
//   - navintent_websocket_errors_total: Counter by type (RecordWebSocketError)
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithNamespace("shop")))
//	r.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(statusOf(ww, r))).Inc()
		})
	}
}

// routePattern returns the matched chi pattern after routing has run.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// statusOf reports the written status. Handlers that never call WriteHeader
// answered 200; hijacked WebSocket upgrades answered 101.
func statusOf(ww chimw.WrapResponseWriter, r *http.Request) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	if websocket.IsWebSocketUpgrade(r) {
		return http.StatusSwitchingProtocols
	}
	return http.StatusOK
}

// RecordResolve records one resolution producing a route of kind.
func RecordResolve(kind string) {
	if m := current(); m != nil {
		m.resolutions.WithLabelValues(kind).Inc()
	}
}

// RecordSettle records a settled live search value.
func RecordSettle() {
	if m := current(); m != nil {
		m.settlements.Inc()
	}
}

// RecordSessionOpen records a new live search session.
func RecordSessionOpen() {
	if m := current(); m != nil {
		m.liveSessions.Inc()
	}
}

// RecordSessionClose records the end of a live search session that lasted d.
func RecordSessionClose(d time.Duration) {
	if m := current(); m != nil {
		m.liveSessions.Dec()
		m.sessionDuration.Observe(d.Seconds())
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// Collector exposes the registered metrics for custom checks.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	settlements     prometheus.Counter
	liveSessions    prometheus.Gauge
	sessionDuration prometheus.Histogram
	wsErrors        *prometheus.CounterVec
}

// GetMetrics returns the global metrics collector.
// Returns nil if Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	m := current()
	if m == nil {
		return nil
	}
	return &Collector{
		requestsTotal:   m.requestsTotal,
		requestDuration: m.requestDuration,
		resolutions:     m.resolutions,
		settlements:     m.settlements,
		liveSessions:    m.liveSessions,
		sessionDuration: m.sessionDuration,
		wsErrors:        m.wsErrors,
	}
}

// Resolutions returns the resolution counter for kind.
func (c *Collector) Resolutions(kind string) prometheus.Counter {
	return c.resolutions.WithLabelValues(kind)
}

// Settlements returns the settled-value counter.
func (c *Collector) Settlements() prometheus.Counter {
	return c.settlements
}

// LiveSessions returns the open session gauge.
func (c *Collector) LiveSessions() prometheus.Gauge {
	return c.liveSessions
}

// Requests returns the request counter for one label set.
func (c *Collector) Requests(route, method string, status int) prometheus.Counter {
	return c.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status))
}
