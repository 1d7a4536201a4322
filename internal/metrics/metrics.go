package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChristopherCousin/Kcal/internal/config"
)

type Recorder interface {
	IncProviderAttempt(kind, provider, outcome string)
	ObserveProviderDuration(kind, provider string, d time.Duration)
	IncFallback(kind, from string)
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, d time.Duration)
	IncCacheHits()
	IncCacheMisses()
	Handler() http.Handler
}

type promRecorder struct {
	registry         *prometheus.Registry
	providerAttempts *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
}

// New returns a Prometheus recorder on its own registry, or a no-op one
// when metrics are disabled.
func New(conf config.MetricsConfig) Recorder {
	if !conf.Enabled {
		return Noop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &promRecorder{
		registry: reg,
		providerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kcal_provider_attempts_total",
			Help: "Provider calls by kind, provider and outcome",
		}, []string{"kind", "provider", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kcal_provider_duration_seconds",
			Help:    "Provider call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "provider"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kcal_provider_fallbacks_total",
			Help: "Times a chain moved past a failing provider",
		}, []string{"kind", "from"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kcal_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kcal_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kcal_cache_hits_total",
			Help: "Total number of response cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kcal_cache_misses_total",
			Help: "Total number of response cache misses",
		}),
	}
	reg.MustRegister(m.providerAttempts, m.providerDuration, m.fallbacks, m.requestsTotal, m.requestDuration, m.cacheHits, m.cacheMisses)
	return m
}

func (m *promRecorder) IncProviderAttempt(kind, provider, outcome string) {
	m.providerAttempts.WithLabelValues(kind, provider, outcome).Inc()
}

func (m *promRecorder) ObserveProviderDuration(kind, provider string, d time.Duration) {
	m.providerDuration.WithLabelValues(kind, provider).Observe(d.Seconds())
}

func (m *promRecorder) IncFallback(kind, from string) {
	m.fallbacks.WithLabelValues(kind, from).Inc()
}

func (m *promRecorder) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *promRecorder) ObserveRequestDuration(endpoint string, d time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *promRecorder) IncCacheHits()   { m.cacheHits.Inc() }
func (m *promRecorder) IncCacheMisses() { m.cacheMisses.Inc() }

func (m *promRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type noopRecorder struct{}

func Noop() Recorder { return noopRecorder{} }

func (noopRecorder) IncProviderAttempt(_, _, _ string)                    {}
func (noopRecorder) ObserveProviderDuration(_, _ string, _ time.Duration) {}
func (noopRecorder) IncFallback(_, _ string)                              {}
func (noopRecorder) IncRequestsTotal(_ string, _ int)                     {}
func (noopRecorder) ObserveRequestDuration(_ string, _ time.Duration)     {}
func (noopRecorder) IncCacheHits()                                        {}
func (noopRecorder) IncCacheMisses()                                      {}
func (noopRecorder) Handler() http.Handler                                { return http.NotFoundHandler() }
