package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prev"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	scanDuration    *prom.HistogramVec
	discovered      *prom.GaugeVec
	compileDuration *prom.HistogramVec
	sandboxMessages *prom.CounterVec
	sandboxSessions prom.Gauge
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	invalidations   *prom.CounterVec
	httpDuration    *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.scanDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of page and preview scans",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.discovered = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_items",
			Help:      "Items found by the last scan",
		}, []string{"kind"})
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of preview compiles",
			Buckets:   prom.DefBuckets,
		}, []string{"mode", "result"})
		pr.sandboxMessages = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sandbox_messages_total",
			Help:      "Sandbox protocol messages by direction and type",
		}, []string{"direction", "type"})
		pr.sandboxSessions = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sandbox_sessions",
			Help:      "Open sandbox runtime sessions",
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total production build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Production build outcomes",
		}, []string{"result"})
		pr.invalidations = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Scan cache invalidations by kind",
		}, []string{"kind"})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "code"})
		reg.MustRegister(pr.scanDuration, pr.discovered, pr.compileDuration, pr.sandboxMessages,
			pr.sandboxSessions, pr.buildDuration, pr.buildOutcome, pr.invalidations, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveScanDuration(kind string, d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetDiscovered(kind string, n int) {
	if p == nil || p.discovered == nil {
		return
	}
	p.discovered.WithLabelValues(kind).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveCompileDuration(mode CompileMode, d time.Duration, result ResultLabel) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.WithLabelValues(string(mode), string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSandboxMessage(direction, msgType string) {
	if p == nil || p.sandboxMessages == nil {
		return
	}
	p.sandboxMessages.WithLabelValues(direction, msgType).Inc()
}

func (p *PrometheusRecorder) AddSandboxSessions(delta int) {
	if p == nil || p.sandboxSessions == nil {
		return
	}
	p.sandboxSessions.Add(float64(delta))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(result ResultLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheInvalidation(kind string) {
	if p == nil || p.invalidations == nil {
		return
	}
	p.invalidations.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
