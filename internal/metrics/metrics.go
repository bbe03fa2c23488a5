// Package metrics exposes tokenization server metrics in the Prometheus
// text format. Each Collector owns its registry, so several servers (or
// tests) in one process never collide on metric names.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-vibrato/internal/intern"
)

const namespace = "vibrato"

// CacheStatsFunc reports the summed surface and feature cache activity.
type CacheStatsFunc func() (surface, feature intern.Stats)

// Collector records request, token and cache metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     prometheus.Counter
	textBytes       prometheus.Histogram
	poolWait        prometheus.Histogram
}

// NewCollector registers the metric families on a fresh registry together
// with the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
			},
			[]string{"path"},
		),
		tokensTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total number of tokens produced",
		}),
		textBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "text_bytes",
			Help:      "Size of tokenized texts in bytes",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		poolWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_wait_seconds",
			Help:      "Time spent waiting for a free tokenization session",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 7),
		}),
	}
}

// RegisterCacheStats exports the intern cache counters reported by fn.
// fn is called on every scrape, from the scraping goroutine.
func (c *Collector) RegisterCacheStats(fn CacheStatsFunc) {
	if c == nil {
		return
	}

	pick := func(cache string, field func(intern.Stats) uint64) func() float64 {
		return func() float64 {
			surface, feature := fn()
			if cache == "surface" {
				return float64(field(surface))
			}
			return float64(field(feature))
		}
	}
	fields := []struct {
		name  string
		help  string
		field func(intern.Stats) uint64
	}{
		{"intern_cache_hits_total", "Intern cache hits", func(s intern.Stats) uint64 { return s.Hits }},
		{"intern_cache_misses_total", "Intern cache misses", func(s intern.Stats) uint64 { return s.Misses }},
		{"intern_cache_evictions_total", "Intern cache evictions", func(s intern.Stats) uint64 { return s.Evictions }},
	}

	for _, f := range fields {
		for _, cache := range []string{"surface", "feature"} {
			c.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        f.name,
				Help:        f.help,
				ConstLabels: prometheus.Labels{"cache": cache},
			}, pick(cache, f.field)))
		}
	}
}

// RecordRequest counts one HTTP request.
func (c *Collector) RecordRequest(path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(path).Observe(d.Seconds())
}

// RecordTokenization counts the output of one tokenization.
func (c *Collector) RecordTokenization(textBytes, tokens int) {
	if c == nil {
		return
	}
	c.textBytes.Observe(float64(textBytes))
	c.tokensTotal.Add(float64(tokens))
}

// ObservePoolWait records how long a request waited for a session.
func (c *Collector) ObservePoolWait(d time.Duration) {
	if c == nil {
		return
	}
	c.poolWait.Observe(d.Seconds())
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
