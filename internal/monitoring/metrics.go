package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ChatMessagesTotal   prometheus.Counter
	ChatConnections     prometheus.Gauge
	WellbeingScore      prometheus.Histogram
	WellbeingFlagsTotal prometheus.Counter

	LLMLatency     *prometheus.HistogramVec
	LLMErrorsTotal *prometheus.CounterVec

	UploadsTotal    *prometheus.CounterVec
	KnowledgeChunks prometheus.Gauge

	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics set.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New builds a metrics set on its own registry, so tests can create as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ChatMessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Student messages handled over the chat socket",
		}),
		ChatConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connections",
			Help: "Open chat socket connections",
		}),
		WellbeingScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellbeing_score",
			Help:    "Distribution of wellbeing scores of student messages",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 7.5, 8, 9, 10},
		}),
		WellbeingFlagsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_flags_total",
			Help: "Messages flagged for wellbeing review",
		}),
		LLMLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Language model response latency in seconds",
				Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),
		LLMErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_errors_total",
				Help: "Language model failures answered with the fallback apology",
			},
			[]string{"provider", "model"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Course document uploads by result",
			},
			[]string{"route", "result"},
		),
		KnowledgeChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "knowledge_chunks",
			Help: "Chunks currently held by the knowledge base",
		}),
		EmbeddingCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Embedding cache hits",
		}),
		EmbeddingCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Embedding cache misses",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ChatMessagesTotal,
		m.ChatConnections,
		m.WellbeingScore,
		m.WellbeingFlagsTotal,
		m.LLMLatency,
		m.LLMErrorsTotal,
		m.UploadsTotal,
		m.KnowledgeChunks,
		m.EmbeddingCacheHits,
		m.EmbeddingCacheMisses,
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
