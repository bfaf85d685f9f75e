package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromHooks records hook events as Prometheus metrics. Every metric carries
// the "flowtower_" prefix and is registered on the hooks' own registry, so
// several instances can coexist in one process.
type PromHooks struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	flowNodes     prometheus.Histogram
	layoutRows    prometheus.Histogram

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// NewPromHooks creates hooks registered on a fresh registry that also
// carries the Go runtime and process collectors.
func NewPromHooks() *PromHooks {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := &PromHooks{
		registry: reg,
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_pipeline_stage_total",
			Help: "Pipeline stage runs by stage and status",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtower_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		flowNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowtower_flow_nodes",
			Help:    "Nodes per parsed flow, including synthesized ends",
			Buckets: prometheus.ExponentialBuckets(4, 2, 8),
		}),
		layoutRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowtower_layout_rows",
			Help:    "Rows per laid out flow",
			Buckets: prometheus.ExponentialBuckets(2, 2, 8),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_cache_lookups_total",
			Help: "Cache lookups by key type and result",
		}, []string{"type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_http_requests_total",
			Help: "HTTP responses by method, route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtower_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_http_errors_total",
			Help: "Failed HTTP requests by method and route",
		}, []string{"method", "route"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtower_store_operations_total",
			Help: "Flow store operations by op and status",
		}, []string{"op", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtower_store_operation_duration_seconds",
			Help:    "Flow store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		h.stageTotal, h.stageDuration, h.flowNodes, h.layoutRows,
		h.cacheLookups, h.cacheBytes,
		h.httpRequests, h.httpDuration, h.httpErrors,
		h.storeOps, h.storeDuration,
	)
	return h
}

// Registry returns the registry the metrics live on.
func (h *PromHooks) Registry() *prometheus.Registry { return h.registry }

// Handler serves the registry in the Prometheus exposition format.
func (h *PromHooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PromHooks) stage(stage string, d time.Duration, err error) {
	h.stageTotal.WithLabelValues(stage, status(err)).Inc()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (h *PromHooks) OnParseStart(context.Context, string) {}

func (h *PromHooks) OnParseComplete(_ context.Context, _ string, nodeCount int, d time.Duration, err error) {
	h.stage("parse", d, err)
	if err == nil {
		h.flowNodes.Observe(float64(nodeCount))
	}
}

func (h *PromHooks) OnLayoutStart(context.Context, int) {}

func (h *PromHooks) OnLayoutComplete(_ context.Context, rows int, d time.Duration, err error) {
	h.stage("layout", d, err)
	if err == nil {
		h.layoutRows.Observe(float64(rows))
	}
}

func (h *PromHooks) OnRenderStart(context.Context, []string) {}

func (h *PromHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.stage("render", d, err)
}

func (h *PromHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (h *PromHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (h *PromHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PromHooks) OnRequest(context.Context, string, string) {}

func (h *PromHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *PromHooks) OnError(_ context.Context, method, route string, _ error) {
	h.httpErrors.WithLabelValues(method, route).Inc()
}

func (h *PromHooks) OnStoreOp(_ context.Context, op string, d time.Duration, err error) {
	h.storeOps.WithLabelValues(op, status(err)).Inc()
	h.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}

var _ Hooks = (*PromHooks)(nil)

// =============================================================================
// Fan-out
// =============================================================================

// Hooks is the union of all hook categories.
type Hooks interface {
	PipelineHooks
	CacheHooks
	HTTPHooks
	StoreHooks
}

// multiHooks forwards every event to each of its members in order.
type multiHooks []Hooks

// Multi returns hooks that forward every event to each of hs. Nil members
// are skipped.
func Multi(hs ...Hooks) Hooks {
	var m multiHooks
	for _, h := range hs {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

func (m multiHooks) OnParseStart(ctx context.Context, source string) {
	for _, h := range m {
		h.OnParseStart(ctx, source)
	}
}

func (m multiHooks) OnParseComplete(ctx context.Context, source string, nodeCount int, d time.Duration, err error) {
	for _, h := range m {
		h.OnParseComplete(ctx, source, nodeCount, d, err)
	}
}

func (m multiHooks) OnLayoutStart(ctx context.Context, nodeCount int) {
	for _, h := range m {
		h.OnLayoutStart(ctx, nodeCount)
	}
}

func (m multiHooks) OnLayoutComplete(ctx context.Context, rows int, d time.Duration, err error) {
	for _, h := range m {
		h.OnLayoutComplete(ctx, rows, d, err)
	}
}

func (m multiHooks) OnRenderStart(ctx context.Context, formats []string) {
	for _, h := range m {
		h.OnRenderStart(ctx, formats)
	}
}

func (m multiHooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	for _, h := range m {
		h.OnRenderComplete(ctx, formats, d, err)
	}
}

func (m multiHooks) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheHit(ctx, keyType)
	}
}

func (m multiHooks) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range m {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (m multiHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range m {
		h.OnCacheSet(ctx, keyType, size)
	}
}

func (m multiHooks) OnRequest(ctx context.Context, method, route string) {
	for _, h := range m {
		h.OnRequest(ctx, method, route)
	}
}

func (m multiHooks) OnResponse(ctx context.Context, method, route string, code int, d time.Duration) {
	for _, h := range m {
		h.OnResponse(ctx, method, route, code, d)
	}
}

func (m multiHooks) OnError(ctx context.Context, method, route string, err error) {
	for _, h := range m {
		h.OnError(ctx, method, route, err)
	}
}

func (m multiHooks) OnStoreOp(ctx context.Context, op string, d time.Duration, err error) {
	for _, h := range m {
		h.OnStoreOp(ctx, op, d, err)
	}
}
