package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug-level structured log line.
// It implements all hook interfaces; errors are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that write to logger. A nil logger disables output.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) debug(msg string, kv ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, kv...)
	}
}

func (h *LogHooks) result(msg string, err error, kv ...any) {
	if h.logger == nil {
		return
	}
	if err != nil {
		h.logger.Warn(msg, append(kv, "err", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *LogHooks) OnParseStart(_ context.Context, source string) {
	h.debug("parse start", "source", source)
}

func (h *LogHooks) OnParseComplete(_ context.Context, source string, nodeCount int, d time.Duration, err error) {
	h.result("parse complete", err, "source", source, "nodes", nodeCount, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.debug("layout start", "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, rows int, d time.Duration, err error) {
	h.result("layout complete", err, "rows", rows, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.result("render complete", err, "formats", formats, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.debug("response", "method", method, "route", route, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, route string, err error) {
	h.result("request failed", err, "method", method, "route", route)
}

func (h *LogHooks) OnStoreOp(_ context.Context, op string, d time.Duration, err error) {
	h.result("store", err, "op", op, "duration", d)
}

var _ Hooks = (*LogHooks)(nil)

// SetAll registers h for every hook category.
func SetAll(h Hooks) {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
	SetStoreHooks(h)
}
