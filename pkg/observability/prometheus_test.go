package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromHooks(t *testing.T) {
	h := NewPromHooks()
	ctx := context.Background()

	h.OnParseComplete(ctx, "flow.xml", 12, time.Millisecond, nil)
	h.OnParseComplete(ctx, "bad.xml", 0, time.Millisecond, errors.New("boom"))
	h.OnLayoutComplete(ctx, 7, time.Millisecond, nil)
	h.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	h.OnCacheHit(ctx, "graph")
	h.OnCacheMiss(ctx, "graph")
	h.OnCacheMiss(ctx, "layout")
	h.OnCacheSet(ctx, "layout", 512)
	h.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)
	h.OnError(ctx, "POST", "/v1/layout", errors.New("boom"))
	h.OnStoreOp(ctx, "save", time.Millisecond, nil)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"parse ok", testutil.ToFloat64(h.stageTotal.WithLabelValues("parse", "ok")), 1},
		{"parse error", testutil.ToFloat64(h.stageTotal.WithLabelValues("parse", "error")), 1},
		{"layout ok", testutil.ToFloat64(h.stageTotal.WithLabelValues("layout", "ok")), 1},
		{"graph hit", testutil.ToFloat64(h.cacheLookups.WithLabelValues("graph", "hit")), 1},
		{"graph miss", testutil.ToFloat64(h.cacheLookups.WithLabelValues("graph", "miss")), 1},
		{"layout bytes", testutil.ToFloat64(h.cacheBytes.WithLabelValues("layout")), 512},
		{"http 200", testutil.ToFloat64(h.httpRequests.WithLabelValues("POST", "/v1/layout", "200")), 1},
		{"http errors", testutil.ToFloat64(h.httpErrors.WithLabelValues("POST", "/v1/layout")), 1},
		{"store save", testutil.ToFloat64(h.storeOps.WithLabelValues("save", "ok")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPromHooksHandler(t *testing.T) {
	h := NewPromHooks()
	h.OnCacheHit(context.Background(), "artifact")

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`flowtower_cache_lookups_total{result="hit",type="artifact"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestPromHooksInstancesAreIndependent(t *testing.T) {
	a, b := NewPromHooks(), NewPromHooks()
	a.OnCacheHit(context.Background(), "graph")
	if got := testutil.ToFloat64(b.cacheLookups.WithLabelValues("graph", "hit")); got != 0 {
		t.Errorf("second registry saw %v hits", got)
	}
}

type countingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
	NoopHTTPHooks
	NoopStoreHooks
	hits int
}

func (c *countingHooks) OnCacheHit(context.Context, string) { c.hits++ }

func TestMulti(t *testing.T) {
	a, b := &countingHooks{}, &countingHooks{}
	m := Multi(a, nil, b)

	SetAll(m)
	defer Reset()

	Cache().OnCacheHit(context.Background(), "graph")
	Pipeline().OnParseStart(context.Background(), "flow.xml")

	if a.hits != 1 || b.hits != 1 {
		t.Errorf("hits = %d, %d, want 1, 1", a.hits, b.hits)
	}
}
