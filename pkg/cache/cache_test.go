package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	gk := k.GraphKey(Hash([]byte("<Flow/>")))
	if !strings.HasPrefix(gk, "graph:") {
		t.Errorf("GraphKey = %q, want graph: prefix", gk)
	}
	if gk != k.GraphKey(Hash([]byte("<Flow/>"))) {
		t.Error("GraphKey should be deterministic")
	}

	base := LayoutKeyOpts{ColumnWidth: 300, RowHeight: 160, FaultOffset: 1}
	wide := base
	wide.ColumnWidth = 400
	if k.LayoutKey("g", base) == k.LayoutKey("g", wide) {
		t.Error("different layout options should produce different keys")
	}
	if k.LayoutKey("g", base) == k.LayoutKey("h", base) {
		t.Error("different graph hashes should produce different keys")
	}
	if !strings.HasPrefix(k.LayoutKey("g", base), "layout:") {
		t.Error("LayoutKey should carry layout: prefix")
	}

	svg := ArtifactKeyOpts{Format: "svg", Labels: true}
	png := ArtifactKeyOpts{Format: "png", Labels: true}
	if k.ArtifactKey("l", svg) == k.ArtifactKey("l", png) {
		t.Error("different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(nil, "staging:")

	tests := []struct {
		name  string
		got   string
		inner string
	}{
		{"graph", k.GraphKey("x"), inner.GraphKey("x")},
		{"layout", k.LayoutKey("x", LayoutKeyOpts{}), inner.LayoutKey("x", LayoutKeyOpts{})},
		{"artifact", k.ArtifactKey("x", ArtifactKeyOpts{Format: "svg"}), inner.ArtifactKey("x", ArtifactKeyOpts{Format: "svg"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != "staging:"+tt.inner {
				t.Errorf("got %q, want %q", tt.got, "staging:"+tt.inner)
			}
		})
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "layout:abc", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit || string(data) != `{"nodes":[]}` {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	n, size, err := c.Stats()
	if err != nil || n != 1 || size == 0 {
		t.Errorf("Stats = %d, %d, %v; want 1 entry", n, size, err)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	pruned, err := c.Prune()
	if err != nil || pruned != 1 {
		t.Errorf("Prune = %d, %v; want 1", pruned, err)
	}
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path("k")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if entries, _, _ := c.Stats(); entries != 0 {
		t.Errorf("entries after Clear = %d", entries)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 50 * time.Millisecond }()
	ctx := context.Background()

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return Retryable(errors.New("connection reset"))
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		perm := errors.New("WRONGTYPE")
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return perm
		})
		if !errors.Is(err, perm) || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return Retryable(errors.New("timeout"))
		})
		if !errors.Is(err, ErrNetwork) || calls != retryAttempts {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("FLOWTOWER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FLOWTOWER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "flowtower-test:" + t.Name()
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if data, hit, err := c.Get(ctx, key); err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("entry present after Delete")
	}
}
