package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsFrames(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Computing layout...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Computing layout...") {
		t.Errorf("output = %q", out.String())
	}
	if s.Canceled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &syncBuffer{}, "Rendering...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Canceled() {
		t.Error("spinner should be canceled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Testing...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessage(t *testing.T) {
	tests := []struct {
		name string
		stop func(*Spinner)
		icon string
		want string
	}{
		{"success", func(s *Spinner) { s.StopWithSuccess("Layout complete") }, iconSuccess, "Layout complete"},
		{"error", func(s *Spinner) { s.StopWithError("Layout failed") }, iconError, "Layout failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out syncBuffer
			s := newSpinner(context.Background(), &out, "Working...")
			s.Start()
			tt.stop(s)
			got := out.String()
			if !strings.Contains(got, tt.icon) || !strings.Contains(got, tt.want) {
				t.Errorf("output = %q, want %s %q", got, tt.icon, tt.want)
			}
		})
	}
}
