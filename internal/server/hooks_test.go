package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/flowtower/pkg/observability"
)

type recordingHooks struct {
	observability.NoopHTTPHooks

	mu        sync.Mutex
	responses []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, fmt.Sprintf("%s %s %d", method, route, status))
}

func (h *recordingHooks) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.responses)
}
