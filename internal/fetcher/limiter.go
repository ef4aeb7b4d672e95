package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/pagemonitor/internal/urlhandler"

	"golang.org/x/time/rate"
)

// hostLimiter spaces out requests to the same host by at least delay.
type hostLimiter struct {
	delay    time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostLimiter(delay time.Duration) *hostLimiter {
	return &hostLimiter{
		delay:    delay,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host is allowed or ctx is done.
func (h *hostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil || h.delay <= 0 {
		return nil
	}
	return h.limiterFor(urlhandler.HostKey(rawURL)).Wait(ctx)
}

func (h *hostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.delay), 1)
		h.limiters[host] = limiter
	}
	return limiter
}
