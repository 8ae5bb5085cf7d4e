package middleware

import (
	"sync"
	"time"
)

type windowInfo struct {
	start time.Time
	count int64
}

// windowLimiter is the in-process fixed window used when Redis is not
// configured. Counts are per process.
type windowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	clients map[string]*windowInfo
}

func newWindowLimiter(window time.Duration) *windowLimiter {
	return &windowLimiter{window: window, clients: make(map[string]*windowInfo)}
}

// hit counts one request for key and returns the count in the current window
func (l *windowLimiter) hit(key string, now time.Time) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	wi, ok := l.clients[key]
	if !ok || now.Sub(wi.start) > l.window {
		if len(l.clients) > 10000 {
			l.sweep(now)
		}
		l.clients[key] = &windowInfo{start: now, count: 1}
		return 1
	}
	wi.count++
	return wi.count
}

func (l *windowLimiter) sweep(now time.Time) {
	for k, wi := range l.clients {
		if now.Sub(wi.start) > l.window {
			delete(l.clients, k)
		}
	}
}
