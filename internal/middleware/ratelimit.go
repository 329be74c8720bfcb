package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window request counter keyed by client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	// Cleanup goroutine
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-rl.done:
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, win := range rl.clients {
		if now.After(win.resetAt) {
			delete(rl.clients, ip)
		}
	}
}

// allow counts one request for key and reports whether it is within the
// limit, and if not how long until the window resets.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.clients[key]
	if !ok || now.After(win.resetAt) {
		rl.clients[key] = &window{count: 1, resetAt: now.Add(rl.period)}
		return true, 0
	}
	win.count++
	if win.count > rl.limit {
		return false, win.resetAt.Sub(now)
	}
	return true, 0
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
