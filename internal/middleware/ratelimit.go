package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/config"
	"github.com/ukydev/fleet-checkpoint/internal/metrics"
	"golang.org/x/time/rate"
)

// RateLimiter gives every client IP a token bucket of cfg.Requests tokens,
// refilled evenly over the window.
type RateLimiter struct {
	window time.Duration
	every  rate.Limit
	burst  int

	mu        sync.Mutex
	clients   map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows cfg.Requests per cfg.WindowSeconds for each client.
// A non-positive window counts as one minute.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	burst := cfg.Requests
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		window:  window,
		every:   rate.Every(window / time.Duration(burst)),
		burst:   burst,
		clients: make(map[string]*visitor),
		now:     time.Now,
	}
}

func (l *RateLimiter) limiter(client string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	v, ok := l.clients[client]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		l.clients[client] = v
	}
	v.seen = now
	return v.lim
}

// sweep drops clients idle for a whole window. Their buckets are full again,
// so a fresh limiter behaves the same. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for client, v := range l.clients {
		if now.Sub(v.seen) >= l.window {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// allow takes a token for client. When none is left it returns how long
// until the next one.
func (l *RateLimiter) allow(client string) (bool, time.Duration) {
	now := l.now()
	r := l.limiter(client, now).ReserveN(now, 1)
	if !r.OK() {
		return false, l.window
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Handler rejects clients over the limit with 429 and a Retry-After header.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.allow(clientIP(r))
		if !ok {
			metrics.RateLimited.Inc()
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first forwarded address over the socket peer.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
