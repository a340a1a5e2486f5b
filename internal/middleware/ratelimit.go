package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures RateLimiter. Each client gets a token bucket that
// refills at RPS tokens per second and holds at most Burst tokens.
type LimiterConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration // buckets unused for this long are dropped
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP. It keeps its buckets in memory
// and evicts idle ones while handling requests, so it needs no goroutine.
type RateLimiter struct {
	conf   LimiterConfig
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

// NewRateLimiter creates a RateLimiter. A zero IdleTTL defaults to ten minutes.
func NewRateLimiter(conf LimiterConfig, logger *slog.Logger) *RateLimiter {
	if conf.IdleTTL <= 0 {
		conf.IdleTTL = 10 * time.Minute
	}
	if conf.Burst < 1 {
		conf.Burst = 1
	}
	return &RateLimiter{
		conf:    conf,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Limit wraps next; a client over its budget gets 429 Too Many Requests.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.limiter(key).Allow() {
			rl.logger.Warn("rate limit exceeded",
				slog.String("client", key),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			http.Error(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.conf.IdleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.conf.IdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	if c, ok := rl.clients[key]; ok {
		c.lastSeen = now
		return c.limiter
	}

	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.clients[key] = &clientLimiter{limiter: lim, lastSeen: now}
	return lim
}

// retryAfter is the whole number of seconds until one token is back.
func (rl *RateLimiter) retryAfter() int {
	if rl.conf.RPS <= 0 {
		return 60
	}
	secs := int(1/rl.conf.RPS + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// size reports how many clients are tracked.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP keys by RemoteAddr, which chi's RealIP middleware has already
// replaced with the forwarded address when there is one.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
