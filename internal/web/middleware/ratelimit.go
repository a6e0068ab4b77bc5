package middleware

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/conduit-lang/descriptor/internal/web/response"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc extracts a rate limit key from a request
type RateLimitKeyFunc func(*http.Request) string

// RateLimitConfig holds configuration for rate limiting middleware
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client
	RequestsPerSecond float64
	// Burst is the number of requests a client may make at once
	Burst int
	// KeyFunc extracts the client key; IPKeyFunc by default
	KeyFunc RateLimitKeyFunc
	// IdleTimeout drops the limiter of a client not seen for this long
	IdleTimeout time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients holds one token bucket per client key
type clients struct {
	mu      sync.Mutex
	config  RateLimitConfig
	buckets map[string]*client
	swept   time.Time
	now     func() time.Time
}

// RateLimit creates a token-bucket rate limiting middleware. Rejected
// requests get 429 with a Retry-After header in whole seconds.
func RateLimit(config RateLimitConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	if config.Burst < 1 {
		config.Burst = 1
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 3 * time.Minute
	}
	c := &clients{
		config:  config,
		buckets: make(map[string]*client),
		now:     time.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := c.allow(config.KeyFunc(r)); !ok {
				response.RenderTooManyRequests(w, int(math.Ceil(wait.Seconds())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow takes a token from the bucket of key. When none is left it
// returns the time until the next one.
func (c *clients) allow(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	cl, ok := c.buckets[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rate.Limit(c.config.RequestsPerSecond), c.config.Burst)}
		c.buckets[key] = cl
	}
	cl.lastSeen = now

	reservation := cl.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Second, false
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return delay, false
	}
	return 0, true
}

// sweep drops idle clients at most once per idle timeout
func (c *clients) sweep(now time.Time) {
	if now.Sub(c.swept) < c.config.IdleTimeout {
		return
	}
	for key, cl := range c.buckets {
		if now.Sub(cl.lastSeen) >= c.config.IdleTimeout {
			delete(c.buckets, key)
		}
	}
	c.swept = now
}

// IPKeyFunc extracts the IP address from the request
// Checks X-Forwarded-For header first, then falls back to RemoteAddr
func IPKeyFunc(r *http.Request) string {
	// Try X-Forwarded-For first (proxy/load balancer)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr is in format "ip:port", extract just the IP
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
