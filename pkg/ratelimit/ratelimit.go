package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/telekom/k8s-dashboard/pkg/apiresponses"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
)

// Config holds rate limiter configuration
type Config struct {
	// Rate is the number of requests allowed per second
	Rate float64
	// Burst is the maximum number of requests allowed in a burst
	Burst int
	// CleanupInterval is how often stale clients are forgotten
	CleanupInterval time.Duration
	// MaxAge is how long to keep a client after its last request
	MaxAge time.Duration
}

// DefaultAPIConfig returns the limits used when the server config sets a
// rate without tuning the rest: 20 req/s per client, burst of 50.
func DefaultAPIConfig() Config {
	return Config{
		Rate:            20,
		Burst:           50,
		CleanupInterval: time.Minute,
		MaxAge:          5 * time.Minute,
	}
}

// FromServer derives the limiter config from the server section. ok is false
// when rate limiting is disabled.
func FromServer(s config.Server) (cfg Config, ok bool) {
	if s.RateLimit <= 0 {
		return Config{}, false
	}
	cfg = DefaultAPIConfig()
	cfg.Rate = s.RateLimit
	if s.RateBurst > 0 {
		cfg.Burst = s.RateBurst
	}
	return cfg, true
}

// client holds the limiter and last request time of one client address
type client struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPRateLimiter limits requests per client IP
type IPRateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*client
	config  Config
	done    chan struct{}
	once    sync.Once
}

// New creates a per-IP rate limiter and starts its cleanup goroutine. Call
// Stop to end it.
func New(cfg Config) *IPRateLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 5 * time.Minute
	}

	rl := &IPRateLimiter{
		clients: make(map[string]*client),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request from ip may proceed
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)}
		rl.clients[ip] = c
	}
	c.lastAccess = time.Now()
	return c.limiter.Allow()
}

// Middleware rejects requests over the limit with 429
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.APIRateLimited.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apiresponses.APIError{
				Error: "Rate limit exceeded, please try again later",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.forgetStale(time.Now())
		}
	}
}

// forgetStale drops clients idle for longer than MaxAge
func (rl *IPRateLimiter) forgetStale(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, c := range rl.clients {
		if now.Sub(c.lastAccess) > rl.config.MaxAge {
			delete(rl.clients, ip)
		}
	}
}

// Len returns the number of tracked clients
func (rl *IPRateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// Config returns a copy of the current configuration
func (rl *IPRateLimiter) Config() Config {
	return rl.config
}
