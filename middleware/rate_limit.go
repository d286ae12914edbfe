package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/gin-gonic/gin"
)

type clientWindow struct {
	start time.Time
	count int
}

// RateLimiter counts requests per client in fixed windows that start at each
// client's first request.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request from key. When refused it also returns how long
// until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.prune(now)
		l.clients[key] = &clientWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= l.rate {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// prune drops expired windows.
// Must be called with lock held
func (l *RateLimiter) prune(now time.Time) {
	for key, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, key)
		}
	}
}

// RateLimit limits requests per client IP. A non-positive rate disables it.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(cfg.Requests, cfg.Window)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if ok, retryAfter := limiter.Allow(clientIP); !ok {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"client_ip", clientIP,
				"path", c.Request.URL.Path,
			)
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(seconds))
			Fail(c, http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.")
			return
		}

		c.Next()
	}
}
