package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ariya-backend/config"
	"ariya-backend/metrics"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP in memory.
type RateLimiter struct {
	rps     float64
	burst   int
	ttl     time.Duration
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter creates the limiter and starts evicting idle clients until
// ctx is done.
func NewRateLimiter(ctx context.Context, cfg config.ServerConfig) *RateLimiter {
	rl := &RateLimiter{
		rps:     cfg.RateLimitRPS,
		burst:   cfg.RateLimitBurst,
		ttl:     cfg.RateLimitTTL,
		clients: make(map[string]*clientLimiter),
	}
	if rl.burst <= 0 {
		rl.burst = 1
	}
	if rl.enabled() {
		go rl.evict(ctx)
	}
	return rl
}

func (rl *RateLimiter) enabled() bool { return rl.rps > 0 }

func (rl *RateLimiter) evict(ctx context.Context) {
	interval := rl.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, v := range rl.clients {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.clients, k)
		}
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.clients[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	lim := rate.NewLimiter(rate.Limit(rl.rps), rl.burst)
	rl.clients[key] = &clientLimiter{limiter: lim, lastSeen: now}
	return lim
}

// Middleware answers 429 with Retry-After once a client runs out of tokens.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.enabled() {
			c.Next()
			return
		}
		if !rl.limiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, try again later",
				"kind":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// Metrics counts requests by route template and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
