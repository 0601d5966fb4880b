package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"parking-booking/internal/handler/httperr"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

var errRateLimited = errs.New("rate limit exceeded")

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the TTL are dropped; by then they have refilled to a full burst anyway.
type RateLimiter struct {
	limiters  sync.Map
	cfg       config.RateLimitConfig
	clock     clock.Clock
	idleTTL   time.Duration
	lastSweep atomic.Int64
}

func NewRateLimiter(cfg config.RateLimitConfig, clk clock.Clock) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	if cfg.RPS > 0 {
		if refill := time.Duration(float64(cfg.Burst) / cfg.RPS * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}

	l := &RateLimiter{cfg: cfg, clock: clk, idleTTL: ttl}
	l.lastSweep.Store(clk.Now().UnixNano())
	return l
}

func (l *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	l.evictIdle(now)

	v, ok := l.limiters.Load(key)
	if !ok {
		v, _ = l.limiters.LoadOrStore(key, &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst),
		})
	}
	cl := v.(*clientLimiter)
	cl.lastSeen.Store(now.UnixNano())
	return cl.limiter
}

// evictIdle runs at most once per TTL, on whichever request gets there first.
func (l *RateLimiter) evictIdle(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idleTTL) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-l.idleTTL).UnixNano()
	evicted := 0
	l.limiters.Range(func(k, v any) bool {
		if v.(*clientLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(k)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		slog.Debug("evicted idle rate limiters", "count", evicted)
	}
}

// Clients reports how many client buckets are currently held.
func (l *RateLimiter) Clients() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.getLimiter(ip, l.clock.Now()).Allow() {
			slog.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
			httperr.AbortWithError(c, http.StatusTooManyRequests, errRateLimited, "Too many requests, please try again later", nil)
			return
		}
		c.Next()
	}
}
