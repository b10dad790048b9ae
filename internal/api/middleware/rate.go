package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kdange/portfolio/internal/api/dto/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for the rate limiter
type RateLimitConfig struct {
	// Requests per second, per client IP
	RPS float64
	// Burst size (number of requests that can be made in a single burst)
	Burst int
	// Idle limiters older than this are dropped
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware gives every client IP its own token bucket. A
// non-positive RPS disables limiting.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientLimiter)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > config.IdleTTL {
			for key, cl := range clients {
				if now.Sub(cl.lastSeen) > config.IdleTTL {
					delete(clients, key)
				}
			}
			lastSweep = now
		}

		cl, ok := clients[ip]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(config.RPS), config.Burst)}
			clients[ip] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.AllowN(now, 1)
		remaining := int(cl.limiter.TokensAt(now))
		mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(max(1/config.RPS, 1))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.NewErrorResponse(common.MessageTooManyRequests))
			return
		}

		c.Next()
	}
}
