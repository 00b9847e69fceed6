package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// client is a per-IP token bucket.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// In-memory limiter state, keyed by client IP.
var (
	clients         = make(map[string]*client)
	window          = time.Minute
	limit           = 60
	rateLimiterLock sync.Mutex
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimiter allows each client IP `limit` requests per `window` (default 60
// per minute) as a token bucket with a burst of `limit`. Excess requests get
// HTTP 429 with the standard error body. Idle clients are evicted after a window.
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		rateLimiterLock.Lock()
		evictIdle(now)
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
			clients[ip] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.AllowN(now, 1)
		rateLimiterLock.Unlock()

		if !allowed {
			AbortWithError(c, http.StatusTooManyRequests, "Too many requests", errRateLimited)
			return
		}

		c.Next()
	}
}

// evictIdle drops clients not seen for a full window. Callers hold rateLimiterLock.
func evictIdle(now time.Time) {
	for ip, cl := range clients {
		if now.Sub(cl.lastSeen) > window {
			delete(clients, ip)
		}
	}
}
