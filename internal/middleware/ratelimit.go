package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/eventops/backoffice-api/internal/handler"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	window  time.Duration
}

// NewRateLimiter allows limit requests per window per client IP.
func NewRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		window:  window,
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.Lock()
	defer rl.Unlock()

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rl *rateLimiter) cleanup() {
	rl.Lock()
	defer rl.Unlock()

	cutoff := time.Now().Add(-3 * rl.window)
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) RateLimit() gin.HandlerFunc {
	go func() {
		for {
			time.Sleep(rl.window)
			rl.cleanup()
		}
	}()

	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
