package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL      = time.Hour
	visitorSweepEvery   = 5 * time.Minute
	rateLimitedErrorKey = "rate_limit_exceeded"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors tracks one token bucket per client address.
type visitors struct {
	mu    sync.Mutex
	byIP  map[string]*visitor
	limit rate.Limit
	burst int
	now   func() time.Time
}

func newVisitors(rps float64, burst int) *visitors {
	return &visitors{
		byIP:  make(map[string]*visitor),
		limit: rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

func (v *visitors) limiterFor(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.byIP[ip]
	if !ok {
		entry = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.byIP[ip] = entry
	}
	entry.lastSeen = v.now()
	return entry.limiter
}

// sweep drops visitors idle for longer than ttl and returns how many were dropped.
func (v *visitors) sweep(ttl time.Duration) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := v.now().Add(-ttl)
	dropped := 0
	for ip, entry := range v.byIP {
		if entry.lastSeen.Before(cutoff) {
			delete(v.byIP, ip)
			dropped++
		}
	}
	return dropped
}

func (v *visitors) sweepUntilDone(ctx context.Context) {
	ticker := time.NewTicker(visitorSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.sweep(visitorIdleTTL)
		}
	}
}

// retryAfterSeconds reports how long the caller should wait for the next token,
// rounded up to a whole second.
func retryAfterSeconds(limiter *rate.Limiter) int {
	reservation := limiter.Reserve()
	defer reservation.Cancel()

	seconds := int(math.Ceil(reservation.Delay().Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// RateLimitMiddleware applies a token bucket per client IP (as resolved by
// gin's ClientIP) to the envelope API. Rejected requests get 429 and a
// Retry-After header. Idle buckets are swept in the background until ctx ends.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	buckets := newVisitors(rps, burst)
	go buckets.sweepUntilDone(ctx)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := buckets.limiterFor(ip)
		if limiter.Allow() {
			c.Next()
			return
		}

		wait := retryAfterSeconds(limiter)
		logger.Debug("request rate limited",
			slog.String("client_ip", ip),
			slog.Int("retry_after_seconds", wait))

		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":   rateLimitedErrorKey,
			"message": "Request rate exceeded, retry after the number of seconds in Retry-After",
		})
	}
}
