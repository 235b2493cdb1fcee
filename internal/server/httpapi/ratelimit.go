package httpapi

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the number of tracked clients; past it the least
// recently seen client loses its bucket.
const maxLimiters = 10000

// ipRateLimiter keeps a token bucket per client IP. A nil *ipRateLimiter
// allows everything.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// newIPRateLimiter returns nil when perSecond is not positive.
func newIPRateLimiter(perSecond float64, burst, capacity int) *ipRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	if capacity < 1 {
		capacity = maxLimiters
	}
	// only fails for a non-positive size
	limiters, _ := lru.New[string, *rate.Limiter](capacity)
	return &ipRateLimiter{
		limiters: limiters,
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *ipRateLimiter) allow(key string) bool {
	if rl == nil {
		return true
	}

	rl.mu.Lock()
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
