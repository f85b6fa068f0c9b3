package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stakingcore/observability"
)

// rateLimiter throttles the read-only query API per client, grounded on the
// teacher's gateway/middleware.RateLimiter (one token bucket per visitor,
// swept on a timer). spec.md §5 treats this surface as advisory, so limits
// protect the node, not correctness.
type rateLimiter struct {
	perSecond float64
	burst     int

	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &rateLimiter{perSecond: perSecond, burst: burst, visitors: make(map[string]*rate.Limiter)}
}

func (rl *rateLimiter) middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)
			if !rl.obtain(id).Allow() {
				observability.ModuleMetrics().RecordThrottle(route, "rate_limit")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) obtain(id string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.visitors[id]
	if ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(rl.perSecond), rl.burst)
	rl.visitors[id] = lim
	go rl.sweep(id)
	return lim
}

func (rl *rateLimiter) sweep(id string) {
	t := time.NewTimer(10 * time.Minute)
	defer t.Stop()
	<-t.C
	rl.mu.Lock()
	delete(rl.visitors, id)
	rl.mu.Unlock()
}

func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if comma := strings.IndexByte(fwd, ','); comma > 0 {
			fwd = fwd[:comma]
		}
		if ip := net.ParseIP(strings.TrimSpace(fwd)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
