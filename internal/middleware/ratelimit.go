package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/onnwee/reddit-insight/internal/apierr"
)

// RateLimiter enforces a global request budget plus a per-IP budget,
// with stale per-IP limiters reaped periodically.
type RateLimiter struct {
	global *rate.Limiter

	mu       sync.Mutex
	perIP    map[string]*ipEntry
	ipRate   rate.Limit
	ipBurst  int
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a RateLimiter and starts its cleanup goroutine.
func NewRateLimiter(globalRPS float64, globalBurst int, ipRPS float64, ipBurst int) *RateLimiter {
	rl := &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(globalRPS), globalBurst),
		perIP:   make(map[string]*ipEntry),
		ipRate:  rate.Limit(ipRPS),
		ipBurst: ipBurst,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.perIP[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(rl.ipRate, rl.ipBurst)}
		rl.perIP[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, entry := range rl.perIP {
			if time.Since(entry.lastSeen) > 30*time.Minute {
				delete(rl.perIP, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware enforces both the global and per-IP budgets.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.global.Allow() {
			apierr.WriteError(w, apierr.New(apierr.SystemInternal, http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}

		ip := clientIP(r)
		if !rl.limiterFor(ip).Allow() {
			apierr.WriteError(w, apierr.New(apierr.SystemInternal, http.StatusTooManyRequests, "rate limit exceeded for client"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
