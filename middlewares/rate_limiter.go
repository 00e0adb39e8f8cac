package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a per-IP sliding window limiter.
type RateLimiter struct {
	rate      int
	interval  time.Duration
	ips       map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func NewRateLimiter(rate int, interval int) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: time.Duration(interval) * time.Second,
		ips:      make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()

		rl.mu.Lock()
		now := rl.now()
		cutoff := now.Add(-rl.interval)
		rl.sweep(now, cutoff)

		valid := make([]time.Time, 0, len(rl.ips[ip])+1)
		for _, t := range rl.ips[ip] {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}

		if len(valid) >= rl.rate {
			rl.ips[ip] = valid
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Request was throttled.",
			})
			return
		}

		rl.ips[ip] = append(valid, now)
		rl.mu.Unlock()
		c.Next()
	}
}

// sweep drops clients whose newest request left the window. It runs at
// most once per interval. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	rl.lastSweep = now
	for ip, hits := range rl.ips {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.ips, ip)
		}
	}
}

// tracked reports how many client IPs the limiter holds state for.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// StrictRateLimiter keeps one token bucket per client IP, used on the
// authentication endpoints. A bucket idle for longer than it takes to
// refill is forgotten.
type StrictRateLimiter struct {
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewStrictRateLimiter allows perMinute requests per minute per IP.
func NewStrictRateLimiter(perMinute int) *StrictRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	every := time.Minute / time.Duration(perMinute)
	return &StrictRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(every),
		burst:    perMinute,
		idle:     every * time.Duration(perMinute),
		now:      time.Now,
	}
}

func (sl *StrictRateLimiter) allow(ip string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	if now.Sub(sl.lastSweep) >= sl.idle {
		sl.lastSweep = now
		for key, v := range sl.visitors {
			if now.Sub(v.lastSeen) >= sl.idle {
				delete(sl.visitors, key)
			}
		}
	}

	v, ok := sl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(sl.limit, sl.burst)}
		sl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (sl *StrictRateLimiter) tracked() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.visitors)
}

func (sl *StrictRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiados intentos, espere unos momentos",
			})
			return
		}
		c.Next()
	}
}
