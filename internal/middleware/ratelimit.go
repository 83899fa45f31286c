package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bimora/portal/internal/model"
	"github.com/bimora/portal/internal/security"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// KeyFunc derives the rate-limit key of a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys requests by canonical client address.
func ByClientIP(r *http.Request) string {
	return security.ClientIP(r)
}

// ByClientIPAndParam keys requests by client address and a route parameter,
// so each (address, resource) pair gets its own window.
func ByClientIPAndParam(param string) KeyFunc {
	return func(r *http.Request) string {
		return security.ClientIP(r) + ":" + chi.URLParam(r, param)
	}
}

// Policy is one fixed-window limit.
type Policy struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	Key     KeyFunc
}

// RateLimit counts every request against p, successful or not, and answers
// 429 once the window's budget is spent. Counter failures let the request
// through.
func RateLimit(counter security.Counter, p Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	if p.Key == nil {
		p.Key = ByClientIP
	}
	if p.Message == "" {
		p.Message = model.ErrRateLimited.Error() + ", please try again later"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit, err := counter.Increment(r.Context(), p.Name+":"+p.Key(r), p.Window)
			if err != nil {
				logger.Warn("ratelimit: counter unavailable, allowing request", "policy", p.Name, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			reset := secondsUntil(hit.ResetAt)
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(p.Max))
			h.Set("RateLimit-Remaining", strconv.Itoa(max(p.Max-hit.Count, 0)))
			h.Set("RateLimit-Reset", strconv.Itoa(reset))

			if hit.Count > p.Max {
				h.Set("Retry-After", strconv.Itoa(max(reset, 1)))
				logger.Debug("ratelimit: limit reached", "policy", p.Name, "count", hit.Count)
				writeError(w, http.StatusTooManyRequests, p.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func secondsUntil(t time.Time) int {
	d := time.Until(t)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// maxIdleLimiters bounds the throttle map before idle entries are swept.
const maxIdleLimiters = 10_000

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
	}
}

func (ipl *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	e, ok := ipl.limiters[ip]
	if !ok {
		if len(ipl.limiters) >= maxIdleLimiters {
			ipl.sweep(now.Add(-15 * time.Minute))
		}
		e = &limiterEntry{limiter: rate.NewLimiter(ipl.rate, ipl.burst)}
		ipl.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (ipl *ipLimiter) sweep(idleSince time.Time) {
	for ip, e := range ipl.limiters {
		if e.lastSeen.Before(idleSince) {
			delete(ipl.limiters, ip)
		}
	}
}

// Throttle is a per-address token bucket for endpoints that should absorb
// short bursts but not sustained guessing, such as login.
func Throttle(r rate.Limit, burst int) func(http.Handler) http.Handler {
	il := newIPLimiter(r, burst)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			res := il.get(security.ClientIP(r), now).ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(max(int(math.Ceil(delay.Seconds())), 1)))
				writeError(w, http.StatusTooManyRequests, "too many attempts, please try again later")
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
