package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address. CF-Connecting-IP wins over the first
// X-Forwarded-For hop, which wins over RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// PINKey scopes PIN attempts to one client and one list, so a guess against
// one list does not lock the client out of another.
func PINKey(r *http.Request) string {
	return RealIP(r) + "|" + r.PathValue("list_id")
}

// AttemptLimiter allows at most limit attempts per key in any sliding window
// of the configured length.
type AttemptLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func NewAttemptLimiter(limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
	}
}

// Allow records an attempt for key. When the key is over its limit nothing
// is recorded and the wait until the oldest attempt expires is returned.
func (l *AttemptLimiter) Allow(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if len(recent) >= l.limit {
		return recent[0].Add(l.window).Sub(now), false
	}
	l.attempts[key] = append(recent, now)
	return 0, true
}

// prune drops attempts of key that left the window. Callers hold l.mu.
func (l *AttemptLimiter) prune(key string, now time.Time) []time.Time {
	times := l.attempts[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	times = times[i:]
	if len(times) == 0 {
		delete(l.attempts, key)
		return nil
	}
	return times
}

// Sweep forgets keys without attempts inside the window and reports how
// many keys are still tracked.
func (l *AttemptLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.attempts {
		if recent := l.prune(key, now); recent != nil {
			l.attempts[key] = recent
		}
	}
	return len(l.attempts)
}

// LimitAttempts rejects requests with 429 once the key returned by keyFunc
// runs out of attempts. Retry-After is rounded up to whole seconds.
func LimitAttempts(l *AttemptLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wait, ok := l.Allow(keyFunc(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				deny(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
