// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps a token bucket per key. Each bucket holds limit tokens and
// refills at limit per duration. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	duration time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing limit requests per key per duration and
// starts a goroutine that drops idle buckets. Call Stop to end it.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		limit:    max(limit, 1),
		duration: duration,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

func (l *Limiter) get(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(l.duration/time.Duration(l.limit)), l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Allow takes a token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	return l.get(key, now).lim.AllowN(now, 1)
}

// Remaining returns how many whole tokens key has left.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.limit
	}
	return max(int(b.lim.TokensAt(time.Now())), 0)
}

// Reset refills the bucket for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanupLoop drops buckets untouched for a full duration; they have refilled
// completely and are indistinguishable from new ones.
func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-l.duration)
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP, preferring X-Forwarded-For then X-Real-IP
// over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter guards credential endpoints with two limits: one per client IP
// and a tighter one per account identifier (email or mobile number).
type AuthLimiter struct {
	ip      *Limiter
	account *Limiter
}

// NewAuthLimiter builds an AuthLimiter. The per-account limit is half the
// per-IP limit over five times the window.
func NewAuthLimiter(ipLimit int, window time.Duration) *AuthLimiter {
	return &AuthLimiter{
		ip:      New(ipLimit, window),
		account: New(max(ipLimit/2, 1), 5*window),
	}
}

// Check records an attempt and returns a user-facing reason when it is blocked.
func (a *AuthLimiter) Check(r *http.Request, identifier string) (bool, string) {
	if a == nil {
		return true, ""
	}
	if !a.ip.Allow(ClientIP(r)) {
		return false, "Too many attempts. Please wait a minute before trying again."
	}
	if key := accountKey(identifier); key != "" && !a.account.Allow(key) {
		return false, "Too many attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetAccount clears the per-account window after a successful sign-in.
func (a *AuthLimiter) ResetAccount(identifier string) {
	if a == nil {
		return
	}
	if key := accountKey(identifier); key != "" {
		a.account.Reset(key)
	}
}

// Stop ends both limiters' cleanup goroutines.
func (a *AuthLimiter) Stop() {
	if a == nil {
		return
	}
	a.ip.Stop()
	a.account.Stop()
}

func accountKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
