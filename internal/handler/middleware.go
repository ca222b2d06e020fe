package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/exitravels/backoffice/internal/metrics"
)

// apiSecurityHeaders are set on every response. Responses carry client
// contact details, so nothing may be cached or framed.
var apiSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
}

// SecurityHeaders adds the API's security response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range apiSecurityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics records request counts and latencies per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		// ServeMux fills r.Pattern; raw paths would explode label cardinality.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sr.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// LoginThrottle は同一クライアント IP からのサインイン失敗を数え、
// lockout の間に maxFailures 回失敗した IP の試行を 429 で拒否する。
// 成功したサインインはその IP の失敗履歴を消す。
type LoginThrottle struct {
	maxFailures       int
	lockout           time.Duration
	trustedProxyCount int
	now               func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time // IP → 失敗時刻（古い順）
}

// NewLoginThrottle creates a throttle. Assumes a single trusted reverse
// proxy. The cleanup goroutine stops when done is closed.
func NewLoginThrottle(maxFailures int, lockout time.Duration, done <-chan struct{}) *LoginThrottle {
	t := &LoginThrottle{
		maxFailures:       maxFailures,
		lockout:           lockout,
		trustedProxyCount: 1,
		now:               time.Now,
		failures:          make(map[string][]time.Time),
	}
	go t.cleanupLoop(done)
	return t
}

func (t *LoginThrottle) cleanupLoop(done <-chan struct{}) {
	ticker := time.NewTicker(t.lockout)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		t.mu.Lock()
		for ip := range t.failures {
			t.recentLocked(ip)
		}
		t.mu.Unlock()
	}
}

// recentLocked drops failures older than the lockout window and returns the
// remaining ones. t.mu must be held.
func (t *LoginThrottle) recentLocked(ip string) []time.Time {
	cutoff := t.now().Add(-t.lockout)
	ts := t.failures[ip]
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	ts = ts[i:]
	if len(ts) == 0 {
		delete(t.failures, ip)
		return nil
	}
	t.failures[ip] = ts
	return ts
}

// Middleware wraps the sign-in handler. Only 401 responses count as failures.
func (t *LoginThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := t.clientIP(r)

		t.mu.Lock()
		recent := t.recentLocked(ip)
		if len(recent) >= t.maxFailures {
			retryAfter := recent[len(recent)-t.maxFailures].Add(t.lockout).Sub(t.now())
			t.mu.Unlock()

			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
			writeError(w, http.StatusTooManyRequests, "too_many_failures")
			return
		}
		t.mu.Unlock()

		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		switch {
		case sr.statusCode == http.StatusUnauthorized:
			t.mu.Lock()
			t.failures[ip] = append(t.failures[ip], t.now())
			t.mu.Unlock()
		case sr.statusCode < 300:
			t.mu.Lock()
			delete(t.failures, ip)
			t.mu.Unlock()
		}
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP reads the entry the trusted proxy appended to X-Forwarded-For;
// entries to its left are client-controlled.
func (t *LoginThrottle) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && t.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		if idx := len(parts) - t.trustedProxyCount; idx >= 0 {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
