// Package ratelimit admits at most one request per client address per window.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
)

type Limiter struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	last      map[string]time.Time
	lastSweep time.Time
}

func New(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records a call from key and reports whether it is outside the
// previous call's window. Rejected calls do not extend the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	if last, ok := l.last[key]; ok && now.Sub(last) < l.window {
		return false
	}

	l.last[key] = now

	return true
}

// Len is the number of tracked addresses.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.last)
}

// sweep drops expired entries, at most once per window.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}

	for k, t := range l.last {
		if now.Sub(t) >= l.window {
			delete(l.last, k)
		}
	}

	l.lastSweep = now
}

// Middleware keys on r.RemoteAddr, so chi's middleware.RealIP should run
// first when the API sits behind a proxy.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientAddr(r)) {
			respond.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	if r.RemoteAddr == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
