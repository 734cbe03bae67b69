// internal/ratelimit/ratelimit.go
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keys a token bucket per arbitrary client identifier, grounded on
// the teacher's middleware/rate_limit.go visitor map but generalized away
// from net/http's ClientIP() so the same type serves both the general HTTP
// middleware (keyed by IP) and the WhatsApp ingest endpoint (keyed by
// client_id, per spec §4.8's per-client rate limit requirement).
type Limiter struct {
	mtx      sync.Mutex
	buckets  map[string]*bucket
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New builds a Limiter allowing r events/sec per key with burst b. idleTTL
// controls how long an unused key's bucket is retained before the
// background sweep evicts it; pass 0 for a sane 3-minute default.
func New(r rate.Limit, b int, idleTTL time.Duration) *Limiter {
	if idleTTL <= 0 {
		idleTTL = 3 * time.Minute
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   b,
		idleTTL: idleTTL,
		stopCh:  make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mtx.Lock()
			for key, b := range l.buckets {
				if time.Since(b.lastSeen) > l.idleTTL {
					delete(l.buckets, key)
				}
			}
			l.mtx.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// Stop ends the background sweep goroutine. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow reports whether a request for key may proceed under the bucket's
// current token count.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}
