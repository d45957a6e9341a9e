package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiter keeps one token bucket per client. Buckets idle for longer than
// idle are dropped on the next sweep.
type limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	swept   time.Time
	now     func() time.Time
}

func newLimiter(perSec float64, burst int, idle time.Duration) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		limit:   rate.Limit(perSec),
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*bucket),
		swept:   time.Now(),
		now:     time.Now,
	}
}

// take spends one token for key. When the bucket is empty it reports how
// long until the next token.
func (l *limiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) >= l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) >= l.idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now

	r := b.lim.ReserveN(now, 1)
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// RateLimit allows reqPerMin sustained requests per client IP with bursts of
// up to burst. A reqPerMin of zero disables it. Mount chi's RealIP first when
// running behind a proxy.
func RateLimit(reqPerMin, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(float64(reqPerMin)/60, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.take(remoteIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				deny(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
