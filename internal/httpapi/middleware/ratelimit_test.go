package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_BurstThenRefill(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := newLimiter(1, 2, time.Hour) // 1 token/s, burst 2
	l.now = c.now

	ok, _ := l.take("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.take("1.2.3.4")
	assert.True(t, ok)

	ok, wait := l.take("1.2.3.4")
	require.False(t, ok)
	assert.Equal(t, time.Second, wait)

	// other clients have their own bucket
	ok, _ = l.take("5.6.7.8")
	assert.True(t, ok)

	c.advance(500 * time.Millisecond)
	ok, wait = l.take("1.2.3.4")
	require.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	c.advance(500 * time.Millisecond)
	ok, _ = l.take("1.2.3.4")
	assert.True(t, ok)
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := newLimiter(1, 1, 10*time.Second)
	l.now = c.now
	l.swept = c.t

	l.take("a")
	l.take("b")
	c.advance(20 * time.Second)
	l.take("c")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "c")
}

func TestRateLimit_429WithRetryAfter(t *testing.T) {
	h := RateLimit(60, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rr.Body.String())
}

func TestRateLimit_ZeroDisables(t *testing.T) {
	h := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}
