package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pagecheck/internal/domain"
)

func TestHTTPChecker_Responses(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		want        domain.Outcome
		msg         string
	}{
		{"html", http.StatusOK, "text/html; charset=utf-8", domain.OutcomeSuccess, "200 OK"},
		{"xhtml", http.StatusOK, "application/xhtml+xml", domain.OutcomeSuccess, "200"},
		{"no_content_type", http.StatusNoContent, "", domain.OutcomeSuccess, "204"},
		{"json", http.StatusOK, "application/json", domain.OutcomeFailure, "not an HTML document"},
		{"server_error", http.StatusInternalServerError, "text/html", domain.OutcomeFailure, "500"},
		{"not_found", http.StatusNotFound, "text/html", domain.OutcomeFailure, "404"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "pagecheck/1.0", r.UserAgent())
				if c.contentType != "" {
					w.Header().Set("Content-Type", c.contentType)
				}
				w.WriteHeader(c.status)
			}))
			defer s.Close()

			out := NewHTTPChecker(2*time.Second).Check(context.Background(), domain.Target{URL: s.URL})
			assert.Equal(t, c.want, out.Outcome, out.Message)
			assert.Equal(t, c.status, out.StatusCode)
			assert.Contains(t, out.Message, c.msg)
			assert.GreaterOrEqual(t, out.LatencyMS, 0.0)
		})
	}
}

func TestHTTPChecker_AnyContentTypeWhenNotRequired(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	chk.RequireHTML = false
	assert.True(t, chk.Check(context.Background(), domain.Target{URL: s.URL}).Up())
}

func TestHTTPChecker_TimeoutIsTransportFailure(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer s.Close()

	out := NewHTTPChecker(50*time.Millisecond).Check(context.Background(), domain.Target{URL: s.URL})
	require.False(t, out.Up())
	assert.Equal(t, 0, out.StatusCode)
	assert.NotEmpty(t, out.Message)
}

func TestHTTPChecker_BadURL(t *testing.T) {
	out := NewHTTPChecker(time.Second).Check(context.Background(), domain.Target{URL: "://nope"})
	assert.Equal(t, domain.OutcomeFailure, out.Outcome)
	assert.Equal(t, "HTTP", out.Name)
}
