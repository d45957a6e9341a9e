package probe

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// HTTPChecker is a cheap reachability probe run before a browser is started.
// A status below 400 passes. With RequireHTML the document must also be
// served as HTML; a missing Content-Type is accepted.
type HTTPChecker struct {
	Client      *http.Client
	UserAgent   string
	RequireHTML bool
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client:      &http.Client{Timeout: timeout},
		UserAgent:   "pagecheck/1.0",
		RequireHTML: true,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return failed("HTTP", err.Error(), 0)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return failed("HTTP", err.Error(), latency)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	res := CheckResult{
		Name:       "HTTP",
		Outcome:    domain.OutcomeFailure,
		Message:    resp.Status,
		LatencyMS:  latency,
		StatusCode: resp.StatusCode,
	}
	ct := resp.Header.Get("Content-Type")
	switch {
	case resp.StatusCode >= 400:
	case h.RequireHTML && !isHTML(ct):
		res.Message = fmt.Sprintf("%s: not an HTML document (%s)", resp.Status, ct)
	default:
		res.Outcome = domain.OutcomeSuccess
	}
	return res
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}
