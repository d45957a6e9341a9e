package probe

import (
	"context"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// CheckResult is the unified result of a single probe.
//
// StatusCode is only set by the HTTP pre-check; Screenshot only by page
// checks on the degraded/failure path.
type CheckResult struct {
	Name       string         `json:"name"`
	Outcome    domain.Outcome `json:"outcome"`
	Message    string         `json:"message,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
	LatencyMS  float64        `json:"latency_ms"`
	StatusCode int            `json:"status_code,omitempty"`
}

func (r CheckResult) Up() bool {
	return r.Outcome == domain.OutcomeSuccess || r.Outcome == domain.OutcomeDegraded
}

// Checker performs a single check for a given target.
type Checker interface {
	Check(ctx context.Context, target domain.Target) CheckResult
}

func failed(name, msg string, latency float64) CheckResult {
	return CheckResult{Name: name, Outcome: domain.OutcomeFailure, Message: msg, LatencyMS: latency}
}
