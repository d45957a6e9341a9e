package domain

import "time"

type TargetID string

// Target is a page we smoke-check. Label and Placeholder override the
// default primary indicator and input fallback when set.
type Target struct {
	ID          TargetID  `json:"id"`
	URL         string    `json:"url"`
	Label       string    `json:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailure  Outcome = "failure"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeDegraded, OutcomeFailure:
		return true
	}
	return false
}

type CheckResult struct {
	TargetID   TargetID  `json:"target_id"`
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	LatencyMS  float64   `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Up is true for success and degraded success.
func (r CheckResult) Up() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeDegraded
}
