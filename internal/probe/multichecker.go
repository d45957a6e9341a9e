package probe

import (
	"context"
	"strings"
	"sync"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// MultiChecker runs several checkers against the same target concurrently.
// As a Checker it reports the worst outcome.
type MultiChecker struct {
	Checkers []Checker
}

func NewMultiChecker(checkers ...Checker) *MultiChecker {
	return &MultiChecker{Checkers: checkers}
}

// Run returns one result per checker, in checker order.
func (m *MultiChecker) Run(ctx context.Context, target domain.Target) []CheckResult {
	results := make([]CheckResult, len(m.Checkers))
	var wg sync.WaitGroup
	for i, c := range m.Checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = c.Check(ctx, target)
		}(i, c)
	}
	wg.Wait()
	return results
}

// Check folds Run into one result: the worst outcome wins, messages of the
// non-successful checks are joined and latency is the slowest check.
func (m *MultiChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	results := m.Run(ctx, target)
	if len(results) == 0 {
		return failed("Multi", "no checkers", 0)
	}
	out := CheckResult{Name: "Multi", Outcome: domain.OutcomeSuccess}
	var msgs []string
	for _, r := range results {
		if rank(r.Outcome) < rank(out.Outcome) {
			out.Outcome = r.Outcome
		}
		if r.Outcome != domain.OutcomeSuccess {
			msgs = append(msgs, r.Name+": "+r.Message)
		}
		if r.LatencyMS > out.LatencyMS {
			out.LatencyMS = r.LatencyMS
		}
		if out.Screenshot == "" {
			out.Screenshot = r.Screenshot
		}
		if out.StatusCode == 0 {
			out.StatusCode = r.StatusCode
		}
	}
	out.Message = strings.Join(msgs, "; ")
	return out
}

func rank(o domain.Outcome) int {
	switch o {
	case domain.OutcomeSuccess:
		return 2
	case domain.OutcomeDegraded:
		return 1
	default:
		return 0
	}
}
