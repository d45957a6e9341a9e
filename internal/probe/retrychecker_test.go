package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// fake checker you can control
type fakeChecker struct {
	results []CheckResult
	i       int
}

func (f *fakeChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	if f.i >= len(f.results) {
		return CheckResult{Outcome: domain.OutcomeFailure, Message: "no more"}
	}
	r := f.results[f.i]
	f.i++
	return r
}

var tgt = domain.Target{ID: "T1", URL: "https://todo.example.com"}

func TestRetryChecker_SucceedsAfterRetry(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Outcome: domain.OutcomeFailure, Message: "first fail"},
			{Outcome: domain.OutcomeSuccess, Message: "ok"},
		},
	}
	rc := &RetryChecker{Inner: f, Attempts: 3, Backoff: 10 * time.Millisecond}
	out := rc.Check(context.Background(), tgt)
	if !out.Up() {
		t.Fatalf("expected success after retry, got %+v", out)
	}
	if f.i != 2 {
		t.Fatalf("expected 2 calls, got %d", f.i)
	}
}

func TestRetryChecker_DegradedIsNotRetried(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{{Outcome: domain.OutcomeDegraded, Message: "api down"}},
	}
	rc := &RetryChecker{Inner: f, Attempts: 3}
	out := rc.Check(context.Background(), tgt)
	if out.Outcome != domain.OutcomeDegraded || f.i != 1 {
		t.Fatalf("want single degraded call, got %+v after %d calls", out, f.i)
	}
}

func TestRetryChecker_AllFailAnnotates(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Outcome: domain.OutcomeFailure, Message: "fail1"},
			{Outcome: domain.OutcomeFailure, Message: "fail2"},
		},
	}
	rc := &RetryChecker{Inner: f, Attempts: 2, Backoff: 0}
	out := rc.Check(context.Background(), tgt)
	if out.Up() {
		t.Fatalf("expected failure, got success")
	}
	if !strings.HasSuffix(out.Message, "(after retries)") {
		t.Fatalf("expected retry annotation, got %q", out.Message)
	}
}

func TestRetryChecker_StopsOnCancel(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Outcome: domain.OutcomeFailure, Message: "fail1"},
			{Outcome: domain.OutcomeSuccess},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc := &RetryChecker{Inner: f, Attempts: 5, Backoff: time.Hour}
	out := rc.Check(ctx, tgt)
	if out.Up() || f.i != 1 {
		t.Fatalf("want one failed call, got %+v after %d calls", out, f.i)
	}
}
