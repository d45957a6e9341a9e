package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/probe"
	"github.com/hamed0406/pagecheck/internal/repo"
)

// --- fakes ---

type fakeTargets struct {
	t []*domain.Target
}

func (f *fakeTargets) Add(ctx context.Context, t *domain.Target) error { return nil }
func (f *fakeTargets) List(ctx context.Context) ([]*domain.Target, error) {
	return f.t, nil
}
func (f *fakeTargets) Get(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	return nil, nil
}
func (f *fakeTargets) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	return nil, nil
}

type fakeResults struct {
	mu   sync.Mutex
	n    int
	last *domain.CheckResult
	rows []repo.LatestRow // for alerter tests
}

func (f *fakeResults) Append(ctx context.Context, cr *domain.CheckResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	cp := *cr
	f.last = &cp
	return nil
}

func (f *fakeResults) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeResults) LastByTarget(ctx context.Context, id domain.TargetID) (*domain.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, nil
}

type degradedChecker struct {
	inFlight, peak atomic.Int32
}

func (d *degradedChecker) Check(ctx context.Context, target domain.Target) probe.CheckResult {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return probe.CheckResult{
		Outcome:    domain.OutcomeDegraded,
		LatencyMS:  1,
		Message:    "page structure loaded but API may not be working",
		Screenshot: "shots/" + string(target.ID) + ".png",
	}
}

func targets(ids ...string) *fakeTargets {
	f := &fakeTargets{}
	for _, id := range ids {
		f.t = append(f.t, &domain.Target{ID: domain.TargetID(id), URL: "https://" + id, CreatedAt: time.Now().UTC()})
	}
	return f
}

// --- tests ---

func TestRechecker_RunOnceViaLoop_AppendsResult(t *testing.T) {
	rstore := &fakeResults{}
	rc := NewRechecker(
		zap.NewNop(),
		targets("T1"),
		rstore,
		&degradedChecker{},
		2*time.Millisecond, // Interval (immediate pass + ticks)
		200*time.Millisecond,
		1,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rc.Run(ctx)

	// Wait a tiny bit for the immediate pass to execute.
	time.Sleep(30 * time.Millisecond)

	rstore.mu.Lock()
	n := rstore.n
	last := rstore.last
	rstore.mu.Unlock()

	if n == 0 || last == nil {
		t.Fatalf("expected at least one Append call, got n=%d", n)
	}
	if last.TargetID != domain.TargetID("T1") || last.Outcome != domain.OutcomeDegraded || last.Screenshot == "" {
		t.Fatalf("unexpected last result: %+v", last)
	}
}

func TestRechecker_RespectsConcurrency(t *testing.T) {
	rstore := &fakeResults{}
	chk := &degradedChecker{}
	rc := NewRechecker(zap.NewNop(), targets("a", "b", "c", "d", "e", "f"), rstore, chk, time.Second, time.Second, 2)

	pass := rc.RunOnce(context.Background())

	if rstore.n != 6 {
		t.Fatalf("want 6 results, got %d", rstore.n)
	}
	if pass.Checked != 6 || pass.Degraded != 6 || pass.Failed != 0 {
		t.Fatalf("unexpected pass summary: %+v", pass)
	}
	if p := chk.peak.Load(); p > 2 {
		t.Fatalf("concurrency exceeded: peak %d", p)
	}
}

func TestRechecker_ZeroIntervalDisabled(t *testing.T) {
	rstore := &fakeResults{}
	rc := NewRechecker(zap.NewNop(), targets("T1"), rstore, &degradedChecker{}, 0, 0, 0)
	rc.Run(context.Background()) // returns immediately
	if rstore.n != 0 {
		t.Fatalf("disabled rechecker should not check, got %d", rstore.n)
	}
}

// blockingChecker holds every check until release is closed.
type blockingChecker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChecker) Check(ctx context.Context, target domain.Target) probe.CheckResult {
	b.started <- struct{}{}
	<-b.release
	return probe.CheckResult{Outcome: domain.OutcomeFailure, Message: "no app elements"}
}

func TestRechecker_OverlappingPassIsSkipped(t *testing.T) {
	chk := &blockingChecker{started: make(chan struct{}, 1), release: make(chan struct{})}
	rstore := &fakeResults{}
	rc := NewRechecker(zap.NewNop(), targets("slow"), rstore, chk, time.Second, time.Second, 1)

	done := make(chan Pass)
	go func() { done <- rc.RunOnce(context.Background()) }()
	<-chk.started

	if p := rc.RunOnce(context.Background()); !p.Skipped {
		t.Fatalf("want second pass skipped, got %+v", p)
	}
	close(chk.release)

	first := <-done
	if first.Skipped || first.Failed != 1 {
		t.Fatalf("unexpected first pass: %+v", first)
	}
	if p := rc.RunOnce(context.Background()); p.Skipped {
		t.Fatalf("pass after completion should run")
	}
}

func TestRechecker_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rstore := &fakeResults{}
	rc := NewRechecker(zap.NewNop(), targets("a", "b"), rstore, &degradedChecker{}, time.Second, time.Second, 1)

	pass := rc.RunOnce(ctx)
	if pass.Checked != 0 || rstore.n != 0 {
		t.Fatalf("cancelled pass should not fan out, got %+v", pass)
	}
}
