package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/probe"
	"github.com/hamed0406/pagecheck/internal/repo"
)

// Rechecker periodically smoke-checks every stored target.
type Rechecker struct {
	Logger      *zap.Logger
	Targets     repo.TargetStore
	Results     repo.ResultStore
	Checker     probe.Checker
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int

	running atomic.Bool
}

func NewRechecker(
	logger *zap.Logger,
	ts repo.TargetStore,
	rs repo.ResultStore,
	checker probe.Checker,
	interval time.Duration,
	timeout time.Duration,
	concurrency int,
) *Rechecker {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Rechecker{
		Logger:      logger,
		Targets:     ts,
		Results:     rs,
		Checker:     checker,
		Interval:    interval,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Pass summarizes one RunOnce.
type Pass struct {
	Checked  int
	Success  int
	Degraded int
	Failed   int
	Skipped  bool // a previous pass was still running
	Elapsed  time.Duration
}

func (p *Pass) count(o domain.Outcome) {
	p.Checked++
	switch o {
	case domain.OutcomeSuccess:
		p.Success++
	case domain.OutcomeDegraded:
		p.Degraded++
	default:
		p.Failed++
	}
}

// Run does an immediate pass and then one per tick until ctx is done. A
// zero Interval disables it.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce checks every target with at most Concurrency checks in flight and
// waits for them. Browser checks can outlast the interval, so a call made
// while another pass is running returns at once with Skipped set.
func (r *Rechecker) RunOnce(ctx context.Context) Pass {
	if !r.running.CompareAndSwap(false, true) {
		r.Logger.Warn("rechecker_pass_skipped")
		return Pass{Skipped: true}
	}
	defer r.running.Store(false)

	start := time.Now()
	var pass Pass
	ts, err := r.Targets.List(ctx)
	if err != nil {
		r.Logger.Warn("rechecker_list_error", zap.Error(err))
		return pass
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.Concurrency)
	)
loop:
	for _, tgt := range ts {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(t domain.Target) {
			defer wg.Done()
			defer func() { <-sem }()
			o, ok := r.check(ctx, t)
			if !ok {
				return
			}
			mu.Lock()
			pass.count(o)
			mu.Unlock()
		}(*tgt)
	}
	wg.Wait()

	pass.Elapsed = time.Since(start)
	if pass.Checked > 0 {
		r.Logger.Info("rechecker_pass",
			zap.Int("checked", pass.Checked),
			zap.Int("success", pass.Success),
			zap.Int("degraded", pass.Degraded),
			zap.Int("failed", pass.Failed),
			zap.Duration("elapsed", pass.Elapsed),
		)
	}
	return pass
}

// check runs one bounded check and stores it. ok is false when the result
// could not be stored.
func (r *Rechecker) check(ctx context.Context, t domain.Target) (domain.Outcome, bool) {
	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	out := r.Checker.Check(cctx, t)

	log := r.Logger.With(zap.String("target_id", string(t.ID)), zap.String("url", t.URL))
	err := r.Results.Append(ctx, &domain.CheckResult{
		TargetID:   t.ID,
		Outcome:    out.Outcome,
		Message:    out.Message,
		Screenshot: out.Screenshot,
		LatencyMS:  out.LatencyMS,
		CheckedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Warn("rechecker_append_error", zap.Error(err))
		return out.Outcome, false
	}
	log.Debug("rechecker_checked",
		zap.String("outcome", string(out.Outcome)),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("message", out.Message),
	)
	return out.Outcome, true
}
