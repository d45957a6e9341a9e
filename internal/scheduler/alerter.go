package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/notify"
	"github.com/hamed0406/pagecheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	AlertOnDegraded bool // success -> degraded transitions
	Cooldown        time.Duration
	PollInterval    time.Duration
}

const (
	titleFailed    = "🔴 Page FAILED"
	titleDegraded  = "🟡 Page DEGRADED"
	titleRecovered = "🟢 Page RECOVERED"
)

// alertKind is what AlertRecord.LastAlert stores for each alert.
var alertKind = map[string]domain.Outcome{
	titleFailed:    domain.OutcomeFailure,
	titleDegraded:  domain.OutcomeDegraded,
	titleRecovered: domain.OutcomeSuccess,
}

// Alerter notifies when a page starts failing and, optionally, when it
// recovers or degrades. Degraded pages count as up.
type Alerter struct {
	log      *zap.Logger
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
}

func NewAlerter(
	log *zap.Logger,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		log:      log,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.scan(ctx)
		}
	}
}

func (a *Alerter) scan(ctx context.Context) {
	if err := a.scanOnce(ctx); err != nil {
		a.log.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rows, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, r := range rows {
		rec, err := a.alertDB.GetAlert(ctx, r.TargetID)
		if err != nil {
			a.log.Warn("alerter_get_error", zap.String("target_id", r.TargetID), zap.Error(err))
			continue
		}
		if rec != nil && rec.LastOutcome == r.Outcome {
			continue
		}

		// keep the previous alert so flapping stays inside the cooldown
		next := repo.AlertRecord{TargetID: r.TargetID, LastOutcome: r.Outcome}
		if rec != nil {
			next.LastAlert, next.LastSentAt = rec.LastAlert, rec.LastSentAt
		}

		if title := a.transition(rec, r, now); title != "" {
			if err := a.notifier.Send(ctx, title, alertText(r)); err != nil {
				a.log.Warn("alert_send_error", zap.String("target_id", r.TargetID), zap.Error(err))
			} else {
				a.log.Info("alert_sent",
					zap.String("target_id", r.TargetID),
					zap.String("outcome", string(r.Outcome)),
				)
			}
			sent := now
			next.LastAlert, next.LastSentAt = alertKind[title], &sent
		}
		if err := a.alertDB.SetAlert(ctx, next); err != nil {
			a.log.Warn("alerter_set_error", zap.String("target_id", r.TargetID), zap.Error(err))
		}
	}
	return nil
}

// transition returns the alert title for moving from rec to r, or "" when
// the change is recorded silently. The first observation of a healthy page
// never alerts. A failure alert ignores a cooldown started by a degraded one.
func (a *Alerter) transition(rec *repo.AlertRecord, r repo.LatestRow, now time.Time) string {
	switch {
	case !r.Up():
		if a.cooling(rec, now) && rec.LastAlert != domain.OutcomeDegraded {
			return ""
		}
		return titleFailed
	case rec == nil:
		return ""
	case !rec.Up():
		if a.cfg.AlertOnRecovery {
			return titleRecovered
		}
	case r.Outcome == domain.OutcomeDegraded && a.cfg.AlertOnDegraded:
		if a.cooling(rec, now) {
			return ""
		}
		return titleDegraded
	}
	return ""
}

// cooling reports whether the last alert for rec is inside the cooldown.
func (a *Alerter) cooling(rec *repo.AlertRecord, now time.Time) bool {
	return rec != nil && rec.LastSentAt != nil && now.Sub(*rec.LastSentAt) < a.cfg.Cooldown
}

func alertText(r repo.LatestRow) string {
	latency := "n/a"
	if r.LatencyMS != nil {
		latency = fmt.Sprintf("%.0f ms", *r.LatencyMS)
	}
	shot := r.Screenshot
	if shot == "" {
		shot = "none"
	}
	return fmt.Sprintf(
		"URL: %s\nOutcome: %s\nLatency: %s\nMessage: %s\nScreenshot: %s\nChecked: %s",
		r.URL, r.Outcome, latency, r.Message, shot, r.CheckedAt.Format(time.RFC3339),
	)
}
