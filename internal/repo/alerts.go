package repo

import (
	"context"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// AlertRecord is the last outcome the alerter acted on for a target and the
// last alert it sent about it. LastAlert is the kind of that alert (success
// for a recovery), empty until one is sent.
type AlertRecord struct {
	TargetID    string
	LastOutcome domain.Outcome
	LastAlert   domain.Outcome
	LastSentAt  *time.Time
}

// Up treats degraded as up.
func (r AlertRecord) Up() bool { return r.LastOutcome != domain.OutcomeFailure }

type AlertStore interface {
	// GetAlert returns nil, nil if there's no record yet.
	GetAlert(ctx context.Context, targetID string) (*AlertRecord, error)
	// SetAlert upserts rec keyed by rec.TargetID.
	SetAlert(ctx context.Context, rec AlertRecord) error
}
