package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

var ErrDuplicate = errors.New("target already exists")

// Ports (interfaces); memory and postgres implement them.
type TargetStore interface {
	Add(ctx context.Context, t *domain.Target) error
	List(ctx context.Context) ([]*domain.Target, error)
	// Get and GetByURL return nil, nil when nothing matches.
	Get(ctx context.Context, id domain.TargetID) (*domain.Target, error)
	GetByURL(ctx context.Context, url string) (*domain.Target, error)
}

type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	Latest(ctx context.Context) ([]LatestRow, error)
	LastByTarget(ctx context.Context, id domain.TargetID) (*domain.CheckResult, error)
}

// LatestRow is the newest result per target, joined with its URL.
type LatestRow struct {
	TargetID   string         `json:"target_id"`
	URL        string         `json:"url"`
	Outcome    domain.Outcome `json:"outcome"`
	Message    string         `json:"message,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
	LatencyMS  *float64       `json:"latency_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
}

func (r LatestRow) Up() bool {
	return domain.CheckResult{Outcome: r.Outcome}.Up()
}
