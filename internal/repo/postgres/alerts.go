package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/repo"
)

func (s *Store) GetAlert(ctx context.Context, targetID string) (*repo.AlertRecord, error) {
	const q = `SELECT last_outcome, last_alert, last_sent_at FROM alerts WHERE target_id = $1`
	rec := repo.AlertRecord{TargetID: targetID}
	var outcome, alert string
	if err := s.pool.QueryRow(ctx, q, targetID).Scan(&outcome, &alert, &rec.LastSentAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert %s: %w", targetID, err)
	}
	rec.LastOutcome = domain.Outcome(outcome)
	rec.LastAlert = domain.Outcome(alert)
	return &rec, nil
}

func (s *Store) SetAlert(ctx context.Context, rec repo.AlertRecord) error {
	const q = `
		INSERT INTO alerts (target_id, last_outcome, last_alert, last_sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (target_id)
		DO UPDATE SET last_outcome = EXCLUDED.last_outcome,
		              last_alert   = EXCLUDED.last_alert,
		              last_sent_at = EXCLUDED.last_sent_at
	`
	_, err := s.pool.Exec(ctx, q, rec.TargetID, string(rec.LastOutcome), string(rec.LastAlert), rec.LastSentAt)
	if err != nil {
		return fmt.Errorf("set alert %s: %w", rec.TargetID, err)
	}
	return nil
}
