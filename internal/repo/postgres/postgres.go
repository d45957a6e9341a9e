package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema is applied by Migrate; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS targets (
  id          TEXT PRIMARY KEY,
  url         TEXT NOT NULL UNIQUE,
  label       TEXT NOT NULL DEFAULT '',
  placeholder TEXT NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
  id          BIGSERIAL PRIMARY KEY,
  target_id   TEXT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
  outcome     TEXT NOT NULL CHECK (outcome IN ('success', 'degraded', 'failure')),
  message     TEXT NOT NULL DEFAULT '',
  screenshot  TEXT NOT NULL DEFAULT '',
  latency_ms  DOUBLE PRECISION NOT NULL,
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_target_time ON results (target_id, checked_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
  target_id    TEXT PRIMARY KEY,
  last_outcome TEXT NOT NULL CHECK (last_outcome IN ('success', 'degraded', 'failure')),
  last_alert   TEXT NOT NULL DEFAULT '' CHECK (last_alert IN ('', 'success', 'degraded', 'failure')),
  last_sent_at TIMESTAMPTZ NULL
);

ALTER TABLE alerts ADD COLUMN IF NOT EXISTS last_alert TEXT NOT NULL DEFAULT '';
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_applied")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- TargetStore ----

func (s *Store) Add(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (id, url, label, placeholder, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(t.ID), t.URL, t.Label, t.Placeholder, t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

const targetCols = `id, url, label, placeholder, created_at`

func scanTarget(row pgx.Row) (*domain.Target, error) {
	var (
		t  domain.Target
		id string
	)
	if err := row.Scan(&id, &t.URL, &t.Label, &t.Placeholder, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = domain.TargetID(id)
	return &t, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+targetCols+`
		   FROM targets
		  ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx, `SELECT `+targetCols+` FROM targets WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return t, nil
}

func (s *Store) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx, `SELECT `+targetCols+` FROM targets WHERE url = $1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target by url: %w", err)
	}
	return t, nil
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, cr *domain.CheckResult) error {
	if cr.CheckedAt.IsZero() {
		cr.CheckedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results
		   (target_id, outcome, message, screenshot, latency_ms, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6)`,
		string(cr.TargetID), string(cr.Outcome), cr.Message, cr.Screenshot, cr.LatencyMS, cr.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) LastByTarget(ctx context.Context, id domain.TargetID) (*domain.CheckResult, error) {
	var (
		r       domain.CheckResult
		outcome string
	)
	r.TargetID = id
	err := s.pool.QueryRow(ctx,
		`SELECT outcome, message, screenshot, latency_ms, checked_at
		   FROM results
		  WHERE target_id = $1
		  ORDER BY checked_at DESC
		  LIMIT 1`, string(id)).Scan(&outcome, &r.Message, &r.Screenshot, &r.LatencyMS, &r.CheckedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // no results yet
	}
	if err != nil {
		return nil, fmt.Errorf("last result: %w", err)
	}
	r.Outcome = domain.Outcome(outcome)
	return &r, nil
}

func (s *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (r.target_id)
       r.target_id,
       t.url,
       r.outcome,
       r.message,
       r.screenshot,
       r.latency_ms,
       r.checked_at
  FROM results r
  JOIN targets t ON t.id = r.target_id
 ORDER BY r.target_id, r.checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []repo.LatestRow
	for rows.Next() {
		var (
			row     repo.LatestRow
			outcome string
			latency float64
		)
		if err := rows.Scan(&row.TargetID, &row.URL, &outcome, &row.Message, &row.Screenshot, &latency, &row.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		row.Outcome = domain.Outcome(outcome)
		lat := latency
		row.LatencyMS = &lat
		out = append(out, row)
	}
	return out, rows.Err()
}
