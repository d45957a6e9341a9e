package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	results []*domain.CheckResult
	alerts  map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		results: make([]*domain.CheckResult, 0, 128),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

// ---- TargetStore ----

func (m *Store) Add(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.targets {
		if existing.URL == t.URL {
			return repo.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	m.targets[t.ID] = &cp
	return nil
}

// List returns targets newest first.
func (m *Store) List(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Store) Get(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *Store) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.targets {
		if t.URL == url {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- ResultStore ----

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	cp := *r
	m.results = append(m.results, &cp)
	return nil
}

func (m *Store) LastByTarget(ctx context.Context, id domain.TargetID) (*domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *domain.CheckResult
	for _, r := range m.results {
		if r.TargetID == id && (last == nil || !r.CheckedAt.Before(last.CheckedAt)) {
			last = r
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (m *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[domain.TargetID]*domain.CheckResult)
	for _, r := range m.results {
		cur := latest[r.TargetID]
		if cur == nil || !r.CheckedAt.Before(cur.CheckedAt) {
			latest[r.TargetID] = r
		}
	}

	out := make([]repo.LatestRow, 0, len(latest))
	for tid, r := range latest {
		var lat *float64
		if r.LatencyMS != 0 {
			v := r.LatencyMS
			lat = &v
		}
		url := ""
		if t := m.targets[tid]; t != nil {
			url = t.URL
		}
		out = append(out, repo.LatestRow{
			TargetID:   string(tid),
			URL:        url,
			Outcome:    r.Outcome,
			Message:    r.Message,
			Screenshot: r.Screenshot,
			LatencyMS:  lat,
			CheckedAt:  r.CheckedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out, nil
}

// ---- AlertStore ----

func (m *Store) GetAlert(ctx context.Context, targetID string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[targetID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) SetAlert(ctx context.Context, rec repo.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.LastSentAt != nil {
		ts := *rec.LastSentAt
		rec.LastSentAt = &ts
	}
	m.alerts[rec.TargetID] = rec
	return nil
}
