package store

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/kbukum/transcribot/errors"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	accounts map[int64]Account
	jobs     map[int64]Job
	results  map[string]CachedResult
	nextJob  int64
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[int64]Account),
		jobs:     make(map[int64]Job),
		results:  make(map[string]CachedResult),
		now:      time.Now,
	}
}

func (m *Memory) UpsertAccount(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	a := *account
	if existing, ok := m.accounts[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.accounts[a.ID] = a
	*account = a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id int64) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperrors.NotFound("account", strconv.FormatInt(id, 10))
	}
	return &a, nil
}

func (m *Memory) ListAccounts(_ context.Context, offset, limit int) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		all = append(all, a)
	}
	slices.SortFunc(all, func(a, b Account) int { return cmp.Compare(a.ID, b.ID) })
	return page(all, offset, limit), nil
}

func (m *Memory) CountAccounts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.accounts)), nil
}

func (m *Memory) EnqueueJob(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextJob++
	job.ID = m.nextJob
	if job.CreatedAt.IsZero() {
		job.CreatedAt = m.now()
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) PendingJobs(context.Context) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	slices.SortFunc(jobs, func(a, b Job) int { return cmp.Compare(a.ID, b.ID) })
	return jobs, nil
}

func (m *Memory) DeleteJob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *Memory) CountJobs(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.jobs)), nil
}

func (m *Memory) FindResult(_ context.Context, fingerprint string) (*CachedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[fingerprint]
	if !ok {
		return nil, apperrors.NotFound("cached result", fingerprint)
	}
	return &r, nil
}

func (m *Memory) SaveResult(_ context.Context, result *CachedResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[result.Fingerprint]; ok {
		return nil
	}
	r := *result
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.results[r.Fingerprint] = r
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
