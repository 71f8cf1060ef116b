// Package memory provides an in-memory leave.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu      sync.RWMutex
	periods map[leave.UserID][]leave.Period
	quotas  map[leave.UserID]leave.Quota
}

var _ leave.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		periods: make(map[leave.UserID][]leave.Period),
		quotas:  make(map[leave.UserID]leave.Quota),
	}
}

// ListPeriods returns a copy of the user's periods ordered by start date.
func (m *Store) ListPeriods(_ context.Context, userID leave.UserID) ([]leave.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]leave.Period, len(m.periods[userID]))
	copy(result, m.periods[userID])
	return result, nil
}

// InsertPeriod keeps the list sorted by start date; equal starts keep insertion order.
func (m *Store) InsertPeriod(_ context.Context, userID leave.UserID, p leave.Period) (leave.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	periods := m.periods[userID]
	i := sort.Search(len(periods), func(i int) bool {
		return periods[i].Start.After(p.Start)
	})

	periods = append(periods, leave.Period{})
	copy(periods[i+1:], periods[i:])
	periods[i] = p
	m.periods[userID] = periods
	return p, nil
}

func (m *Store) DeletePeriod(_ context.Context, userID leave.UserID, id leave.PeriodID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	periods := m.periods[userID]
	for i, p := range periods {
		if p.ID == id {
			m.periods[userID] = append(periods[:i:i], periods[i+1:]...)
			return nil
		}
	}
	return leave.ErrPeriodNotFound
}

func (m *Store) GetQuota(_ context.Context, userID leave.UserID) (*leave.Quota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotas[userID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (m *Store) UpsertQuota(_ context.Context, userID leave.UserID, q leave.Quota) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quotas[userID] = q
	return nil
}

// Reset drops every record.
func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.periods = make(map[leave.UserID][]leave.Period)
	m.quotas = make(map[leave.UserID]leave.Quota)
	return nil
}
