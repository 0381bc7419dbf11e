package store

import (
	"context"
	"sort"
	"sync"

	"empverify/internal/employee/models"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps employee records in a map. Used in dev mode and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.Record)}
}

func (s *InMemoryStore) FindByID(_ context.Context, employeeID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.EmployeeID] = *record
	return nil
}

// List returns records ordered by employee ID.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		r := rec
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}
