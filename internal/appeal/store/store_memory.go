package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"empverify/internal/appeal/models"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore enforces the one-pending-appeal-per-pair rule under its mutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	appeals map[uuid.UUID]*models.Appeal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{appeals: make(map[uuid.UUID]*models.Appeal)}
}

func (s *InMemoryStore) Create(_ context.Context, appeal *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appeals {
		if a.IsPending() && a.RequesterID == appeal.RequesterID && a.SubjectID == appeal.SubjectID {
			return sentinel.ErrConflict
		}
	}
	s.appeals[appeal.ID] = clone(appeal)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appeals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// UpdateResolution stores a resolved appeal only if it is still pending.
func (s *InMemoryStore) UpdateResolution(_ context.Context, appeal *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.appeals[appeal.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !current.IsPending() {
		return sentinel.ErrConflict
	}
	s.appeals[appeal.ID] = clone(appeal)
	return nil
}

func (s *InMemoryStore) ListByRequester(_ context.Context, requesterID string) ([]*models.Appeal, error) {
	return s.list(func(a *models.Appeal) bool { return a.RequesterID == requesterID }, true), nil
}

// ListByStatus returns appeals oldest first; an empty status lists everything.
func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Appeal, error) {
	return s.list(func(a *models.Appeal) bool { return status == "" || a.Status == status }, false), nil
}

func (s *InMemoryStore) list(keep func(*models.Appeal) bool, newestFirst bool) []*models.Appeal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Appeal, 0)
	for _, a := range s.appeals {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func clone(a *models.Appeal) *models.Appeal {
	c := *a
	c.ClaimedFields = maps.Clone(a.ClaimedFields)
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
