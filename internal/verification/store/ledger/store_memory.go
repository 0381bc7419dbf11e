package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps attempt states in a mutex-guarded map. It is atomic only
// within one process; use the Postgres or Redis store when handlers scale out.
type InMemoryStore struct {
	mu     sync.Mutex
	states map[models.Pair]*models.AttemptState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[models.Pair]*models.AttemptState)}
}

func (s *InMemoryStore) Get(_ context.Context, pair models.Pair) (*models.AttemptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[pair]
	if !ok {
		return nil, nil
	}
	return copyState(state), nil
}

func (s *InMemoryStore) IncrementFailure(_ context.Context, pair models.Pair, maxAttempts int, now time.Time) (*models.FailureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[pair]
	if !ok {
		state = &models.AttemptState{RequesterID: pair.RequesterID, SubjectID: pair.SubjectID}
		s.states[pair] = state
	}
	if state.Blocked {
		return &models.FailureResult{State: copyState(state), AlreadyBlocked: true}, nil
	}

	state.ConsecutiveFailures++
	state.LastAttemptAt = now
	justBlocked := false
	if state.ConsecutiveFailures >= maxAttempts {
		state.Blocked = true
		blockedAt := now
		state.BlockedAt = &blockedAt
		justBlocked = true
	}
	return &models.FailureResult{State: copyState(state), JustBlocked: justBlocked}, nil
}

func (s *InMemoryStore) Reset(_ context.Context, pair models.Pair, now time.Time) (*models.ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[pair]
	if !ok {
		return &models.ResetResult{}, nil
	}
	if state.Blocked {
		return &models.ResetResult{Blocked: true}, nil
	}
	state.ConsecutiveFailures = 0
	state.BlockedAt = nil
	state.LastAttemptAt = now
	return &models.ResetResult{}, nil
}

func (s *InMemoryStore) Clear(_ context.Context, pair models.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[pair]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.states, pair)
	return nil
}

// ListBlocked returns blocked pairs, most recently blocked first.
func (s *InMemoryStore) ListBlocked(_ context.Context, limit int) ([]*models.AttemptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blocked []*models.AttemptState
	for _, state := range s.states {
		if state.Blocked {
			blocked = append(blocked, copyState(state))
		}
	}
	sortBlocked(blocked)
	if limit > 0 && len(blocked) > limit {
		blocked = blocked[:limit]
	}
	return blocked, nil
}

func sortBlocked(states []*models.AttemptState) {
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i].BlockedAt, states[j].BlockedAt
		if a == nil || b == nil || a.Equal(*b) {
			return states[i].Pair().Key() < states[j].Pair().Key()
		}
		return a.After(*b)
	})
}

func copyState(state *models.AttemptState) *models.AttemptState {
	c := *state
	if state.BlockedAt != nil {
		t := *state.BlockedAt
		c.BlockedAt = &t
	}
	return &c
}
