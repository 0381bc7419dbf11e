package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	pair  models.Pair
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.pair = models.Pair{RequesterID: "verifier-1", SubjectID: "EMP006"}
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing pair returns nil without error", func() {
		state, err := s.store.Get(ctx, models.Pair{RequesterID: "nobody", SubjectID: "EMP000"})
		s.NoError(err)
		s.Nil(state)
	})

	s.Run("returned state is a copy", func() {
		_, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now)
		s.Require().NoError(err)

		state, err := s.store.Get(ctx, s.pair)
		s.Require().NoError(err)
		state.ConsecutiveFailures = 99

		again, err := s.store.Get(ctx, s.pair)
		s.Require().NoError(err)
		s.Equal(1, again.ConsecutiveFailures)
	})
}

func (s *InMemoryStoreSuite) TestIncrementFailure() {
	ctx := context.Background()

	s.Run("counts up and blocks exactly once at the threshold", func() {
		r1, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now)
		s.Require().NoError(err)
		s.Equal(1, r1.State.ConsecutiveFailures)
		s.False(r1.JustBlocked)

		r2, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now.Add(time.Second))
		s.Require().NoError(err)
		s.Equal(2, r2.State.ConsecutiveFailures)
		s.False(r2.JustBlocked)

		blockTime := s.now.Add(2 * time.Second)
		r3, err := s.store.IncrementFailure(ctx, s.pair, 3, blockTime)
		s.Require().NoError(err)
		s.True(r3.JustBlocked)
		s.True(r3.State.Blocked)
		s.Require().NotNil(r3.State.BlockedAt)
		s.Equal(blockTime, *r3.State.BlockedAt)

		r4, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now.Add(3*time.Second))
		s.Require().NoError(err)
		s.True(r4.AlreadyBlocked)
		s.False(r4.JustBlocked)
		s.Equal(3, r4.State.ConsecutiveFailures, "blocked counter does not move")
		s.Equal(blockTime, *r4.State.BlockedAt, "blocked_at is set once")
	})
}

func (s *InMemoryStoreSuite) TestReset() {
	ctx := context.Background()

	s.Run("reset restarts counting from one", func() {
		_, _ = s.store.IncrementFailure(ctx, s.pair, 3, s.now)
		_, _ = s.store.IncrementFailure(ctx, s.pair, 3, s.now)

		res, err := s.store.Reset(ctx, s.pair, s.now)
		s.Require().NoError(err)
		s.False(res.Blocked)

		r, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now)
		s.Require().NoError(err)
		s.Equal(1, r.State.ConsecutiveFailures)
	})

	s.Run("reset of unknown pair creates nothing", func() {
		other := models.Pair{RequesterID: "verifier-2", SubjectID: "EMP001"}
		res, err := s.store.Reset(ctx, other, s.now)
		s.Require().NoError(err)
		s.False(res.Blocked)

		state, err := s.store.Get(ctx, other)
		s.NoError(err)
		s.Nil(state)
	})

	s.Run("blocked pair is not reset", func() {
		blocked := models.Pair{RequesterID: "verifier-3", SubjectID: "EMP002"}
		_, _ = s.store.IncrementFailure(ctx, blocked, 1, s.now)

		res, err := s.store.Reset(ctx, blocked, s.now)
		s.Require().NoError(err)
		s.True(res.Blocked)

		state, _ := s.store.Get(ctx, blocked)
		s.True(state.Blocked)
	})
}

func (s *InMemoryStoreSuite) TestClearAndListBlocked() {
	ctx := context.Background()

	a := models.Pair{RequesterID: "v1", SubjectID: "EMP001"}
	b := models.Pair{RequesterID: "v2", SubjectID: "EMP002"}
	_, _ = s.store.IncrementFailure(ctx, a, 1, s.now)
	_, _ = s.store.IncrementFailure(ctx, b, 1, s.now.Add(time.Minute))
	_, _ = s.store.IncrementFailure(ctx, s.pair, 3, s.now)

	blocked, err := s.store.ListBlocked(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(blocked, 2)
	s.Equal("v2", blocked[0].RequesterID, "most recently blocked first")

	limited, err := s.store.ListBlocked(ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	s.Require().NoError(s.store.Clear(ctx, b))
	s.ErrorIs(s.store.Clear(ctx, b), sentinel.ErrNotFound)

	state, err := s.store.Get(ctx, b)
	s.NoError(err)
	s.Nil(state)
}

func (s *InMemoryStoreSuite) TestConcurrentFailuresBlockOnce() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var justBlocked, alreadyBlocked atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.store.IncrementFailure(ctx, s.pair, 3, s.now)
			s.NoError(err)
			if r.JustBlocked {
				justBlocked.Add(1)
			}
			if r.AlreadyBlocked {
				alreadyBlocked.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), justBlocked.Load())
	s.Equal(int32(goroutines-3), alreadyBlocked.Load())

	state, err := s.store.Get(ctx, s.pair)
	s.Require().NoError(err)
	s.Equal(3, state.ConsecutiveFailures)
}
