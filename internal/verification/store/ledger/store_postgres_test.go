package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/sentinel"
)

var stateColumns = []string{"requester_id", "subject_id", "consecutive_failures", "blocked", "blocked_at", "last_attempt_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_IncrementFailure(t *testing.T) {
	pair := models.Pair{RequesterID: "verifier-1", SubjectID: "EMP006"}
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("ordinary failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO attempt_states AS t .* ON CONFLICT \(requester_id, subject_id\) DO UPDATE .* WHERE NOT t.blocked RETURNING`).
			WithArgs(pair.RequesterID, pair.SubjectID, 3, now).
			WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(pair.RequesterID, pair.SubjectID, 2, false, nil, now))

		res, err := store.IncrementFailure(context.Background(), pair, 3, now)
		require.NoError(t, err)
		assert.Equal(t, 2, res.State.ConsecutiveFailures)
		assert.False(t, res.JustBlocked)
		assert.False(t, res.AlreadyBlocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returned blocked row is the transition", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO attempt_states`).
			WithArgs(pair.RequesterID, pair.SubjectID, 3, now).
			WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(pair.RequesterID, pair.SubjectID, 3, true, now, now))

		res, err := store.IncrementFailure(context.Background(), pair, 3, now)
		require.NoError(t, err)
		assert.True(t, res.JustBlocked)
		require.NotNil(t, res.State.BlockedAt)
		assert.Equal(t, now, *res.State.BlockedAt)
	})

	t.Run("no row means already blocked", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO attempt_states`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT .* FROM attempt_states WHERE requester_id = \$1 AND subject_id = \$2`).
			WithArgs(pair.RequesterID, pair.SubjectID).
			WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(pair.RequesterID, pair.SubjectID, 3, true, now, now))

		res, err := store.IncrementFailure(context.Background(), pair, 3, now)
		require.NoError(t, err)
		assert.True(t, res.AlreadyBlocked)
		assert.False(t, res.JustBlocked)
		assert.Equal(t, 3, res.State.ConsecutiveFailures)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO attempt_states`).WillReturnError(errors.New("connection refused"))

		_, err := store.IncrementFailure(context.Background(), pair, 3, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "increment attempt failure")
	})
}

func TestPostgresStore_Reset(t *testing.T) {
	pair := models.Pair{RequesterID: "verifier-1", SubjectID: "EMP006"}
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("applied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE attempt_states SET consecutive_failures = 0.* AND NOT blocked`).
			WithArgs(pair.RequesterID, pair.SubjectID, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		res, err := store.Reset(context.Background(), pair, now)
		require.NoError(t, err)
		assert.False(t, res.Blocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked pair is reported", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE attempt_states`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM attempt_states`).
			WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(pair.RequesterID, pair.SubjectID, 3, true, now, now))

		res, err := store.Reset(context.Background(), pair, now)
		require.NoError(t, err)
		assert.True(t, res.Blocked)
	})

	t.Run("missing pair is a no-op", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE attempt_states`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM attempt_states`).WillReturnError(sql.ErrNoRows)

		res, err := store.Reset(context.Background(), pair, now)
		require.NoError(t, err)
		assert.False(t, res.Blocked)
	})
}

func TestPostgresStore_Clear(t *testing.T) {
	pair := models.Pair{RequesterID: "verifier-1", SubjectID: "EMP006"}

	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM attempt_states`).WithArgs(pair.RequesterID, pair.SubjectID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM attempt_states`).WithArgs(pair.RequesterID, pair.SubjectID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Clear(context.Background(), pair))
	assert.ErrorIs(t, store.Clear(context.Background(), pair), sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBlocked(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM attempt_states WHERE blocked ORDER BY blocked_at DESC`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow("v2", "EMP002", 3, true, now.Add(time.Minute), now).
			AddRow("v1", "EMP001", 3, true, now, now))

	states, err := store.ListBlocked(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "v2", states[0].RequesterID)
	assert.True(t, states[1].Blocked)
}
