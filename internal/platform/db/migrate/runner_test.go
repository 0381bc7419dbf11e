package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RejectsBadInput(t *testing.T) {
	err := Run("", Up)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	err = Run("postgres://localhost/db", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")
}

func TestPgxURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgxURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://h/db", pgxURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", pgxURL("pgx5://h/db"))
}
