package repositories

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)
	require.NoError(t, RunMigrations(context.Background(), db.DB))

	return db
}

func TestUserRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	reader := NewUserReadRepository(db)
	writer := NewUserWriteRepository(db)

	t.Run("get unknown user returns nil", func(t *testing.T) {
		user, err := reader.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("save and read back", func(t *testing.T) {
		require.NoError(t, writer.Save(ctx, "alice", "digest1", "alice@example.com"))

		user, err := reader.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "digest1", user.PasswordHash)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEmpty(t, user.UserID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := writer.Save(ctx, "alice", "digest2", "")
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := reader.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = reader.Exists(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("count", func(t *testing.T) {
		require.NoError(t, writer.Save(ctx, "bob", "digest3", ""))

		count, err := reader.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, RunMigrations(context.Background(), db.DB))
}
