package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeevko/cropguard/internal/models"
)

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()

	newSession := func(ttl time.Duration) models.Session {
		now := time.Now()
		return models.Session{
			SessionID: uuid.New(),
			Username:  "alice",
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
	}

	t.Run("save and get", func(t *testing.T) {
		store := NewMemorySessionStore()
		session := newSession(time.Hour)

		require.NoError(t, store.Save(ctx, session))

		got, err := store.Get(ctx, session.SessionID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.Username, got.Username)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := NewMemorySessionStore()

		got, err := store.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired session is dropped", func(t *testing.T) {
		store := NewMemorySessionStore()
		session := newSession(-time.Minute)

		require.NoError(t, store.Save(ctx, session))

		got, err := store.Get(ctx, session.SessionID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete revokes", func(t *testing.T) {
		store := NewMemorySessionStore()
		session := newSession(time.Hour)

		require.NoError(t, store.Save(ctx, session))
		require.NoError(t, store.Delete(ctx, session.SessionID))

		got, err := store.Get(ctx, session.SessionID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete unknown session is not an error", func(t *testing.T) {
		store := NewMemorySessionStore()
		assert.NoError(t, store.Delete(ctx, uuid.New()))
	})
}
