package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
)

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart, which matches the single-instance deployment.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uuid.UUID]models.Session),
	}
}

// Save stores the session until its expiry.
func (s *MemorySessionStore) Save(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

// Get returns the session with the given ID, or nil when it is unknown or
// expired. Expired sessions are removed on access.
func (s *MemorySessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		return nil, nil
	}

	return &session, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *MemorySessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// RedisSessionStore keeps sessions in Redis so multiple instances can share
// them. Expiry is enforced with a key TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store backed by the given client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Save stores the session with a TTL matching its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.SessionID)
	}

	key := sessionKey(session.SessionID)
	err = s.client.Set(ctx, key, data, ttl).Err()

	logger.Log.Infow("session save",
		"key", key,
		"ttl", ttl,
		"error", err,
	)

	return err
}

// Get returns the session with the given ID, or nil when it is unknown.
// Redis drops expired keys itself.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	key := sessionKey(sessionID)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("session get failed", "key", key, "error", err)
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		logger.Log.Errorw("session decode failed", "key", key, "error", err)
		return nil, err
	}

	return &session, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	key := sessionKey(sessionID)
	err := s.client.Del(ctx, key).Err()

	logger.Log.Infow("session delete",
		"key", key,
		"error", err,
	)

	return err
}
