package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore maps opaque session ids to the claims of a logged-in user.
// The id travels in a cookie; the claims never leave the server.
type SessionStore interface {
	Create(ctx context.Context, principal Principal) (string, error)
	Get(ctx context.Context, sessionID string) (Principal, error)
	Destroy(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "session:"

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a session store backed by Redis with the
// given session lifetime
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) Create(ctx context.Context, principal Principal) (string, error) {
	sessionID := uuid.NewString()

	payload, err := json.Marshal(principal)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (Principal, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return Principal{}, ErrSessionNotFound
	}
	if err != nil {
		return Principal{}, err
	}

	var principal Principal
	if err := json.Unmarshal(payload, &principal); err != nil {
		return Principal{}, err
	}
	return principal, nil
}

func (s *redisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

type memorySession struct {
	principal Principal
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
}

// NewMemorySessionStore creates an in-process session store. Used by tests
// and as the fallback when Redis is unreachable at startup.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

func (s *memorySessionStore) Create(_ context.Context, principal Principal) (string, error) {
	sessionID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	s.sessions[sessionID] = memorySession{
		principal: principal,
		expiresAt: time.Now().Add(s.ttl),
	}
	return sessionID, nil
}

// purgeExpiredLocked drops expired sessions. Redis expires keys on its own;
// here abandoned sessions would otherwise pile up until process exit, so
// every Create sweeps the map. Callers must hold s.mu.
func (s *memorySessionStore) purgeExpiredLocked() {
	now := time.Now()
	for id, session := range s.sessions {
		if now.After(session.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return Principal{}, ErrSessionNotFound
	}
	if time.Now().After(session.expiresAt) {
		delete(s.sessions, sessionID)
		return Principal{}, ErrSessionNotFound
	}
	return session.principal, nil
}

func (s *memorySessionStore) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
