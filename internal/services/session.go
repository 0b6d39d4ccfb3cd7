package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for the set of a user's sessions
	UserSessionKeyPrefix = "user_sessions:"
)

// SessionStore tracks issued access tokens by their token id so they can be revoked before
// they expire. Without Redis every signed token is accepted until expiry.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) enabled() bool {
	return s != nil && s.client != nil
}

// CreateSession records sessionID for userID until ttl elapses.
func (s *SessionStore) CreateSession(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	userKey := UserSessionKeyPrefix + userID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+sessionID, userID, ttl)
		pipe.SAdd(ctx, userKey, sessionID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

// ValidateSession reports whether sessionID is still live and which user owns it.
func (s *SessionStore) ValidateSession(ctx context.Context, sessionID string) (string, bool, error) {
	if !s.enabled() {
		return "", true, nil
	}
	if sessionID == "" {
		return "", false, nil
	}
	userID, err := s.client.Get(ctx, SessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// InvalidateSession revokes one session (logout).
func (s *SessionStore) InvalidateSession(ctx context.Context, sessionID string) error {
	if !s.enabled() || sessionID == "" {
		return nil
	}
	userID, err := s.client.Get(ctx, SessionKeyPrefix+sessionID).Result()
	if err == nil && userID != "" {
		s.client.SRem(ctx, UserSessionKeyPrefix+userID, sessionID)
	}
	return s.client.Del(ctx, SessionKeyPrefix+sessionID).Err()
}

// InvalidateUserSessions revokes every session of a user (password change, account deletion).
func (s *SessionStore) InvalidateUserSessions(ctx context.Context, userID string) error {
	if !s.enabled() {
		return nil
	}
	userKey := UserSessionKeyPrefix + userID
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, SessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}
