package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mgcnb666/Predictive-AI-agent/repository"
)

const sessionKeyPrefix = "session:"

// SessionRepository is the Redis-backed snapshot store.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository wraps a Redis client.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Save writes a snapshot document, replacing any prior one.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := r.client.Set(ctx, sessionKey(sessionID), snapshot, 0).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads a snapshot document; a missing key maps to
// repository.ErrSessionNotFound.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return data, nil
}

// Delete removes a stored snapshot; deleting a missing one is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the IDs of all stored sessions.
func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), sessionKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return ids, nil
}
