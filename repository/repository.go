// Package repository defines durable storage for session snapshots.
package repository

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when no snapshot exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists serialized session snapshots.
type SessionRepository interface {
	Save(ctx context.Context, sessionID string, snapshot []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}
