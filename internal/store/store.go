// Package store persists one durable record per match so a coordinator can
// rehydrate its authoritative state after a process restart.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no record exists for the match.
var ErrNotFound = errors.New("session record not found")

// Store is the durable key-value persistence boundary. The payload is the
// coordinator's serialized session record; the store never inspects it.
type Store interface {
	Load(ctx context.Context, matchID string) ([]byte, error)
	Save(ctx context.Context, matchID string, payload []byte) error
	Delete(ctx context.Context, matchID string) error
	Close() error
}
