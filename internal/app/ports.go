package app

import (
	"context"

	"github.com/hylla/taskboard/internal/domain"
)

// DefaultStorageKey is the key that holds the serialized task sequence.
const DefaultStorageKey = "tasks"

// Store is a string-keyed blob store. The board keeps its whole task sequence under one key.
type Store interface {
	// Get reports ok=false when key has never been set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// ChangeLog is implemented by stores that keep an activity ledger.
type ChangeLog interface {
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	// ListChangeEvents returns newest events first.
	ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error)
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(context.Context) error
}

// Warner receives non-fatal problems. *log.Logger from charmbracelet/log satisfies it.
type Warner interface {
	Warn(msg any, keyvals ...any)
}
