// Package redis stores the board under namespaced Redis keys.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/taskboard/internal/domain"
	"github.com/redis/go-redis/v9"
)

// maxEvents caps the change-event list length.
const maxEvents = 1000

// Store provides namespaced Redis operations for the board.
// It is safe for concurrent use.
type Store struct {
	rdb       *redis.Client
	namespace string
}

// NewStore creates a store that prefixes every key with namespace.
func NewStore(opts *redis.Options, namespace string) (*Store, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if opts == nil {
		return nil, fmt.Errorf("redis options are required")
	}
	return &Store{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) valueKey(key string) string {
	return s.namespace + ":kv:" + key
}

func (s *Store) eventsKey() string {
	return s.namespace + ":events"
}

func (s *Store) eventSeqKey() string {
	return s.namespace + ":events:seq"
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, s.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %q from Redis: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := s.rdb.Set(ctx, s.valueKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q in Redis: %w", key, err)
	}
	return nil
}

// eventRecord is the JSON shape of one entry in the events list.
type eventRecord struct {
	ID         int64     `json:"id"`
	TaskID     string    `json:"task_id"`
	ColumnID   string    `json:"column_id"`
	Operation  string    `json:"operation"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AppendChangeEvent pushes event onto the head of the events list and trims it.
func (s *Store) AppendChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	id, err := s.rdb.Incr(ctx, s.eventSeqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate event id: %w", err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	payload, err := json.Marshal(eventRecord{
		ID:         id,
		TaskID:     event.TaskID,
		ColumnID:   event.ColumnID,
		Operation:  string(event.Operation),
		Title:      event.Title,
		OccurredAt: occurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.eventsKey(), payload)
		pipe.LTrim(ctx, s.eventsKey(), 0, maxEvents-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append change event: %w", err)
	}
	return nil
}

// ListChangeEvents returns up to limit events, newest first.
func (s *Store) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.rdb.LRange(ctx, s.eventsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read change events: %w", err)
	}
	out := make([]domain.ChangeEvent, 0, len(raw))
	for _, item := range raw {
		var rec eventRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode change event: %w", err)
		}
		out = append(out, domain.ChangeEvent{
			ID:         rec.ID,
			TaskID:     rec.TaskID,
			ColumnID:   rec.ColumnID,
			Operation:  domain.ChangeOperation(rec.Operation),
			Title:      rec.Title,
			OccurredAt: rec.OccurredAt.UTC(),
		})
	}
	return out, nil
}
