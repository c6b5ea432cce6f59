package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hylla/taskboard/internal/app"
	"github.com/hylla/taskboard/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ app.Store     = (*Store)(nil)
	_ app.ChangeLog = (*Store)(nil)
	_ app.Pinger    = (*Store)(nil)
)

// setupTestStore creates a store connected to a miniredis instance
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewStore(&redis.Options{Addr: mr.Addr()}, "test-board")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.NotNil(t, store)
		assert.Equal(t, "test-board", store.namespace)
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewStore(&redis.Options{Addr: "localhost:6379"}, " ")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})
}

func TestGetSet(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "tasks", []byte(`[{"id":"t1"}]`)))
	value, ok, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"t1"}]`, string(value))

	raw, err := mr.Get("test-board:kv:tasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"t1"}]`, raw)

	assert.Error(t, store.Set(ctx, "", []byte("x")))
}

func TestChangeEvents(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.AppendChangeEvent(ctx, domain.ChangeEvent{
			TaskID:     fmt.Sprintf("t%d", i),
			ColumnID:   "todo",
			Operation:  domain.ChangeOperationCreate,
			Title:      "task",
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	events, err := store.ListChangeEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "t2", events[0].TaskID)
	assert.Equal(t, "t1", events[1].TaskID)
	assert.Equal(t, int64(3), events[0].ID)
	assert.True(t, events[0].OccurredAt.Equal(base.Add(2*time.Second)))
}

func TestStoreBacksService(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	svc := app.NewService(store, func() string { return "only" }, nil, app.ServiceConfig{})

	task, err := svc.SaveTask(ctx, app.SaveTaskInput{ColumnID: "todo", Title: "Write spec", Description: "Draft v1"})
	require.NoError(t, err)
	_, err = svc.MoveTask(ctx, task.ID, "doing")
	require.NoError(t, err)

	board, err := svc.LoadBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, "doing", board.Tasks[0].ColumnID)

	events, err := svc.ListActivity(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.NoError(t, svc.Ping(ctx))
}
