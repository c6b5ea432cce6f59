package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hylla/taskboard/internal/domain"
)

type fakeStore struct {
	values map[string][]byte
	events []domain.ChangeEvent
	setErr error
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) AppendChangeEvent(_ context.Context, event domain.ChangeEvent) error {
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	out := make([]domain.ChangeEvent, 0, len(f.events))
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.events[i])
	}
	return out, nil
}

// kvOnlyStore has no change log.
type kvOnlyStore struct {
	values map[string][]byte
}

func (k *kvOnlyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := k.values[key]
	return v, ok, nil
}

func (k *kvOnlyStore) Set(_ context.Context, key string, value []byte) error {
	k.values[key] = value
	return nil
}

func (k *kvOnlyStore) Close() error { return nil }

type recordingWarner struct {
	messages []string
}

func (r *recordingWarner) Warn(msg any, _ ...any) {
	r.messages = append(r.messages, fmt.Sprint(msg))
}

func seqIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func fixedClock() Clock {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestService(store Store) *Service {
	return NewService(store, seqIDs(), fixedClock(), ServiceConfig{})
}

func storedTasks(t *testing.T, store *fakeStore) []domain.Task {
	t.Helper()
	raw, ok := store.values[DefaultStorageKey]
	if !ok {
		t.Fatal("expected tasks key to be stored")
	}
	tasks, err := DecodeTasks(raw)
	if err != nil {
		t.Fatalf("DecodeTasks() error = %v", err)
	}
	return tasks
}

func TestServiceSaveEditRemoveScenario(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	task, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "Write spec", Description: "Draft v1"})
	if err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}
	got := storedTasks(t, store)
	if len(got) != 1 || got[0].Title != "Write spec" || got[0].Description != "Draft v1" || got[0].ColumnID != "todo" {
		t.Fatalf("unexpected stored tasks after save %#v", got)
	}

	if _, err := svc.EditTask(ctx, EditTaskInput{TaskID: task.ID, Title: "Write spec v2", Description: "Draft v2"}); err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	got = storedTasks(t, store)
	if len(got) != 1 || got[0].Title != "Write spec v2" || got[0].Description != "Draft v2" || got[0].ColumnID != "todo" {
		t.Fatalf("unexpected stored tasks after edit %#v", got)
	}

	if err := svc.RemoveTask(ctx, task.ID); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if raw := string(store.values[DefaultStorageKey]); raw != "[]" {
		t.Fatalf("expected empty stored array, got %q", raw)
	}
}

func TestServiceSaveTaskRejectsBlankFieldsWithoutWriting(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "  ", Description: "x"}); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "x", Description: ""}); !errors.Is(err, domain.ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
	if _, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "nope", Title: "x", Description: "y"}); !errors.Is(err, domain.ErrInvalidColumnID) {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
	if store.sets != 0 {
		t.Fatalf("expected no writes, got %d", store.sets)
	}
}

func TestServiceSaveAppendsInOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	for _, col := range []string{"todo", "done", "todo"} {
		if _, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: col, Title: "T " + col, Description: "D"}); err != nil {
			t.Fatalf("SaveTask(%s) error = %v", col, err)
		}
	}
	board, err := svc.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	ids := make([]string, 0, len(board.Tasks))
	for _, task := range board.Tasks {
		ids = append(ids, task.ID)
	}
	if strings.Join(ids, ",") != "t1,t2,t3" {
		t.Fatalf("unexpected order %v", ids)
	}
	todo, err := svc.ListTasks(ctx, "todo")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(todo) != 2 || todo[0].ID != "t1" || todo[1].ID != "t3" {
		t.Fatalf("unexpected todo tasks %#v", todo)
	}
}

func TestServiceEditAndRemoveMatchByIDNotContent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "Same", Description: "Same"})
	second, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "doing", Title: "Same", Description: "Same"})

	if _, err := svc.EditTask(ctx, EditTaskInput{TaskID: second.ID, Title: "Changed", Description: "Changed"}); err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	got := storedTasks(t, store)
	if got[0].ID != first.ID || got[0].Title != "Same" {
		t.Fatalf("edit touched the wrong record %#v", got)
	}
	if got[1].Title != "Changed" || got[1].ColumnID != "doing" {
		t.Fatalf("unexpected edited record %#v", got[1])
	}

	if err := svc.RemoveTask(ctx, first.ID); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	got = storedTasks(t, store)
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("remove deleted the wrong record %#v", got)
	}
}

func TestServiceEditRejectsBlankAndUnknown(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	task, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "b"})
	writes := store.sets

	if _, err := svc.EditTask(ctx, EditTaskInput{TaskID: task.ID, Title: "a", Description: " "}); !errors.Is(err, domain.ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
	if _, err := svc.EditTask(ctx, EditTaskInput{TaskID: "missing", Title: "a", Description: "b"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.RemoveTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.sets != writes {
		t.Fatalf("expected no extra writes, got %d", store.sets-writes)
	}
}

func TestServiceMoveTask(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	a, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "a"})
	b, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "done", Title: "b", Description: "b"})

	moved, err := svc.MoveTask(ctx, a.ID, "done")
	if err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if moved.ColumnID != "done" {
		t.Fatalf("unexpected moved column %q", moved.ColumnID)
	}
	got := storedTasks(t, store)
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("expected stored order [a b] after move, got %#v", got)
	}
	if got[0].ColumnID != "done" || got[0].Title != "a" || got[1].ColumnID != "done" {
		t.Fatalf("expected only the moved record's column to change, got %#v", got)
	}

	// Moving back rewrites the same slot again.
	if _, err := svc.MoveTask(ctx, a.ID, "todo"); err != nil {
		t.Fatalf("MoveTask() back error = %v", err)
	}
	got = storedTasks(t, store)
	if got[0].ID != a.ID || got[0].ColumnID != "todo" {
		t.Fatalf("expected record to stay at index 0, got %#v", got)
	}
}

func TestServiceMoveWithoutDraggedTaskIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	a, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "a"})
	writes := store.sets

	if _, err := svc.MoveTask(ctx, "", "done"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.MoveTask(ctx, "ghost", "done"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.MoveTask(ctx, a.ID, "archive"); !errors.Is(err, domain.ErrInvalidColumnID) {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
	if store.sets != writes {
		t.Fatalf("expected no writes, got %d", store.sets-writes)
	}
	if got := storedTasks(t, store); got[0].ColumnID != "todo" {
		t.Fatalf("task must stay put, got %#v", got[0])
	}
}

func TestServiceLoadBoardMalformedDataYieldsEmpty(t *testing.T) {
	store := newFakeStore()
	store.values[DefaultStorageKey] = []byte("{not json")
	warner := &recordingWarner{}
	svc := NewService(store, seqIDs(), fixedClock(), ServiceConfig{Warner: warner})
	ctx := context.Background()

	board, err := svc.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(board.Tasks) != 0 {
		t.Fatalf("expected empty board, got %#v", board.Tasks)
	}
	if _, err := svc.LoadBoard(ctx); err != nil {
		t.Fatalf("LoadBoard() second error = %v", err)
	}
	if len(warner.messages) != 1 {
		t.Fatalf("expected one warning, got %v", warner.messages)
	}
	if _, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "b"}); err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}
	if got := storedTasks(t, store); len(got) != 1 {
		t.Fatalf("expected save to overwrite malformed data, got %#v", got)
	}
}

func TestServiceLoadBoardAssignsMissingIDsOnce(t *testing.T) {
	store := newFakeStore()
	store.values[DefaultStorageKey] = []byte(`[{"title":"Legacy","description":"row","columnId":"todo"}]`)
	svc := newTestService(store)
	ctx := context.Background()

	board, err := svc.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(board.Tasks) != 1 || board.Tasks[0].ID != "t1" {
		t.Fatalf("expected generated id, got %#v", board.Tasks)
	}
	again, err := svc.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() second error = %v", err)
	}
	if again.Tasks[0].ID != "t1" {
		t.Fatalf("expected id to stay stable, got %q", again.Tasks[0].ID)
	}
	if store.sets != 1 {
		t.Fatalf("expected exactly one write-back, got %d", store.sets)
	}
}

func TestServiceLoadBoardKeepsUnknownColumns(t *testing.T) {
	store := newFakeStore()
	store.values[DefaultStorageKey] = []byte(`[{"id":"x","title":"a","description":"b","columnId":"todoList"}]`)
	svc := newTestService(store)

	board, err := svc.LoadBoard(context.Background())
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(board.Columns) != 4 {
		t.Fatalf("expected configured columns plus one extra, got %#v", board.Columns)
	}
	if extra := board.Columns[3]; extra.ID != "todoList" || extra.Name != "todoList" {
		t.Fatalf("unexpected extra column %#v", extra)
	}
}

func TestServiceStoredOnlyColumnAcceptsSaveAndMove(t *testing.T) {
	store := newFakeStore()
	store.values[DefaultStorageKey] = []byte(`[{"id":"x","title":"a","description":"b","columnId":"archive"}]`)
	svc := newTestService(store)
	ctx := context.Background()

	saved, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "archive", Title: "c", Description: "d"})
	if err != nil {
		t.Fatalf("SaveTask() into stored-only column error = %v", err)
	}
	todo, err := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "e", Description: "f"})
	if err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}
	if _, err := svc.MoveTask(ctx, todo.ID, "archive"); err != nil {
		t.Fatalf("MoveTask() into stored-only column error = %v", err)
	}
	got := storedTasks(t, store)
	if len(got) != 3 || got[1].ID != saved.ID || got[2].ColumnID != "archive" {
		t.Fatalf("unexpected stored tasks %#v", got)
	}
	if _, err := svc.MoveTask(ctx, todo.ID, "trash"); !errors.Is(err, domain.ErrInvalidColumnID) {
		t.Fatalf("expected ErrInvalidColumnID for a column nothing references, got %v", err)
	}
}

func TestServiceWriteFailureLeavesStateUnchanged(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	task, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "b"})

	store.setErr = errors.New("disk full")
	if _, err := svc.MoveTask(ctx, task.ID, "done"); err == nil {
		t.Fatal("expected MoveTask() to fail")
	}
	store.setErr = nil
	got, err := svc.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.ColumnID != "todo" {
		t.Fatalf("expected task to stay in todo, got %q", got.ColumnID)
	}
}

func TestServiceRecordsChangeEvents(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	task, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "a", Description: "b"})
	_, _ = svc.MoveTask(ctx, task.ID, "doing")
	_ = svc.RemoveTask(ctx, task.ID)

	events, err := svc.ListActivity(ctx, 10)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %#v", events)
	}
	want := []domain.ChangeOperation{domain.ChangeOperationDelete, domain.ChangeOperationMove, domain.ChangeOperationCreate}
	for i, op := range want {
		if events[i].Operation != op || events[i].TaskID != task.ID {
			t.Fatalf("unexpected event %d %#v", i, events[i])
		}
	}
	if events[1].ColumnID != "doing" {
		t.Fatalf("expected move event to record the new column, got %q", events[1].ColumnID)
	}
}

func TestServiceListActivityWithoutChangeLog(t *testing.T) {
	svc := newTestService(&kvOnlyStore{values: map[string][]byte{}})
	if _, err := svc.ListActivity(context.Background(), 5); !errors.Is(err, ErrChangeLogUnavailable) {
		t.Fatalf("expected ErrChangeLogUnavailable, got %v", err)
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestNewServiceSanitizesColumns(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil, ServiceConfig{
		StorageKey: " board ",
		Columns: []ColumnTemplate{
			{ID: "backlog", Name: "Backlog"},
			{ID: "backlog", Name: "Dup"},
			{ID: "", Name: "Missing"},
			{ID: "ship", Name: "Ship"},
		},
	})
	cols, err := svc.ListColumns(context.Background())
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(cols) != 2 || cols[0].ID != "backlog" || cols[1].ID != "ship" {
		t.Fatalf("unexpected columns %#v", cols)
	}
	if svc.key != "board" {
		t.Fatalf("unexpected key %q", svc.key)
	}
}
