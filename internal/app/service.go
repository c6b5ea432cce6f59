package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/taskboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	StorageKey string
	Columns    []ColumnTemplate
	Warner     Warner
}

// ColumnTemplate describes one configured board column.
type ColumnTemplate struct {
	ID   string
	Name string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Board is the full render model: configured columns followed by any column ids
// that only appear on stored tasks, and every task in persisted order.
type Board struct {
	Columns []domain.Column
	Tasks   []domain.Task
}

// Service owns the persisted task sequence. Every mutation re-reads the stored
// sequence, applies the change, and writes the whole sequence back.
type Service struct {
	store     Store
	changeLog ChangeLog
	idGen     IDGenerator
	clock     Clock
	key       string
	columns   []domain.Column
	warner    Warner

	mu           sync.Mutex
	tasks        []domain.Task
	index        map[string]int
	corruptShown bool
}

// NewService constructs a new value for this package.
func NewService(store Store, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	key := strings.TrimSpace(cfg.StorageKey)
	if key == "" {
		key = DefaultStorageKey
	}
	columns := sanitizeColumns(cfg.Columns)
	if len(columns) == 0 {
		columns = sanitizeColumns(DefaultColumns())
	}
	svc := &Service{
		store:   store,
		idGen:   idGen,
		clock:   clock,
		key:     key,
		columns: columns,
		warner:  cfg.Warner,
		index:   map[string]int{},
	}
	if changeLog, ok := store.(ChangeLog); ok {
		svc.changeLog = changeLog
	}
	return svc
}

// DefaultColumns returns the stock todo/doing/done layout.
func DefaultColumns() []ColumnTemplate {
	return []ColumnTemplate{
		{ID: "todo", Name: "To Do"},
		{ID: "doing", Name: "Doing"},
		{ID: "done", Name: "Done"},
	}
}

// sanitizeColumns drops invalid and duplicate templates, keeping order.
func sanitizeColumns(in []ColumnTemplate) []domain.Column {
	out := make([]domain.Column, 0, len(in))
	seen := map[string]struct{}{}
	for _, tpl := range in {
		column, err := domain.NewColumn(tpl.ID, tpl.Name)
		if err != nil {
			continue
		}
		if _, ok := seen[column.ID]; ok {
			continue
		}
		seen[column.ID] = struct{}{}
		out = append(out, column)
	}
	return out
}

// ListColumns returns the configured columns in display order.
func (s *Service) ListColumns(context.Context) ([]domain.Column, error) {
	return append([]domain.Column(nil), s.columns...), nil
}

// LoadBoard reads the persisted sequence and returns it with the columns to render it into.
func (s *Service) LoadBoard(ctx context.Context) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return Board{}, err
	}
	columns := append([]domain.Column(nil), s.columns...)
	for _, task := range s.tasks {
		if domain.ColumnIndex(columns, task.ColumnID) >= 0 {
			continue
		}
		name := task.ColumnID
		if strings.TrimSpace(name) == "" {
			name = "(no column)"
		}
		columns = append(columns, domain.Column{ID: task.ColumnID, Name: name})
	}
	return Board{
		Columns: columns,
		Tasks:   append([]domain.Task(nil), s.tasks...),
	}, nil
}

// ListTasks returns tasks in persisted order, filtered to columnID when it is non-empty.
func (s *Service) ListTasks(ctx context.Context, columnID string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}
	columnID = strings.TrimSpace(columnID)
	out := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if columnID != "" && task.ColumnID != columnID {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

// GetTask returns one task by id.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return domain.Task{}, err
	}
	idx, err := s.lookupLocked(taskID)
	if err != nil {
		return domain.Task{}, err
	}
	return s.tasks[idx], nil
}

// SaveTaskInput holds input values for save task operations.
type SaveTaskInput struct {
	ColumnID    string
	Title       string
	Description string
}

// SaveTask appends a new task to the end of the sequence. Validation failures leave
// the stored sequence untouched.
func (s *Service) SaveTask(ctx context.Context, in SaveTaskInput) (domain.Task, error) {
	columnID := strings.TrimSpace(in.ColumnID)
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		ColumnID:    columnID,
		Title:       in.Title,
		Description: in.Description,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return domain.Task{}, err
	}
	if !s.columnKnownLocked(columnID) {
		return domain.Task{}, domain.ErrInvalidColumnID
	}
	if _, exists := s.index[task.ID]; exists {
		return domain.Task{}, fmt.Errorf("%w: duplicate task id %q", domain.ErrInvalidID, task.ID)
	}
	next := append(s.snapshotLocked(), task)
	if err := s.commitLocked(ctx, next, domain.ChangeOperationCreate, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// EditTaskInput holds input values for edit task operations.
type EditTaskInput struct {
	TaskID      string
	Title       string
	Description string
}

// EditTask rewrites the title and description of the task with TaskID. The task keeps its column.
func (s *Service) EditTask(ctx context.Context, in EditTaskInput) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return domain.Task{}, err
	}
	idx, err := s.lookupLocked(in.TaskID)
	if err != nil {
		return domain.Task{}, err
	}
	next := s.snapshotLocked()
	task := next[idx]
	if err := task.UpdateContent(in.Title, in.Description, s.clock()); err != nil {
		return domain.Task{}, err
	}
	next[idx] = task
	if err := s.commitLocked(ctx, next, domain.ChangeOperationUpdate, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// RemoveTask deletes exactly the task with taskID.
func (s *Service) RemoveTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	idx, err := s.lookupLocked(taskID)
	if err != nil {
		return err
	}
	removed := s.tasks[idx]
	next := make([]domain.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)
	return s.commitLocked(ctx, next, domain.ChangeOperationDelete, removed)
}

// MoveTask rewrites the column of the task with taskID. The record keeps its position
// in the stored sequence. An empty taskID means nothing is being dragged and is
// rejected before any read or write.
func (s *Service) MoveTask(ctx context.Context, taskID, toColumnID string) (domain.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return domain.Task{}, domain.ErrInvalidID
	}
	toColumnID = strings.TrimSpace(toColumnID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return domain.Task{}, err
	}
	if !s.columnKnownLocked(toColumnID) {
		return domain.Task{}, domain.ErrInvalidColumnID
	}
	idx, err := s.lookupLocked(taskID)
	if err != nil {
		return domain.Task{}, err
	}
	task := s.tasks[idx]
	if err := task.MoveTo(toColumnID, s.clock()); err != nil {
		return domain.Task{}, err
	}
	next := s.snapshotLocked()
	next[idx] = task
	if err := s.commitLocked(ctx, next, domain.ChangeOperationMove, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListActivity returns recent change events, newest first.
func (s *Service) ListActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if s.changeLog == nil {
		return nil, ErrChangeLogUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	return s.changeLog.ListChangeEvents(ctx, limit)
}

// Ping checks store connectivity when the store supports it.
func (s *Service) Ping(ctx context.Context) error {
	if pinger, ok := s.store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// refreshLocked reloads the stored sequence and rebuilds the id index.
func (s *Service) refreshLocked(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrCorruptTasks) {
			return fmt.Errorf("read tasks: %w", err)
		}
		ok = false
	}
	tasks := []domain.Task{}
	if ok {
		tasks, err = DecodeTasks(raw)
		if err != nil && !errors.Is(err, ErrCorruptTasks) {
			return err
		}
	}
	if err != nil {
		if !s.corruptShown {
			s.warn("stored tasks are malformed; starting from an empty board", "key", s.key, "err", err)
			s.corruptShown = true
		}
		tasks = []domain.Task{}
	} else {
		s.corruptShown = false
	}

	assigned := 0
	for idx := range tasks {
		if strings.TrimSpace(tasks[idx].ID) != "" {
			continue
		}
		tasks[idx].ID = s.idGen()
		assigned++
	}
	s.setTasksLocked(tasks)
	if assigned == 0 {
		return nil
	}
	// Records written without ids must keep the ids they were just given.
	encoded, err := EncodeTasks(s.tasks)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, encoded); err != nil {
		return fmt.Errorf("persist assigned task ids: %w", err)
	}
	s.warn("assigned ids to stored tasks", "key", s.key, "count", assigned)
	return nil
}

// commitLocked persists next as the full sequence and only then adopts it in memory.
func (s *Service) commitLocked(ctx context.Context, next []domain.Task, op domain.ChangeOperation, task domain.Task) error {
	encoded, err := EncodeTasks(next)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, encoded); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	s.setTasksLocked(next)
	s.corruptShown = false

	if s.changeLog == nil {
		return nil
	}
	event, err := domain.NewChangeEvent(op, task, s.clock())
	if err != nil {
		return err
	}
	if err := s.changeLog.AppendChangeEvent(ctx, event); err != nil {
		s.warn("append change event failed", "task_id", task.ID, "operation", op, "err", err)
	}
	return nil
}

func (s *Service) setTasksLocked(tasks []domain.Task) {
	s.tasks = tasks
	s.index = make(map[string]int, len(tasks))
	for idx, task := range tasks {
		if _, dup := s.index[task.ID]; dup {
			continue
		}
		s.index[task.ID] = idx
	}
}

// columnKnownLocked reports whether columnID is configured or referenced by a stored task.
func (s *Service) columnKnownLocked(columnID string) bool {
	if columnID == "" {
		return false
	}
	if domain.ColumnIndex(s.columns, columnID) >= 0 {
		return true
	}
	for _, task := range s.tasks {
		if task.ColumnID == columnID {
			return true
		}
	}
	return false
}

func (s *Service) lookupLocked(taskID string) (int, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return -1, domain.ErrInvalidID
	}
	idx, ok := s.index[taskID]
	if !ok {
		return -1, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
	}
	return idx, nil
}

// snapshotLocked returns a copy of the in-memory sequence safe to mutate.
func (s *Service) snapshotLocked() []domain.Task {
	out := make([]domain.Task, len(s.tasks), len(s.tasks)+1)
	copy(out, s.tasks)
	return out
}

func (s *Service) warn(msg string, keyvals ...any) {
	if s.warner == nil {
		return
	}
	s.warner.Warn(msg, keyvals...)
}
