package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/taskboard/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "taskboard.snapshot.v1"

// Snapshot is the portable export format. Columns are informational; import only
// replaces the task sequence.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Columns    []SnapshotColumn `json:"columns"`
	Tasks      []SnapshotTask   `json:"tasks"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"column_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExportSnapshot returns the configured columns and every stored task in order.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	board, err := s.LoadBoard(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Columns:    make([]SnapshotColumn, 0, len(board.Columns)),
		Tasks:      make([]SnapshotTask, 0, len(board.Tasks)),
	}
	for _, column := range board.Columns {
		snap.Columns = append(snap.Columns, SnapshotColumn{ID: column.ID, Name: column.Name})
	}
	for _, task := range board.Tasks {
		snap.Tasks = append(snap.Tasks, SnapshotTask{
			ID:          task.ID,
			ColumnID:    task.ColumnID,
			Title:       task.Title,
			Description: task.Description,
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
		})
	}
	return snap, nil
}

// Validate checks version and per-task content before an import touches storage.
func (snap Snapshot) Validate() error {
	if strings.TrimSpace(snap.Version) != SnapshotVersion {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotVersion, snap.Version)
	}
	seen := map[string]struct{}{}
	for idx, task := range snap.Tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			return fmt.Errorf("%w: tasks[%d].id is required", ErrInvalidSnapshot, idx)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: tasks[%d].id is duplicated: %s", ErrInvalidSnapshot, idx, id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(task.ColumnID) == "" {
			return fmt.Errorf("%w: tasks[%d].column_id is required", ErrInvalidSnapshot, idx)
		}
		if _, _, err := domain.NormalizeContent(task.Title, task.Description); err != nil {
			return fmt.Errorf("%w: tasks[%d]: %v", ErrInvalidSnapshot, idx, err)
		}
	}
	return nil
}

// ImportSnapshot replaces the stored sequence with the snapshot's tasks in file order.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	now := s.clock().UTC()
	tasks := make([]domain.Task, 0, len(snap.Tasks))
	for _, in := range snap.Tasks {
		task, err := domain.NewTask(domain.TaskInput{
			ID:          in.ID,
			ColumnID:    in.ColumnID,
			Title:       in.Title,
			Description: in.Description,
		}, now)
		if err != nil {
			return err
		}
		if !in.CreatedAt.IsZero() {
			task.CreatedAt = in.CreatedAt.UTC()
		}
		if !in.UpdatedAt.IsZero() {
			task.UpdatedAt = in.UpdatedAt.UTC()
		}
		tasks = append(tasks, task)
	}

	encoded, err := EncodeTasks(tasks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, s.key, encoded); err != nil {
		return fmt.Errorf("persist imported tasks: %w", err)
	}
	s.setTasksLocked(tasks)
	s.corruptShown = false
	return nil
}
