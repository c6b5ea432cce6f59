package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hylla/taskboard/internal/domain"
)

// storedTask is the persisted record shape. Timestamps are optional so hand-written
// or older records without them still decode.
type storedTask struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ColumnID    string     `json:"columnId"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// EncodeTasks serializes the full task sequence in order. An empty sequence encodes as [].
func EncodeTasks(tasks []domain.Task) ([]byte, error) {
	records := make([]storedTask, 0, len(tasks))
	for _, task := range tasks {
		rec := storedTask{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			ColumnID:    task.ColumnID,
		}
		if !task.CreatedAt.IsZero() {
			createdAt := task.CreatedAt.UTC()
			rec.CreatedAt = &createdAt
		}
		if !task.UpdatedAt.IsZero() {
			updatedAt := task.UpdatedAt.UTC()
			rec.UpdatedAt = &updatedAt
		}
		records = append(records, rec)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return raw, nil
}

// DecodeTasks parses a stored sequence. Empty input and JSON null decode to an empty
// sequence. Anything that is not an array of records returns ErrCorruptTasks.
// Records without an id are returned with an empty ID; null entries are dropped.
func DecodeTasks(raw []byte) ([]domain.Task, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Task{}, nil
	}
	var records []storedTask
	if err := json.Unmarshal(raw, &records); err != nil {
		return []domain.Task{}, fmt.Errorf("%w: %v", ErrCorruptTasks, err)
	}
	tasks := make([]domain.Task, 0, len(records))
	for _, rec := range records {
		if rec == (storedTask{}) {
			continue
		}
		task := domain.Task{
			ID:          rec.ID,
			ColumnID:    rec.ColumnID,
			Title:       rec.Title,
			Description: rec.Description,
		}
		if rec.CreatedAt != nil {
			task.CreatedAt = rec.CreatedAt.UTC()
		}
		if rec.UpdatedAt != nil {
			task.UpdatedAt = rec.UpdatedAt.UTC()
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
