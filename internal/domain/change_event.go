package domain

import (
	"strings"
	"time"
)

// ChangeOperation describes a persisted activity operation for a task.
type ChangeOperation string

// ChangeOperation values used by the activity ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationMove   ChangeOperation = "move"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent represents a single activity-log entry for a task.
type ChangeEvent struct {
	ID         int64
	TaskID     string
	ColumnID   string
	Operation  ChangeOperation
	Title      string
	OccurredAt time.Time
}

// NewChangeEvent records op against task at now.
func NewChangeEvent(op ChangeOperation, task Task, now time.Time) (ChangeEvent, error) {
	switch op {
	case ChangeOperationCreate, ChangeOperationUpdate, ChangeOperationMove, ChangeOperationDelete:
	default:
		return ChangeEvent{}, ErrInvalidOperation
	}
	taskID := strings.TrimSpace(task.ID)
	if taskID == "" {
		return ChangeEvent{}, ErrInvalidID
	}
	return ChangeEvent{
		TaskID:     taskID,
		ColumnID:   task.ColumnID,
		Operation:  op,
		Title:      task.Title,
		OccurredAt: now.UTC(),
	}, nil
}
