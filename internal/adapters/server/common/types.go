// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrActivityUnavailable reports a store without a change log.
var ErrActivityUnavailable = errors.New("activity log unavailable")

// BoardService is the board surface shared by the HTTP and MCP transports.
type BoardService interface {
	GetBoard(context.Context) (Board, error)
	ListTasks(context.Context, string) ([]Task, error)
	SaveTask(context.Context, SaveTaskRequest) (Task, error)
	EditTask(context.Context, EditTaskRequest) (Task, error)
	RemoveTask(context.Context, string) error
	MoveTask(context.Context, MoveTaskRequest) (Task, error)
	ListActivity(context.Context, int) ([]ActivityEvent, error)
}

// ReadinessChecker is optionally implemented by services that can probe their store.
type ReadinessChecker interface {
	Ready(context.Context) error
}

// Column is the wire shape of one board column.
type Column struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is the wire shape of one task record.
type Task struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Board groups columns and every task in persisted order.
type Board struct {
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
}

// ActivityEvent is the wire shape of one change-log entry.
type ActivityEvent struct {
	ID         int64     `json:"id"`
	TaskID     string    `json:"taskId"`
	ColumnID   string    `json:"columnId"`
	Operation  string    `json:"operation"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SaveTaskRequest creates one task at the end of a column.
type SaveTaskRequest struct {
	ColumnID    string `json:"columnId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// EditTaskRequest replaces one task's title and description.
type EditTaskRequest struct {
	TaskID      string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MoveTaskRequest relocates one task to the end of a column.
type MoveTaskRequest struct {
	TaskID   string `json:"-"`
	ColumnID string `json:"columnId"`
}
