package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/taskboard/internal/app"
	"github.com/hylla/taskboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board operations.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

func (a *AppServiceAdapter) configured() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// GetBoard returns columns and tasks in persisted order.
func (a *AppServiceAdapter) GetBoard(ctx context.Context) (Board, error) {
	if err := a.configured(); err != nil {
		return Board{}, err
	}
	board, err := a.service.LoadBoard(ctx)
	if err != nil {
		return Board{}, mapAppError("get board", err)
	}
	out := Board{
		Columns: make([]Column, 0, len(board.Columns)),
		Tasks:   make([]Task, 0, len(board.Tasks)),
	}
	for _, column := range board.Columns {
		out.Columns = append(out.Columns, Column{ID: column.ID, Name: column.Name})
	}
	for _, task := range board.Tasks {
		out.Tasks = append(out.Tasks, taskFromDomain(task))
	}
	return out, nil
}

// ListTasks lists tasks, optionally filtered to one column.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, columnID string) ([]Task, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	tasks, err := a.service.ListTasks(ctx, columnID)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskFromDomain(task))
	}
	return out, nil
}

// SaveTask creates one task.
func (a *AppServiceAdapter) SaveTask(ctx context.Context, in SaveTaskRequest) (Task, error) {
	if err := a.configured(); err != nil {
		return Task{}, err
	}
	task, err := a.service.SaveTask(ctx, app.SaveTaskInput{
		ColumnID:    in.ColumnID,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return Task{}, mapAppError("save task", err)
	}
	return taskFromDomain(task), nil
}

// EditTask updates one task's content.
func (a *AppServiceAdapter) EditTask(ctx context.Context, in EditTaskRequest) (Task, error) {
	if err := a.configured(); err != nil {
		return Task{}, err
	}
	task, err := a.service.EditTask(ctx, app.EditTaskInput{
		TaskID:      in.TaskID,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return Task{}, mapAppError("edit task", err)
	}
	return taskFromDomain(task), nil
}

// RemoveTask deletes one task.
func (a *AppServiceAdapter) RemoveTask(ctx context.Context, taskID string) error {
	if err := a.configured(); err != nil {
		return err
	}
	if err := a.service.RemoveTask(ctx, taskID); err != nil {
		return mapAppError("remove task", err)
	}
	return nil
}

// MoveTask relocates one task.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (Task, error) {
	if err := a.configured(); err != nil {
		return Task{}, err
	}
	task, err := a.service.MoveTask(ctx, in.TaskID, in.ColumnID)
	if err != nil {
		return Task{}, mapAppError("move task", err)
	}
	return taskFromDomain(task), nil
}

// ListActivity lists change events newest first.
func (a *AppServiceAdapter) ListActivity(ctx context.Context, limit int) ([]ActivityEvent, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	events, err := a.service.ListActivity(ctx, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	out := make([]ActivityEvent, 0, len(events))
	for _, event := range events {
		out = append(out, ActivityEvent{
			ID:         event.ID,
			TaskID:     event.TaskID,
			ColumnID:   event.ColumnID,
			Operation:  string(event.Operation),
			Title:      event.Title,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

// Ready probes the backing store.
func (a *AppServiceAdapter) Ready(ctx context.Context) error {
	if err := a.configured(); err != nil {
		return err
	}
	return a.service.Ping(ctx)
}

func taskFromDomain(task domain.Task) Task {
	return Task{
		ID:          task.ID,
		ColumnID:    task.ColumnID,
		Title:       task.Title,
		Description: task.Description,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// mapAppError wraps app and domain errors with transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrChangeLogUnavailable):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrActivityUnavailable, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidColumnID):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

// TrimID normalizes one identifier taken from a path or tool argument.
func TrimID(id string) string {
	return strings.TrimSpace(id)
}
