package domain

import (
	"strings"
	"time"
)

// Task is one card on the board. Identity is the generated ID, never the text.
type Task struct {
	ID          string
	ColumnID    string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	ColumnID    string
	Title       string
	Description string
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ColumnID = strings.TrimSpace(in.ColumnID)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ColumnID == "" {
		return Task{}, ErrInvalidColumnID
	}
	title, description, err := NormalizeContent(in.Title, in.Description)
	if err != nil {
		return Task{}, err
	}

	ts := now.UTC()
	return Task{
		ID:          in.ID,
		ColumnID:    in.ColumnID,
		Title:       title,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// NormalizeContent trims a title/description pair and requires both to be non-empty.
func NormalizeContent(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return "", "", ErrInvalidTitle
	}
	if description == "" {
		return "", "", ErrInvalidDescription
	}
	return title, description, nil
}

// UpdateContent replaces title and description, leaving the column untouched.
func (t *Task) UpdateContent(title, description string, now time.Time) error {
	title, description, err := NormalizeContent(title, description)
	if err != nil {
		return err
	}
	t.Title = title
	t.Description = description
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) MoveTo(columnID string, now time.Time) error {
	columnID = strings.TrimSpace(columnID)
	if columnID == "" {
		return ErrInvalidColumnID
	}
	t.ColumnID = columnID
	t.UpdatedAt = now.UTC()
	return nil
}
