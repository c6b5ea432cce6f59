package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewTaskTrimsAndValidates(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{
		ID:          " t1 ",
		ColumnID:    " todo ",
		Title:       "  Write spec  ",
		Description: " Draft v1\n",
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.ID != "t1" || task.ColumnID != "todo" {
		t.Fatalf("unexpected identity %#v", task)
	}
	if task.Title != "Write spec" || task.Description != "Draft v1" {
		t.Fatalf("unexpected content %#v", task)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %#v", task)
	}
}

func TestNewTaskValidation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   TaskInput
		want error
	}{
		{name: "missing id", in: TaskInput{ColumnID: "todo", Title: "a", Description: "b"}, want: ErrInvalidID},
		{name: "missing column", in: TaskInput{ID: "t1", Title: "a", Description: "b"}, want: ErrInvalidColumnID},
		{name: "blank title", in: TaskInput{ID: "t1", ColumnID: "todo", Title: "   ", Description: "b"}, want: ErrInvalidTitle},
		{name: "blank description", in: TaskInput{ID: "t1", ColumnID: "todo", Title: "a", Description: "\t"}, want: ErrInvalidDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTask(tc.in, now); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTaskUpdateContentKeepsColumn(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, _ := NewTask(TaskInput{ID: "t1", ColumnID: "doing", Title: "a", Description: "b"}, now)
	later := now.Add(time.Minute)
	if err := task.UpdateContent(" new ", " text ", later); err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}
	if task.Title != "new" || task.Description != "text" || task.ColumnID != "doing" {
		t.Fatalf("unexpected task after update %#v", task)
	}
	if !task.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at to advance, got %v", task.UpdatedAt)
	}
	if err := task.UpdateContent("", "text", later); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if task.Title != "new" {
		t.Fatalf("failed update must not change task, got %q", task.Title)
	}
}

func TestTaskMoveTo(t *testing.T) {
	now := time.Now()
	task, _ := NewTask(TaskInput{ID: "t1", ColumnID: "todo", Title: "a", Description: "b"}, now)
	if err := task.MoveTo(" ", now); err != ErrInvalidColumnID {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
	if err := task.MoveTo("done", now); err != nil {
		t.Fatalf("MoveTo() error = %v", err)
	}
	if task.ColumnID != "done" {
		t.Fatalf("unexpected column %q", task.ColumnID)
	}
}

func TestNewColumnValidation(t *testing.T) {
	if _, err := NewColumn("", "To Do"); err != ErrInvalidColumnID {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
	if _, err := NewColumn("todo", " "); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	c, err := NewColumn(" todo ", " To Do ")
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.ID != "todo" || c.Name != "To Do" {
		t.Fatalf("unexpected column %#v", c)
	}
	if idx := ColumnIndex([]Column{{ID: "a"}, c}, "todo"); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := ColumnIndex(nil, "todo"); idx != -1 {
		t.Fatalf("expected -1 for missing column, got %d", idx)
	}
}

func TestCardViewRevealsButtonsOnce(t *testing.T) {
	card := NewCard(Task{ID: "t1"})
	if card.View.EditShown || card.View.RemoveShown {
		t.Fatalf("new card must start with hidden buttons %#v", card.View)
	}
	if !card.View.RevealEdit() {
		t.Fatal("expected first edit reveal to report true")
	}
	if card.View.RevealEdit() {
		t.Fatal("expected second edit reveal to report false")
	}
	if !card.View.RevealRemove() || card.View.RevealRemove() {
		t.Fatal("expected remove reveal to report true exactly once")
	}
}

func TestNewChangeEvent(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", ColumnID: "todo", Title: "a"}
	ev, err := NewChangeEvent(ChangeOperationMove, task, now)
	if err != nil {
		t.Fatalf("NewChangeEvent() error = %v", err)
	}
	if ev.TaskID != "t1" || ev.ColumnID != "todo" || ev.Operation != ChangeOperationMove {
		t.Fatalf("unexpected event %#v", ev)
	}
	if _, err := NewChangeEvent("archive", task, now); err != ErrInvalidOperation {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if _, err := NewChangeEvent(ChangeOperationCreate, Task{}, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
