package app

import (
	"context"
	"errors"
	"testing"
)

func TestExportSnapshotIncludesColumnsAndTasks(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	a, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "A", Description: "a"})
	b, _ := svc.SaveTask(ctx, SaveTaskInput{ColumnID: "done", Title: "B", Description: "b"})

	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Fatalf("unexpected version %q", snap.Version)
	}
	if len(snap.Columns) != 3 || snap.Columns[0].ID != "todo" {
		t.Fatalf("unexpected columns %#v", snap.Columns)
	}
	if len(snap.Tasks) != 2 || snap.Tasks[0].ID != a.ID || snap.Tasks[1].ID != b.ID {
		t.Fatalf("unexpected tasks %#v", snap.Tasks)
	}
}

func TestImportSnapshotReplacesTasks(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	_, _ = svc.SaveTask(ctx, SaveTaskInput{ColumnID: "todo", Title: "old", Description: "old"})

	err := svc.ImportSnapshot(ctx, Snapshot{
		Version: SnapshotVersion,
		Tasks: []SnapshotTask{
			{ID: "x2", ColumnID: "done", Title: "Imported", Description: "second"},
			{ID: "x1", ColumnID: "todo", Title: "Imported", Description: "first"},
		},
	})
	if err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	got := storedTasks(t, store)
	if len(got) != 2 || got[0].ID != "x2" || got[1].ID != "x1" {
		t.Fatalf("unexpected imported tasks %#v", got)
	}
	if _, err := svc.GetTask(ctx, "x1"); err != nil {
		t.Fatalf("GetTask() after import error = %v", err)
	}
}

func TestImportSnapshotValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()
	cases := []struct {
		name string
		snap Snapshot
		want error
	}{
		{name: "version", snap: Snapshot{Version: "board.snapshot.v0"}, want: ErrInvalidSnapshotVersion},
		{name: "missing id", snap: Snapshot{Version: SnapshotVersion, Tasks: []SnapshotTask{{ColumnID: "todo", Title: "a", Description: "b"}}}, want: ErrInvalidSnapshot},
		{name: "duplicate id", snap: Snapshot{Version: SnapshotVersion, Tasks: []SnapshotTask{
			{ID: "a", ColumnID: "todo", Title: "a", Description: "b"},
			{ID: "a", ColumnID: "todo", Title: "a", Description: "b"},
		}}, want: ErrInvalidSnapshot},
		{name: "blank description", snap: Snapshot{Version: SnapshotVersion, Tasks: []SnapshotTask{{ID: "a", ColumnID: "todo", Title: "a"}}}, want: ErrInvalidSnapshot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.ImportSnapshot(ctx, tc.snap); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
