package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound               = errors.New("not found")
	ErrCorruptTasks           = errors.New("stored tasks are malformed")
	ErrChangeLogUnavailable   = errors.New("change log unavailable")
	ErrInvalidSnapshot        = errors.New("invalid snapshot")
	ErrInvalidSnapshotVersion = errors.New("unsupported snapshot version")
)
