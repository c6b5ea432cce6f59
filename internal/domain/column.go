package domain

import "strings"

// Column represents a named bucket of cards. Columns are configured, not stored.
type Column struct {
	ID   string
	Name string
}

// NewColumn constructs a new value for this package.
func NewColumn(id, name string) (Column, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Column{}, ErrInvalidColumnID
	}
	if name == "" {
		return Column{}, ErrInvalidName
	}
	return Column{ID: id, Name: name}, nil
}

// ColumnIndex returns the position of columnID in columns, or -1.
func ColumnIndex(columns []Column, columnID string) int {
	for idx, column := range columns {
		if column.ID == columnID {
			return idx
		}
	}
	return -1
}
