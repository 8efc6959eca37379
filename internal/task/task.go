// Package task holds the task model, the board view builder and the
// manager that sits between request handlers and a task store.
package task

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingContent = errors.New("task content is required")
	ErrMissingList    = errors.New("task list name is required")
)

// ListName names the list a task belongs to. Values are always trimmed,
// so " General " and "General" are the same list.
type ListName string

// NewListName trims surrounding whitespace from s.
func NewListName(s string) ListName { return ListName(strings.TrimSpace(s)) }

func (n ListName) String() string { return string(n) }

// Task is a stored to-do item. ID and CreatedAt are assigned by the store.
type Task struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	ListType  ListName  `json:"listType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is validated input for creating a task.
type Draft struct {
	Content  string
	ListType ListName
}

// NewDraft trims both fields and rejects empty values.
func NewDraft(content, listType string) (Draft, error) {
	d := Draft{Content: strings.TrimSpace(content), ListType: NewListName(listType)}
	if d.Content == "" {
		return Draft{}, ErrMissingContent
	}
	if d.ListType == "" {
		return Draft{}, ErrMissingList
	}
	return d, nil
}

// IsMissingInput reports whether err came from a blank required field.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingContent) || errors.Is(err, ErrMissingList)
}
