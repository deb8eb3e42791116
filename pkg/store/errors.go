package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/foliosite/folio/pkg/models"
)

// WriteError reports a create, update, or delete the collection rejected:
// the document not existing, a permission failure, a quota, or the transport.
// Store implementations wrap the driver error here so callers never inspect
// backend-specific shapes.
type WriteError struct {
	Op  string // "create", "update", "delete"
	ID  models.PostID
	Err error
}

func (e *WriteError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("failed to %s blog post: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s blog post %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a failed one-shot fetch or a failed subscription setup.
type ReadError struct {
	Op  string // "get", "list", "subscribe"
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to %s blog posts: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ValidationError reports locally missing required fields. It never reaches
// the collection; submission is blocked before any network call.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid blog post draft"
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrNotExist is the stable cause wrapped by WriteErrors for operations on
// identifiers the collection does not hold.
var ErrNotExist = errors.New("post does not exist")

// ErrClosed is the stable cause wrapped by WriteErrors and ReadErrors for
// operations attempted after Close.
var ErrClosed = errors.New("store is closed")
