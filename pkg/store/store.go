// Package store provides the persistence layer abstraction for the folio blog.
//
// The [Store] interface implements the repository pattern over the remote
// document collection holding blog posts. Two implementations exist:
//
//   - [github.com/foliosite/folio/pkg/store/surreal.Store]: the production
//     backend, a SurrealDB table with native live-query push subscriptions
//   - [github.com/foliosite/folio/pkg/store/memory.Store]: an in-memory
//     backend honoring the identical contract, used by tests and by
//     database-less development runs
//
// The collection is the single source of truth. Consumers never mutate their
// local view of the post list directly: writes go through the Store, and the
// subscription pushes a fresh full snapshot back. Conflicting concurrent
// writes resolve last-write-wins; the next push simply carries whatever the
// collection now holds.
package store

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/foliosite/folio/pkg/models"
)

// Draft is the authored payload for creating a post, or the seeded form state
// when editing one. Identity and timestamps are assigned by the Store, never
// by the author.
type Draft struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Excerpt string `json:"excerpt" validate:"required"`
	Image   string `json:"image,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the draft locally before any network call. A failure is a
// *ValidationError and must block submission.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		var fields []string
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				fields = append(fields, fe.Field())
			}
		}
		return &ValidationError{Fields: fields, Err: err}
	}
	return nil
}

// Patch carries a partial update. Nil fields are left untouched. An Image
// explicitly set to the empty (or blank) string clears the stored field
// entirely rather than leaving a stale value or an empty-string sentinel.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Excerpt *string `json:"excerpt,omitempty"`
	Image   *string `json:"image,omitempty"`
}

// Snapshot receives the full, createdAt-descending post list. Pushes replace
// the previous snapshot wholesale; they are never deltas.
type Snapshot func(posts []models.Post)

// Store is the repository contract over the blog post collection.
type Store interface {
	// CreatePost writes a new document with CreatedAt = UpdatedAt = now and
	// returns its collection-assigned identifier. A blank draft image is
	// omitted from the stored document entirely. Rejected writes return a
	// *WriteError.
	CreatePost(ctx context.Context, draft Draft) (models.PostID, error)

	// UpdatePost writes only the fields present in patch, plus a refreshed
	// UpdatedAt. Updating an unknown id, or a rejected write, returns a
	// *WriteError. CreatedAt is never modified.
	UpdatePost(ctx context.Context, id models.PostID, patch Patch) error

	// DeletePost removes the document permanently; there is no soft delete.
	// Deleting an unknown id, or a rejected write, returns a *WriteError.
	DeletePost(ctx context.Context, id models.PostID) error

	// GetPost fetches a single post, or (nil, nil) when the id is unknown.
	// Transport failures return a *ReadError.
	GetPost(ctx context.Context, id models.PostID) (*models.Post, error)

	// ListPosts fetches the full collection ordered by CreatedAt descending.
	// Transport failures return a *ReadError.
	ListPosts(ctx context.Context) ([]models.Post, error)

	// SubscribePosts establishes a standing push subscription. fn is invoked
	// once immediately with the current snapshot and again after every
	// insert, update, or delete anywhere in the collection. On transport
	// error the subscription degrades to pushing an empty snapshot and logs
	// the failure instead of propagating it. The returned cancel func stops
	// further callbacks and is safe to call any number of times.
	SubscribePosts(ctx context.Context, fn Snapshot) (cancel func(), err error)

	// Close releases the underlying connection and terminates any remaining
	// subscriptions. Operations attempted after Close fail with the usual
	// WriteError/ReadError taxonomy.
	Close() error
}
