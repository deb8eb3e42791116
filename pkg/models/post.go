// Package models defines the domain entities of the folio blog.
//
// The only entity is [Post]: a single blog entry held in the remote document
// collection. Everything derived from a Post (sanitized markup, read time)
// is computed on render and never stored, so the document in the collection
// stays the minimal authored record.
package models

import (
	"fmt"
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliosite/folio/pkg/sanitize"
)

// BlogTable is the name of the document collection holding all posts.
const BlogTable = "blogs"

// PostID is the opaque identifier the document collection assigns to a Post
// at creation time. It is stable for the life of the record and never reused.
type PostID string

// ParsePostID validates an identifier received from a client.
func ParsePostID(s string) (PostID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty post ID")
	}
	return PostID(s), nil
}

func (id PostID) String() string { return string(id) }
func (id PostID) IsZero() bool   { return id == "" }

// RecordID converts the identifier to the collection record reference.
func (id PostID) RecordID() surrealmodels.RecordID {
	return surrealmodels.NewRecordID(BlogTable, string(id))
}

// Post is a single blog entry.
//
// Image is a pointer because absence is meaningful: a post without a cover
// image must round-trip without the stored document growing an empty "image"
// key. CreatedAt is set once at creation; UpdatedAt is refreshed on every
// update, and CreatedAt <= UpdatedAt always holds.
type Post struct {
	ID        PostID    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// wordsPerMinute is the reading speed the derived read time assumes.
const wordsPerMinute = 200

// ReadTime returns the estimated reading time of the post in whole minutes,
// rounding up. The count runs over the tag-stripped text of the content so
// markup does not inflate the estimate. A one-word post reads in one minute.
func (p Post) ReadTime() int {
	words := len(strings.Fields(sanitize.Text(p.Content)))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
