// Package view implements the editing workflow for the blog.
//
// A Controller owns a live snapshot of all posts plus the transient editing
// state: which post is selected for reading, whether a draft form is open,
// and whether a submission is in flight. Callers drive it from a UI loop;
// every method is safe for concurrent use.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

// Mode is the editing state of the controller.
type Mode int

const (
	// ModeIdle means no draft form is open.
	ModeIdle Mode = iota
	// ModeDrafting means a draft form is open and editable.
	ModeDrafting
	// ModeSubmitting means a draft is being persisted. The form stays
	// populated but further submissions are refused until the write settles.
	ModeSubmitting
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrafting:
		return "drafting"
	case ModeSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	// ErrNotAuthor is returned when a write is attempted without author
	// privileges.
	ErrNotAuthor = errors.New("only the author can modify posts")

	// ErrNoDraft is returned by Submit when no draft form is open.
	ErrNoDraft = errors.New("no draft is open")

	// ErrSubmitting is returned when a second submission is attempted while
	// one is already in flight.
	ErrSubmitting = errors.New("a submission is already in flight")
)

// Controller mediates between a post store and an editing surface.
type Controller struct {
	store  store.Store
	log    zerolog.Logger
	author bool

	mu       sync.Mutex
	mode     Mode
	posts    []models.Post
	selected *models.Post
	draft    store.Draft
	editing  models.PostID // zero when the draft is a new post
	cancel   func()
}

// New returns a Controller over st. author grants write access; a controller
// for an anonymous visitor refuses every mutation.
func New(st store.Store, author bool, log zerolog.Logger) *Controller {
	return &Controller{store: st, author: author, log: log}
}

// Start subscribes the controller to the post collection. The snapshot is
// replaced wholesale on every change until Close is called.
func (c *Controller) Start(ctx context.Context) error {
	cancel, err := c.store.SubscribePosts(ctx, c.apply)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return nil
}

// apply installs a fresh snapshot and reconciles the selection against it.
func (c *Controller) apply(posts []models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = posts
	if c.selected == nil {
		return
	}
	for i := range posts {
		if posts[i].ID == c.selected.ID {
			p := posts[i]
			c.selected = &p
			return
		}
	}
	// The selected post was deleted out from under us.
	c.selected = nil
}

// Posts returns the current snapshot, newest first.
func (c *Controller) Posts() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Mode reports the current editing state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Select marks the post with the given id as the one being read. Selecting an
// id missing from the snapshot clears the selection.
func (c *Controller) Select(id models.PostID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.posts {
		if c.posts[i].ID == id {
			p := c.posts[i]
			c.selected = &p
			return
		}
	}
	c.selected = nil
}

// Deselect clears the reading selection.
func (c *Controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// Selected returns a copy of the post being read, or nil.
func (c *Controller) Selected() *models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	p := *c.selected
	return &p
}

// NewDraft opens an empty draft form for a new post.
func (c *Controller) NewDraft() error {
	if !c.author {
		return ErrNotAuthor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSubmitting {
		return ErrSubmitting
	}
	c.mode = ModeDrafting
	c.draft = store.Draft{}
	c.editing = ""
	return nil
}

// EditPost opens a draft form pre-filled from the post with the given id. The
// draft is an independent copy; typing into it never mutates the snapshot.
func (c *Controller) EditPost(id models.PostID) error {
	if !c.author {
		return ErrNotAuthor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSubmitting {
		return ErrSubmitting
	}
	for i := range c.posts {
		if c.posts[i].ID != id {
			continue
		}
		p := c.posts[i]
		d := store.Draft{Title: p.Title, Content: p.Content, Excerpt: p.Excerpt}
		if p.Image != nil {
			d.Image = *p.Image
		}
		c.mode = ModeDrafting
		c.draft = d
		c.editing = id
		return nil
	}
	return store.ErrNotExist
}

// Draft returns the current form contents.
func (c *Controller) Draft() store.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the form contents. It is a no-op unless a draft is open
// and editable.
func (c *Controller) SetDraft(d store.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeDrafting {
		return
	}
	c.draft = d
}

// Cancel discards the draft and returns to idle. Cancelling with no draft
// open is a no-op; cancelling mid-submission is refused so the outcome of the
// in-flight write stays observable.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeIdle:
		return nil
	case ModeSubmitting:
		return ErrSubmitting
	}
	c.mode = ModeIdle
	c.draft = store.Draft{}
	c.editing = ""
	return nil
}

// Submit persists the open draft. A new draft creates a post; a draft opened
// with EditPost updates the original. On failure the draft survives intact so
// nothing typed is lost; on success the form closes.
func (c *Controller) Submit(ctx context.Context) error {
	if !c.author {
		return ErrNotAuthor
	}

	c.mu.Lock()
	switch c.mode {
	case ModeIdle:
		c.mu.Unlock()
		return ErrNoDraft
	case ModeSubmitting:
		c.mu.Unlock()
		return ErrSubmitting
	}
	draft := c.draft
	editing := c.editing
	c.mode = ModeSubmitting
	c.mu.Unlock()

	if err := draft.Validate(); err != nil {
		c.reopen()
		return err
	}

	var err error
	if editing.IsZero() {
		_, err = c.store.CreatePost(ctx, draft)
	} else {
		patch := store.Patch{
			Title:   &draft.Title,
			Content: &draft.Content,
			Excerpt: &draft.Excerpt,
			Image:   &draft.Image,
		}
		err = c.store.UpdatePost(ctx, editing, patch)
	}
	if err != nil {
		c.log.Error().Err(err).Msg("failed to submit draft")
		c.reopen()
		return err
	}
	c.commit(editing, draft)
	return nil
}

// reopen returns to the editable form after a failed submission, with the
// draft contents preserved.
func (c *Controller) reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeDrafting
}

// commit closes the form after a successful submission. When the committed
// draft edited the post currently selected for reading, the selection is
// refreshed in place so the detail view shows the edit immediately instead of
// waiting for the next subscription push.
func (c *Controller) commit(editing models.PostID, draft store.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeIdle
	c.draft = store.Draft{}
	c.editing = ""

	if editing.IsZero() || c.selected == nil || c.selected.ID != editing {
		return
	}
	c.selected.Title = draft.Title
	c.selected.Content = draft.Content
	c.selected.Excerpt = draft.Excerpt
	if img := strings.TrimSpace(draft.Image); img != "" {
		c.selected.Image = &img
	} else {
		c.selected.Image = nil
	}
}

// Delete removes the post with the given id. A deleted post that was selected
// for reading is deselected immediately, not on the next subscription push.
func (c *Controller) Delete(ctx context.Context, id models.PostID) error {
	if !c.author {
		return ErrNotAuthor
	}
	if err := c.store.DeletePost(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
	}
	c.mu.Unlock()
	return nil
}

// Close unsubscribes from the post collection. It is safe to call more than
// once.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
