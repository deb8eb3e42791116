package view_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
	"github.com/foliosite/folio/pkg/store/memory"
	"github.com/foliosite/folio/pkg/view"
)

func newController(t *testing.T, author bool) (*view.Controller, *memory.Store) {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { s.Close() })

	c := view.New(s, author, zerolog.Nop())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c, s
}

func TestStartDeliversSnapshot(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	defer s.Close()
	_, err := s.CreatePost(ctx, store.Draft{Title: "seeded", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	c := view.New(s, false, zerolog.Nop())
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	posts := c.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "seeded", posts[0].Title)
}

func TestCreateFlow(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, true)

	assert.Equal(t, view.ModeIdle, c.Mode())
	require.NoError(t, c.NewDraft())
	assert.Equal(t, view.ModeDrafting, c.Mode())

	c.SetDraft(store.Draft{Title: "Hello", Content: "<p>world</p>", Excerpt: "hi"})
	require.NoError(t, c.Submit(ctx))

	assert.Equal(t, view.ModeIdle, c.Mode(), "successful submit closes the form")
	assert.Empty(t, c.Draft().Title, "successful submit discards the draft")

	posts := c.Posts()
	require.Len(t, posts, 1, "the subscription delivered the new post")
	assert.Equal(t, "Hello", posts[0].Title)
}

func TestSubmitWithoutDraft(t *testing.T) {
	c, _ := newController(t, true)
	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, view.ErrNoDraft)
}

func TestSubmitInvalidDraftKeepsForm(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, true)

	require.NoError(t, c.NewDraft())
	c.SetDraft(store.Draft{Title: "only a title"})

	err := c.Submit(ctx)
	require.Error(t, err)
	var verr *store.ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.Equal(t, view.ModeDrafting, c.Mode(), "failed submit reopens the form")
	assert.Equal(t, "only a title", c.Draft().Title, "typed content survives the failure")
	assert.Empty(t, c.Posts(), "nothing was persisted")
}

func TestEditFlow(t *testing.T) {
	ctx := context.Background()
	c, s := newController(t, true)

	id, err := s.CreatePost(ctx, store.Draft{Title: "Old", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	require.NoError(t, c.EditPost(id))
	assert.Equal(t, "Old", c.Draft().Title, "draft is seeded from the post")

	// Typing into the draft never leaks into the snapshot.
	draft := c.Draft()
	draft.Title = "New"
	c.SetDraft(draft)
	assert.Equal(t, "Old", c.Posts()[0].Title)

	require.NoError(t, c.Submit(ctx))
	assert.Equal(t, "New", c.Posts()[0].Title)
}

func TestEditUnknownPost(t *testing.T) {
	c, _ := newController(t, true)
	err := c.EditPost(models.PostID("ghost"))
	assert.ErrorIs(t, err, store.ErrNotExist)
}

func TestCancel(t *testing.T) {
	c, _ := newController(t, true)

	assert.NoError(t, c.Cancel(), "cancel with no draft is a no-op")

	require.NoError(t, c.NewDraft())
	c.SetDraft(store.Draft{Title: "discard me"})
	require.NoError(t, c.Cancel())
	assert.Equal(t, view.ModeIdle, c.Mode())
	assert.Empty(t, c.Draft().Title)
}

func TestSelection(t *testing.T) {
	ctx := context.Background()
	c, s := newController(t, true)

	id, err := s.CreatePost(ctx, store.Draft{Title: "t", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	c.Select(id)
	require.NotNil(t, c.Selected())
	assert.Equal(t, id, c.Selected().ID)

	// An update flows into the selection via the snapshot.
	title := "renamed"
	require.NoError(t, s.UpdatePost(ctx, id, store.Patch{Title: &title}))
	assert.Equal(t, "renamed", c.Selected().Title)

	// Deleting the selected post clears the selection.
	require.NoError(t, s.DeletePost(ctx, id))
	assert.Nil(t, c.Selected())

	c.Select(models.PostID("ghost"))
	assert.Nil(t, c.Selected())
}

func TestAnonymousVisitorCannotWrite(t *testing.T) {
	ctx := context.Background()
	c, s := newController(t, false)

	id, err := s.CreatePost(ctx, store.Draft{Title: "t", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	assert.ErrorIs(t, c.NewDraft(), view.ErrNotAuthor)
	assert.ErrorIs(t, c.EditPost(id), view.ErrNotAuthor)
	assert.ErrorIs(t, c.Submit(ctx), view.ErrNotAuthor)
	assert.ErrorIs(t, c.Delete(ctx, id), view.ErrNotAuthor)

	post, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, post, "nothing was deleted")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, s := newController(t, true)

	id, err := s.CreatePost(ctx, store.Draft{Title: "t", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, id))
	assert.Empty(t, c.Posts())

	err = c.Delete(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotExist, "deleting a vanished post surfaces the failure")
}

// quietStore delivers only the initial subscription snapshot and never pushes
// again, the way a remote backend looks before its change notification has
// round-tripped.
type quietStore struct {
	store.Store
}

func (s *quietStore) SubscribePosts(ctx context.Context, fn store.Snapshot) (func(), error) {
	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	fn(posts)
	return func() {}, nil
}

func TestSubmitRefreshesSelectionBeforePush(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	defer mem.Close()

	id, err := mem.CreatePost(ctx, store.Draft{Title: "Old", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	c := view.New(&quietStore{Store: mem}, true, zerolog.Nop())
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	c.Select(id)
	require.NoError(t, c.EditPost(id))
	draft := c.Draft()
	draft.Title = "New"
	draft.Image = "https://example.com/cover.png"
	c.SetDraft(draft)
	require.NoError(t, c.Submit(ctx))

	// No snapshot push has arrived, yet the detail view already shows the
	// committed edit.
	selected := c.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, "New", selected.Title)
	require.NotNil(t, selected.Image)
	assert.Equal(t, "https://example.com/cover.png", *selected.Image)

	// A committed blank image clears the selection's cover as well.
	require.NoError(t, c.EditPost(id))
	draft = c.Draft()
	draft.Image = ""
	c.SetDraft(draft)
	require.NoError(t, c.Submit(ctx))
	require.NotNil(t, c.Selected())
	assert.Nil(t, c.Selected().Image)
}

func TestDeleteClearsSelectionBeforePush(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	defer mem.Close()

	id, err := mem.CreatePost(ctx, store.Draft{Title: "t", Content: "c", Excerpt: "e"})
	require.NoError(t, err)
	other, err := mem.CreatePost(ctx, store.Draft{Title: "o", Content: "c", Excerpt: "e"})
	require.NoError(t, err)

	c := view.New(&quietStore{Store: mem}, true, zerolog.Nop())
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	c.Select(id)
	require.NoError(t, c.Delete(ctx, id))
	assert.Nil(t, c.Selected(), "deleting the selected post deselects it immediately")

	// Deleting a different post leaves the selection alone.
	c.Select(other)
	ghost := models.PostID("ghost")
	require.Error(t, c.Delete(ctx, ghost))
	require.NotNil(t, c.Selected())
	assert.Equal(t, other, c.Selected().ID)
}

// slowStore delays CreatePost until released, exposing the in-flight window.
type slowStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) CreatePost(ctx context.Context, draft store.Draft) (models.PostID, error) {
	close(s.entered)
	<-s.release
	return s.Store.CreatePost(ctx, draft)
}

func TestDuplicateSubmitRefused(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	defer mem.Close()
	slow := &slowStore{
		Store:   mem,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	c := view.New(slow, true, zerolog.Nop())
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	require.NoError(t, c.NewDraft())
	c.SetDraft(store.Draft{Title: "t", Content: "c", Excerpt: "e"})

	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx) }()
	<-slow.entered

	assert.Equal(t, view.ModeSubmitting, c.Mode())
	assert.ErrorIs(t, c.Submit(ctx), view.ErrSubmitting, "second submit while in flight")
	assert.ErrorIs(t, c.Cancel(), view.ErrSubmitting, "cancel while in flight")

	close(slow.release)
	require.NoError(t, <-done)
	assert.Equal(t, view.ModeIdle, c.Mode())

	posts, err := mem.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1, "exactly one post despite the duplicate attempt")
}
