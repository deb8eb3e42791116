// Package memory provides an in-memory implementation of the
// [github.com/foliosite/folio/pkg/store.Store] interface.
//
// It honors the same contract as the SurrealDB backend, including the
// subscription semantics: every mutation pushes the full reordered snapshot
// to every subscriber. Tests above the store boundary use it as their
// double, and `folio -memory run` serves from it without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

// Store holds all posts in a map guarded by one mutex. Snapshots handed to
// callers and subscribers are always copies; no caller ever aliases the
// internal map.
type Store struct {
	mu     sync.Mutex
	posts  map[models.PostID]models.Post
	subs   map[int]store.Snapshot
	nextID int
	closed bool

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock, letting tests control timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		posts: make(map[models.PostID]models.Post),
		subs:  make(map[int]store.Snapshot),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreatePost(ctx context.Context, draft store.Draft) (models.PostID, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", &store.WriteError{Op: "create", Err: store.ErrClosed}
	}
	now := s.now()
	id := models.PostID(uuid.NewString())
	post := models.Post{
		ID:        id,
		Title:     draft.Title,
		Content:   draft.Content,
		Excerpt:   draft.Excerpt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// A blank image is true absence, not an empty-string sentinel.
	if img := strings.TrimSpace(draft.Image); img != "" {
		post.Image = &img
	}
	s.posts[id] = post
	fns, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, snap)
	return id, nil
}

func (s *Store) UpdatePost(ctx context.Context, id models.PostID, patch store.Patch) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &store.WriteError{Op: "update", ID: id, Err: store.ErrClosed}
	}
	post, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return &store.WriteError{Op: "update", ID: id, Err: store.ErrNotExist}
	}

	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
	if patch.Image != nil {
		if img := strings.TrimSpace(*patch.Image); img != "" {
			post.Image = &img
		} else {
			// Explicitly blank clears the stored field.
			post.Image = nil
		}
	}

	now := s.now()
	if !now.After(post.UpdatedAt) {
		now = post.UpdatedAt.Add(time.Nanosecond)
	}
	post.UpdatedAt = now

	s.posts[id] = post
	fns, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id models.PostID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &store.WriteError{Op: "delete", ID: id, Err: store.ErrClosed}
	}
	if _, ok := s.posts[id]; !ok {
		s.mu.Unlock()
		return &store.WriteError{Op: "delete", ID: id, Err: store.ErrNotExist}
	}
	delete(s.posts, id)
	fns, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *Store) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &store.ReadError{Op: "get", Err: store.ErrClosed}
	}
	post, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &store.ReadError{Op: "list", Err: store.ErrClosed}
	}
	_, snap := s.snapshotLocked()
	return snap, nil
}

func (s *Store) SubscribePosts(ctx context.Context, fn store.Snapshot) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &store.ReadError{Op: "subscribe", Err: store.ErrClosed}
	}
	key := s.nextID
	s.nextID++
	s.subs[key] = fn
	_, snap := s.snapshotLocked()
	s.mu.Unlock()

	// Initial snapshot, delivered before any later push.
	fn(snap)

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, key)
		s.mu.Unlock()
	}
	return cancel, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]store.Snapshot)
	return nil
}

// snapshotLocked returns the current subscriber set and the ordered post
// list. Callers must hold mu.
func (s *Store) snapshotLocked() ([]store.Snapshot, []models.Post) {
	snap := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		snap = append(snap, p)
	}
	sort.Slice(snap, func(i, j int) bool {
		if !snap[i].CreatedAt.Equal(snap[j].CreatedAt) {
			return snap[i].CreatedAt.After(snap[j].CreatedAt)
		}
		return snap[i].ID < snap[j].ID
	})

	fns := make([]store.Snapshot, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns, snap
}

// notify pushes the snapshot to each subscriber outside the store lock, so a
// callback may call back into the store without deadlocking.
func notify(fns []store.Snapshot, snap []models.Post) {
	for _, fn := range fns {
		fn(snap)
	}
}
