// Package surreal provides the SurrealDB implementation of the
// [github.com/foliosite/folio/pkg/store.Store] interface.
//
// Posts live as documents in the `blogs` table. Reads use parameterized
// SurrealQL ordered by createdAt descending; the subscription rides the
// database's live-query push channel and re-delivers the full ordered
// snapshot on every notification, never deltas.
//
// The connection uses the surrealcbor codec so time.Time and record IDs
// marshal in SurrealDB's native format, and is constructed explicitly so the
// client object has a well-defined open/close lifecycle instead of being an
// ambient singleton.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

// Config holds the connection settings for the blog collection.
type Config struct {
	// URL is the RPC endpoint, e.g. ws://localhost:8000/rpc.
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store is a SurrealDB-backed post repository.
type Store struct {
	db  *surrealdb.DB
	log zerolog.Logger

	mu      sync.Mutex
	now     func() time.Time
	subs    map[int]func() // cancel funcs for subscriptions still open
	nextSub int
}

// Open connects, authenticates, and selects the namespace and database. The
// returned Store must be closed by the caller.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SurrealDB URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// surrealcbor keeps time.Time and RecordID values in SurrealDB's own
	// encoding; the default codec mangles datetimes.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	log.Info().
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("connected to SurrealDB")

	return &Store{db: db, log: log, now: time.Now, subs: make(map[int]func())}, nil
}

func (s *Store) CreatePost(ctx context.Context, draft store.Draft) (models.PostID, error) {
	now := s.now()
	data := map[string]any{
		"title":     draft.Title,
		"content":   draft.Content,
		"excerpt":   draft.Excerpt,
		"createdAt": now,
		"updatedAt": now,
	}
	// Omit the image key entirely when blank so the stored document does not
	// accumulate a dead field.
	if img := strings.TrimSpace(draft.Image); img != "" {
		data["image"] = img
	}

	rec, err := surrealdb.Create[postRecord](ctx, s.db, models.BlogTable, data)
	if err != nil {
		return "", &store.WriteError{Op: "create", Err: err}
	}
	if rec == nil || rec.ID == nil {
		return "", &store.WriteError{Op: "create", Err: fmt.Errorf("no record ID in create response")}
	}
	return models.PostID(fmt.Sprint(rec.ID.ID)), nil
}

func (s *Store) UpdatePost(ctx context.Context, id models.PostID, patch store.Patch) error {
	query, vars := buildUpdate(id, patch, s.now())

	result, err := surrealdb.Query[[]postRecord](ctx, s.db, query, vars)
	if err != nil {
		return &store.WriteError{Op: "update", ID: id, Err: err}
	}
	// UPDATE of an unknown record id succeeds with an empty result set.
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return &store.WriteError{Op: "update", ID: id, Err: store.ErrNotExist}
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id models.PostID) error {
	// RETURN BEFORE distinguishes deleting a record from deleting nothing.
	result, err := surrealdb.Query[[]postRecord](ctx, s.db,
		"DELETE $id RETURN BEFORE",
		map[string]any{"id": id.RecordID()},
	)
	if err != nil {
		return &store.WriteError{Op: "delete", ID: id, Err: err}
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return &store.WriteError{Op: "delete", ID: id, Err: store.ErrNotExist}
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	rec, err := surrealdb.Select[postRecord](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &store.ReadError{Op: "get", Err: err}
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	post, err := rec.toPost()
	if err != nil {
		return nil, &store.ReadError{Op: "get", Err: err}
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	result, err := surrealdb.Query[[]postRecord](ctx, s.db,
		"SELECT * FROM type::table($tb) ORDER BY createdAt DESC",
		map[string]any{"tb": models.BlogTable},
	)
	if err != nil {
		return nil, &store.ReadError{Op: "list", Err: err}
	}

	var posts []models.Post
	if result != nil && len(*result) > 0 {
		for _, rec := range (*result)[0].Result {
			post, err := rec.toPost()
			if err != nil {
				// Reject malformed documents at the boundary instead of
				// constructing a partial Post.
				return nil, &store.ReadError{Op: "list", Err: err}
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// isNotFound reports whether err is how some server versions describe a
// missing record, as opposed to returning an empty result.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// register tracks a subscription's cancel func so Close can terminate it. The
// returned unregister drops the entry again once the subscription ends, so a
// server with churning subscribers does not accumulate dead closures.
func (s *Store) register(cancel func()) (unregister func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = cancel
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, key)
	}
}

// Close terminates open subscriptions and the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	cancels := make([]func(), 0, len(s.subs))
	for _, cancel := range s.subs {
		cancels = append(cancels, cancel)
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return s.db.Close(context.Background())
}
