package surreal

import (
	"context"
	"sync"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"

	"github.com/foliosite/folio/pkg/models"
	"github.com/foliosite/folio/pkg/store"
)

// SubscribePosts starts a live query on the blogs table. Each notification
// means something changed somewhere in the collection, so the pump re-fetches
// the full ordered snapshot and pushes it; the contract is "full current
// snapshot, at least once", never deltas.
func (s *Store) SubscribePosts(ctx context.Context, fn store.Snapshot) (func(), error) {
	liveID, err := surrealdb.Live(ctx, s.db, models.BlogTable, false)
	if err != nil {
		return nil, &store.ReadError{Op: "subscribe", Err: err}
	}

	notifications, err := s.db.LiveNotifications(liveID.String())
	if err != nil {
		if killErr := surrealdb.Kill(ctx, s.db, liveID.String()); killErr != nil {
			s.log.Warn().Err(killErr).Msg("failed to kill orphaned live query")
		}
		return nil, &store.ReadError{Op: "subscribe", Err: err}
	}

	done := make(chan struct{})
	var (
		once       sync.Once
		unregister func()
	)
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := surrealdb.Kill(context.Background(), s.db, liveID.String()); err != nil {
				s.log.Warn().Err(err).Msg("failed to kill live query")
			}
			unregister()
		})
	}
	unregister = s.register(cancel)

	go s.pump(notifications, done, fn)

	// Immediate initial snapshot; degrade to empty on a read failure rather
	// than leaving the subscriber without a first push.
	posts, err := s.ListPosts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("initial snapshot fetch failed, delivering empty list")
		posts = []models.Post{}
	}
	fn(posts)

	return cancel, nil
}

// pump delivers one snapshot per live notification until the subscription is
// cancelled or the channel closes underneath us.
func (s *Store) pump(notifications chan connection.Notification, done <-chan struct{}, fn store.Snapshot) {
	for {
		select {
		case <-done:
			return
		case _, ok := <-notifications:
			if !ok {
				// Transport gone. Documented fallback: an empty snapshot and
				// a log line, not a crash.
				s.log.Error().Msg("live query channel closed, delivering empty list")
				select {
				case <-done:
				default:
					fn([]models.Post{})
				}
				return
			}

			posts, err := s.ListPosts(context.Background())
			if err != nil {
				s.log.Error().Err(err).Msg("snapshot fetch failed, delivering empty list")
				posts = []models.Post{}
			}

			select {
			case <-done:
				return
			default:
				fn(posts)
			}
		}
	}
}
