package folio

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/foliosite/folio/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The blog is read-anonymously; the feed carries only public data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleFeed upgrades the connection to WebSocket and streams the post list.
// Every message is a complete snapshot, newest first; clients replace their
// local list wholesale rather than applying deltas. The handler blocks until
// the client goes away.
func (a *App) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("feed upgrade failed")
		return
	}
	defer conn.Close()

	// Snapshots outrun slow clients rather than backing up the store's
	// notification pump. Only the freshest pending snapshot matters since
	// each one supersedes the last.
	snapshots := make(chan []models.Post, 1)
	cancel, err := a.store.SubscribePosts(r.Context(), func(posts []models.Post) {
		for {
			select {
			case snapshots <- posts:
				return
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	})
	if err != nil {
		a.log.Error().Err(err).Msg("feed subscription failed")
		return
	}
	defer cancel()

	// Reads only service close frames; the feed is one-way.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case posts := <-snapshots:
			if err := conn.WriteJSON(renderPosts(posts)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
