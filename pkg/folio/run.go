package folio

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server and blocks until ctx is cancelled or the server
// fails.
//
// # API Endpoints
//
// Posts:
//
//	GET    /api/posts        - List all posts, newest first
//	POST   /api/posts        - Create a post (author only)
//	GET    /api/posts/{id}   - Get one post
//	PUT    /api/posts/{id}   - Update a post (author only)
//	DELETE /api/posts/{id}   - Delete a post (author only)
//	GET    /api/posts/feed   - WebSocket stream of post list snapshots
//
// Authentication:
//
//	POST /api/auth/signin    - Exchange credentials for a session token
//	POST /api/auth/signout   - End the session
//	GET  /api/auth/me        - Get the signed-in user
//
// Images:
//
//	POST /api/images         - Upload a cover image (author only)
//
// Health:
//
//	GET /health              - Service health status
//
// On shutdown the server gives in-flight requests up to 5 seconds to finish.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.config.ServerPort),
		Handler: a.Handler(),
	}

	a.log.Info().Str("addr", server.Addr).Msg("starting folio server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Handler builds the route table. It is split out from Run so tests can mount
// it on an httptest server.
func (a *App) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(a.logRequests)

	api := router.PathPrefix("/api").Subrouter()

	// The feed route must beat the {id} route.
	api.HandleFunc("/posts/feed", a.handleFeed).Methods("GET")

	api.HandleFunc("/posts", a.handleListPosts).Methods("GET")
	api.Handle("/posts", a.requireAuthor(a.handleCreatePost)).Methods("POST")
	api.HandleFunc("/posts/{id}", a.handleGetPost).Methods("GET")
	api.Handle("/posts/{id}", a.requireAuthor(a.handleUpdatePost)).Methods("PUT")
	api.Handle("/posts/{id}", a.requireAuthor(a.handleDeletePost)).Methods("DELETE")

	api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleGetCurrentUser).Methods("GET")

	api.Handle("/images", a.requireAuthor(a.handleUploadImage)).Methods("POST")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}
