// Package folio is the HTTP application serving a single-author blog. It
// wires a post store (SurrealDB or in-memory), the auth service, and an
// optional image store behind a JSON API.
package folio

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/foliosite/folio/pkg/auth"
	"github.com/foliosite/folio/pkg/storage"
	"github.com/foliosite/folio/pkg/store"
	"github.com/foliosite/folio/pkg/store/memory"
	"github.com/foliosite/folio/pkg/store/surreal"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string

	// InMemory selects the in-memory store instead of SurrealDB. Useful for
	// local development and tests; data does not survive a restart.
	InMemory bool

	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	Auth    auth.Config
	Storage storage.Config
}

// App holds the application state.
type App struct {
	store  store.Store
	auth   *auth.Service
	images *storage.ImageStore
	config *Config
	log    zerolog.Logger
}

// New creates the application: it connects the configured post store, builds
// the auth service, and connects the image store when one is configured.
func New(ctx context.Context, config *Config) (*App, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	app := &App{config: config, log: log}

	var err error
	app.auth, err = auth.New(config.Auth)
	if err != nil {
		return nil, err
	}

	if config.InMemory {
		app.store = memory.New()
		log.Info().Msg("using in-memory post store")
	} else {
		app.store, err = surreal.Open(ctx, surreal.Config{
			URL:       config.SurrealDBURL,
			Namespace: config.SurrealDBNS,
			Database:  config.SurrealDBDB,
			Username:  config.SurrealDBUser,
			Password:  config.SurrealDBPass,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		log.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")
	}

	if config.Storage.Enabled() {
		app.images, err = storage.New(ctx, config.Storage)
		if err != nil {
			app.store.Close()
			return nil, err
		}
		log.Info().Str("endpoint", config.Storage.Endpoint).Msg("connected to object store")
	}

	return app, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying post store, which tests use to seed data.
func (a *App) Store() store.Store {
	return a.store
}

// getEnv returns the environment variable value, or defaultValue when the
// variable is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
