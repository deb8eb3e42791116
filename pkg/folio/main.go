package folio

import (
	"context"
	"fmt"
)

// Main is the entry point for the folio server. It parses args and the
// environment, builds the application, and serves until ctx is cancelled.
// Tests call it directly instead of building the binary.
//
// Environment variables:
//
//	PORT                  - HTTP port (default: 8080)
//	SURREALDB_URL         - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS          - SurrealDB namespace (default: folio)
//	SURREALDB_DB          - SurrealDB database (default: folio)
//	SURREALDB_USER        - SurrealDB username (default: root)
//	SURREALDB_PASS        - SurrealDB password (default: root)
//	AUTHOR_EMAIL          - the one email allowed to modify posts
//	AUTHOR_PASSWORD_HASH  - bcrypt hash of the author's password
//	JWT_SECRET            - session token signing key
//	AUTH_TOKEN_TTL        - session lifetime (default: 24h)
//	MINIO_ENDPOINT        - object store endpoint; unset disables image uploads
//	MINIO_ACCESS_KEY      - object store access key
//	MINIO_SECRET_KEY      - object store secret key
//	MINIO_BUCKET          - image bucket (default: folio-images)
//	MINIO_PUBLIC_URL      - base URL readers fetch images from
func Main(ctx context.Context, args []string) error {
	config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
