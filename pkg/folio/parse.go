package folio

import (
	"flag"
	"time"

	"github.com/joho/godotenv"

	"github.com/foliosite/folio/pkg/auth"
	"github.com/foliosite/folio/pkg/storage"
)

// Parse parses command line arguments and the environment into a Config.
// Flags win over environment variables; a .env file, when present, seeds the
// environment without overriding values already set.
func Parse(args []string) (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	flagSet := flag.NewFlagSet("folio", flag.ContinueOnError)

	var (
		port     = flagSet.String("port", getEnv("PORT", "8080"), "Server port")
		inMemory = flagSet.Bool("memory", false, "Use the in-memory post store instead of SurrealDB")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	tokenTTL, err := time.ParseDuration(getEnv("AUTH_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServerPort: *port,
		InMemory:   *inMemory,

		SurrealDBURL:  getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNS:   getEnv("SURREALDB_NS", "folio"),
		SurrealDBDB:   getEnv("SURREALDB_DB", "folio"),
		SurrealDBUser: getEnv("SURREALDB_USER", "root"),
		SurrealDBPass: getEnv("SURREALDB_PASS", "root"),

		Auth: auth.Config{
			AuthorEmail:        getEnv("AUTHOR_EMAIL", ""),
			AuthorPasswordHash: getEnv("AUTHOR_PASSWORD_HASH", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenTTL:           tokenTTL,
		},

		Storage: storage.Config{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "folio-images"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
	}

	return config, nil
}
