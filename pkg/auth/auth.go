// Package auth is the identity collaborator for the folio blog.
//
// There is exactly one privileged author. Sign-in verifies the configured
// author credentials and issues a signed JWT; every write endpoint verifies
// the token server-side before the repository is touched.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for a wrong email or password. The
	// message is deliberately the same for both.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for a missing, malformed, expired, or
	// tampered session token.
	ErrInvalidToken = errors.New("invalid session token")
)

// User identifies a signed-in account.
type User struct {
	Email string `json:"email"`
}

// Config holds the identity settings.
type Config struct {
	// AuthorEmail is the one privileged address allowed to modify posts.
	AuthorEmail string
	// AuthorPasswordHash is the bcrypt hash of the author's password.
	AuthorPasswordHash string
	// JWTSecret signs session tokens.
	JWTSecret string
	// TokenTTL bounds how long a session token is honored.
	TokenTTL time.Duration
}

// Service issues and verifies session tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// New returns a Service for the given configuration.
func New(cfg Config) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: JWT secret is not set")
	}
	if cfg.AuthorEmail == "" {
		return nil, errors.New("auth: author email is not set")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{cfg: cfg, now: time.Now}, nil
}

// SignIn verifies the credentials and returns a session token.
func (s *Service) SignIn(email, password string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.AuthorEmail) {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AuthorPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   s.cfg.AuthorEmail,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and returns the user it identifies.
func (s *Service) Verify(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &User{Email: claims.Subject}, nil
}

// IsAuthor reports whether u is the privileged author.
func (s *Service) IsAuthor(u *User) bool {
	return u != nil && strings.EqualFold(u.Email, s.cfg.AuthorEmail)
}

// HashPassword produces the bcrypt hash SignIn checks against. It exists so
// deployments can generate AUTHOR_PASSWORD_HASH without extra tooling.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
