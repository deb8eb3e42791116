package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliosite/folio/pkg/auth"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	svc, err := auth.New(auth.Config{
		AuthorEmail:        "author@example.com",
		AuthorPasswordHash: hash,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestSignInAndVerify(t *testing.T) {
	svc := newService(t)

	token, err := svc.SignIn("author@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "author@example.com", user.Email)
	assert.True(t, svc.IsAuthor(user))
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newService(t)

	_, err := svc.SignIn("author@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.SignIn("visitor@example.com", "correct horse")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignInIgnoresEmailCase(t *testing.T) {
	svc := newService(t)
	_, err := svc.SignIn("  Author@Example.COM ", "correct horse")
	assert.NoError(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newService(t)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	other, err := auth.New(auth.Config{
		AuthorEmail:        "author@example.com",
		AuthorPasswordHash: hash,
		JWTSecret:          "different-secret",
		TokenTTL:           time.Hour,
	})
	require.NoError(t, err)

	token, err := other.SignIn("author@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := auth.New(auth.Config{AuthorEmail: "a@b.c"})
	assert.Error(t, err, "missing secret")

	_, err = auth.New(auth.Config{JWTSecret: "s"})
	assert.Error(t, err, "missing author email")
}

func TestIsAuthor(t *testing.T) {
	svc := newService(t)
	assert.False(t, svc.IsAuthor(nil))
	assert.False(t, svc.IsAuthor(&auth.User{Email: "visitor@example.com"}))
	assert.True(t, svc.IsAuthor(&auth.User{Email: "AUTHOR@example.com"}))
}
