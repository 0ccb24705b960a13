package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

func newTestTokenService(signingKey string, ttl time.Duration) TokenService {
	return NewTokenService(zerolog.Nop(), "go-tasklist", signingKey, ttl)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestTokenService(testSigningKey, 24*time.Hour)

	token, expiresAt, err := svc.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc := newTestTokenService(testSigningKey, -time.Minute)

	token, _, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_VerifyJustBeforeExpiry(t *testing.T) {
	svc := newTestTokenService(testSigningKey, 2*time.Second)

	token, _, err := svc.Issue("user-1")
	require.NoError(t, err)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_VerifyWrongSecret(t *testing.T) {
	issuer := newTestTokenService(testSigningKey, 24*time.Hour)
	verifier := newTestTokenService("another-signing-key", 24*time.Hour)

	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_VerifyWrongIssuer(t *testing.T) {
	issuer := NewTokenService(zerolog.Nop(), "someone-else", testSigningKey, 24*time.Hour)
	verifier := newTestTokenService(testSigningKey, 24*time.Hour)

	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_VerifyGarbage(t *testing.T) {
	svc := newTestTokenService(testSigningKey, 24*time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}
