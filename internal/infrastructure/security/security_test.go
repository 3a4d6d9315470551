package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, sid, err := GenerateSessionToken("admin", secret, time.Hour)
	require.NoError(t, err)
	assert.Len(t, sid, 26)

	claims, err := ValidateJWT(token, secret, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, sid, claims.SessionID)

	_, err = ValidateJWT(token, "another-secret", PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateJWT(token, secret, PurposeNonce)
	assert.ErrorIs(t, err, ErrInvalidToken, "a session token is not a nonce")
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _, err := GenerateSessionToken("editor", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(token, secret, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNonceBoundToSession(t *testing.T) {
	nonce, err := GenerateNonce("session-a", secret, time.Hour)
	require.NoError(t, err)

	assert.NoError(t, ValidateNonce(nonce, "session-a", secret))
	assert.ErrorIs(t, ValidateNonce(nonce, "session-b", secret), ErrNonceMismatch)
}

func TestGenerators(t *testing.T) {
	assert.NotEqual(t, GenerateULID(), GenerateULID())
	key, err := GenerateSecureKey(64)
	require.NoError(t, err)
	assert.Len(t, key, 64)
}
