package services

import (
	"strings"
	"testing"
	"time"

	apierrors "places-api/utils/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials() *CredentialService {
	return NewCredentialService("test-secret", time.Hour, bcrypt.MinCost)
}

func TestCredentialService_HashAndVerify(t *testing.T) {
	c := newTestCredentials()

	hash, err := c.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, c.Verify("secret123", hash))
	assert.False(t, c.Verify("secret124", hash))
	assert.False(t, c.Verify("secret123", "not-a-hash"))
}

func TestCredentialService_HashTooLong(t *testing.T) {
	c := newTestCredentials()

	// bcrypt refuses inputs over 72 bytes.
	_, err := c.Hash(string(make([]byte, 100)))
	assert.ErrorIs(t, err, apierrors.ErrCrypto)
}

func TestCredentialService_TokenRoundTrip(t *testing.T) {
	c := newTestCredentials()

	token, err := c.IssueToken("u1", "a@x.com")
	require.NoError(t, err)

	claims, err := c.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestCredentialService_VerifyRejects(t *testing.T) {
	c := newTestCredentials()

	expiredIssuer := newTestCredentials()
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.IssueToken("u1", "a@x.com")
	require.NoError(t, err)

	otherKey, err := NewCredentialService("other-secret", time.Hour, bcrypt.MinCost).IssueToken("u1", "a@x.com")
	require.NoError(t, err)

	valid, err := c.IssueToken("u1", "a@x.com")
	require.NoError(t, err)
	forged, err := c.IssueToken("u2", "b@x.com")
	require.NoError(t, err)
	validParts := strings.Split(valid, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := validParts[0] + "." + forgedParts[1] + "." + validParts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":        expired,
		"wrong key":      otherKey,
		"tampered":       tampered,
		"garbage":        "not.a.token",
		"empty":          "",
		"none algorithm": none,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.VerifyToken(token)
			assert.ErrorIs(t, err, apierrors.ErrUnauthorized)
		})
	}
}

func TestNewCredentialService_ClampsCost(t *testing.T) {
	c := NewCredentialService("k", time.Hour, 99)
	assert.Equal(t, bcrypt.DefaultCost, c.cost)
}
