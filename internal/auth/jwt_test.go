package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "amira@campus.tn", "amira")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "amira@campus.tn", claims.Email)
	assert.Equal(t, "amira", claims.Username)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Minute)
	verifier := NewService("secret-b", time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New(), "u@x", "u")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Expired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), "u@x", "u")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Garbage(t *testing.T) {
	svc := NewService("test-secret", time.Minute)

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
