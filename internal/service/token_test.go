package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret-which-is-long-enough-123", 15*time.Minute)
	userID := uuid.New()

	token, exp, err := m.IssueAccess(userID, "talent")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "talent", id.Role)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a-secret-a-secret-a-secret-a", time.Minute)
	verifier := NewTokenManager("secret-b-secret-b-secret-b-secret-b", time.Minute)

	token, _, err := issuer.IssueAccess(uuid.New(), "client")
	require.NoError(t, err)

	_, err = verifier.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret-which-is-long-enough-123", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.IssueAccess(uuid.New(), "client")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsBadSubject(t *testing.T) {
	secret := "test-secret-which-is-long-enough-123"
	m := NewTokenManager(secret, time.Minute)

	for name, claims := range map[string]jwt.MapClaims{
		"missing sub": {"exp": time.Now().Add(time.Minute).Unix()},
		"not a uuid":  {"sub": "user-1", "exp": time.Now().Add(time.Minute).Unix()},
		"nil uuid":    {"sub": uuid.Nil.String(), "exp": time.Now().Add(time.Minute).Unix()},
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			require.NoError(t, err)
			_, err = m.ParseAccess(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := NewTokenManager("test-secret-which-is-long-enough-123", time.Minute)
	_, err := m.ParseAccess("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
