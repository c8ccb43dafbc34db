package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func TestTokenManagerIssueAndParse(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	user := &domain.User{ID: "u-1", Role: "teacher"}

	session, err := tm.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, WellFormedToken(session.Token))
	assert.Equal(t, 30*time.Minute, session.ExpiresAt.Sub(session.IssuedAt))

	parsed, err := tm.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, parsed.ID)
	assert.Equal(t, "u-1", parsed.UserID)
	assert.Equal(t, "teacher", parsed.Role)
}

func TestTokenManagerRejectsForeignAndExpiredTokens(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	session, err := tm.Issue(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock := newFakeClock()
	tm.now = clock.Now
	expired, err := tm.Issue(&domain.User{ID: "u-2"})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = tm.Parse(expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrInvalidCredentials)
}
