package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/critforge/api/internal/model"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret, Issuer: "critforge-api", TTL: ttl})
	require.NoError(t, err)
	return m
}

func testUser() *model.User {
	return &model.User{
		ID:       "aaaaaaaaaaaaaaaaaaaaaaaa",
		Email:    "dm@example.com",
		Username: "dungeonmaster",
		Role:     model.UserRoleUser,
		Tier:     model.TierSeasoned,
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m := testManager(t, time.Hour)
	signed, err := m.Issue(testUser())
	require.NoError(t, err)

	claims, err := m.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaa", claims.UserID())
	assert.Equal(t, "dm@example.com", claims.Email)
	assert.Equal(t, "dungeonmaster", claims.Username)
	assert.Equal(t, string(model.TierSeasoned), claims.Tier)
	assert.False(t, claims.IsAdmin())
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	m := testManager(t, time.Hour)
	signed, err := m.Issue(testUser())
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	_, err = m.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	m := testManager(t, -time.Minute)
	signed, err := m.Issue(testUser())
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	other, err := NewManager(Config{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour})
	require.NoError(t, err)
	signed, err := other.Issue(testUser())
	require.NoError(t, err)

	m := testManager(t, time.Hour)
	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewManager(Config{Secret: []byte("short")})
	assert.Error(t, err)
}
