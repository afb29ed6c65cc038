package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func testManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "storefront-test",
	})
}

func TestJWTManager_GenerateAndVerify(t *testing.T) {
	m := testManager()
	userID := uuid.New()

	pair, err := m.GeneratePair(userID, "user@example.com", "customer")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestJWTManager_RejectsWrongTokenType(t *testing.T) {
	m := testManager()
	pair, err := m.GeneratePair(uuid.New(), "user@example.com", "customer")
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.Error(t, err)

	_, err = m.VerifyRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTManager_RejectsTamperedToken(t *testing.T) {
	m := testManager()
	pair, err := m.GeneratePair(uuid.New(), "user@example.com", "customer")
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken + "x")
	assert.Error(t, err)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	other := NewJWTManager(config.JWTConfig{
		Secret:                 "another-secret-another-secret-12345",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
	})
	pair, err := other.GeneratePair(uuid.New(), "user@example.com", "customer")
	require.NoError(t, err)

	_, err = testManager().VerifyAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := NewJWTManager(config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
	})
	pair, err := m.GeneratePair(uuid.New(), "user@example.com", "customer")
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken)
	assert.Error(t, err)
}
