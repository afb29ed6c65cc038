package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the identity embedded in a signed token.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType string    `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token couple issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTManager issues and verifies HS256 tokens.
type JWTManager struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewJWTManager creates a token manager from JWT configuration.
// When no dedicated refresh secret is configured the access secret is reused.
func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTManager{
		secret:        []byte(cfg.Secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     cfg.AccessTokenExpiration,
		refreshTTL:    cfg.RefreshTokenExpiration,
		issuer:        cfg.Issuer,
	}
}

// GeneratePair issues a new access/refresh token pair for the user.
func (m *JWTManager) GeneratePair(userID uuid.UUID, email, role string) (*TokenPair, error) {
	access, err := m.generate(userID, email, role, TokenTypeAccess, m.accessTTL, m.secret)
	if err != nil {
		return nil, err
	}
	refresh, err := m.generate(userID, email, role, TokenTypeRefresh, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *JWTManager) generate(userID uuid.UUID, email, role, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccess validates an access token and returns its claims.
func (m *JWTManager) VerifyAccess(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeAccess, m.secret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *JWTManager) VerifyRefresh(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeRefresh, m.refreshSecret)
}

func (m *JWTManager) verify(tokenString, wantType string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, shared.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != wantType {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}
