package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
)

// LoginInput carries a login request.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshInput carries a token refresh request.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Service handles authentication and account lookups.
type Service struct {
	users     domain.UserRepository
	tokens    *auth.JWTManager
	blacklist auth.TokenBlacklist
	log       *zap.Logger
}

func NewService(users domain.UserRepository, tokens *auth.JWTManager, blacklist auth.TokenBlacklist, log *zap.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		log:       log,
	}
}

// Login verifies credentials and issues a token pair. Failed lookups and bad
// passwords return the same error so the response never leaks which part
// was wrong.
func (s *Service) Login(ctx context.Context, in LoginInput) (*auth.TokenPair, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !u.IsActive || !u.CheckPassword(in.Password) {
		return nil, nil, shared.ErrInvalidCredentials
	}

	pair, err := s.tokens.GeneratePair(u.ID, u.Email, u.Role.String())
	if err != nil {
		return nil, nil, err
	}

	u.RecordLogin()
	if err := s.users.Save(ctx, u); err != nil {
		s.log.Warn("failed to record login time", zap.Error(err))
	}

	s.log.Info("user logged in", zap.String("user_id", u.ID.String()))
	return pair, u, nil
}

// Refresh rotates a refresh token: the old token is revoked and a fresh pair
// issued, so a stolen refresh token stops working after first use.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (*auth.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !u.IsActive {
		return nil, shared.ErrInvalidToken
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.log.Warn("failed to revoke rotated refresh token", zap.Error(err))
	}

	return s.tokens.GeneratePair(u.ID, u.Email, u.Role.String())
}

// Logout revokes the presented access token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Me loads the authenticated user's account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}
