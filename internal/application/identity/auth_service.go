package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(user *identity.User) (*auth.AccessToken, error)
}

// AuthService handles registration, login and logout
type AuthService struct {
	users     identity.UserRepository
	tokens    TokenIssuer
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	tokens TokenIssuer,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Register creates a customer or vendor account and logs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	role := identity.RoleCustomer
	if input.Role != "" {
		role = identity.Role(input.Role)
	}
	if role == identity.RoleAdmin || !role.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Role must be customer or vendor")
	}

	user, err := identity.NewUser(input.Name, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if taken {
		return nil, identity.ErrEmailTaken
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, identity.ErrEmailTaken
		}
		s.logger.Error("Failed to save user", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()),
	)
	return s.issue(user)
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		// a stale last-login stamp does not block the login
		s.logger.Warn("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return shared.NewDomainError("INVALID_TOKEN", "Token cannot be revoked")
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResponse, error) {
	tok, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err))
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &AuthResponse{
		AccessToken: tok.Token,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
		User:        toUserResponse(user),
	}, nil
}
