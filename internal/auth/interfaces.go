package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/internal/database/models"
)

// Authenticator defines the credential store operations.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	SetAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uuid.UUID) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ TokenService  = (*JWTService)(nil)
)
