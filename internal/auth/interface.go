package auth

import (
	"context"
	"time"

	"github.com/uniconnect/backend/internal/dto"
	"github.com/uniconnect/backend/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for handler tests without requiring a real database.
type AuthServiceInterface interface {
	// Registration and login
	Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error)
	Verify(ctx context.Context, req dto.VerifyRequest) (*AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*AuthResponse, error)

	// Token operations
	Authenticate(ctx context.Context, tokenString string) (*models.User, error)
	ValidateToken(tokenString string) (string, error)
	IssueToken(userID string, ttl time.Duration) (string, time.Time, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
