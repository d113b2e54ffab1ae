package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/dto"
	"github.com/uniconnect/backend/internal/email"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = apperrors.Conflict("User already exists")
	ErrUsernameExists     = apperrors.Conflict("Username already taken")
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password")
	ErrUserNotFound       = apperrors.BadRequest("User not found")
	ErrAlreadyVerified    = apperrors.BadRequest("User already verified")
	ErrCodeExpired        = apperrors.BadRequest("Code expired")
	ErrInvalidCode        = apperrors.BadRequest("Invalid code")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service handles all authentication operations
type Service struct {
	users     repository.UserRepository
	mailer    email.Sender
	jwtSecret []byte

	loginTokenTTL    time.Duration
	verifiedTokenTTL time.Duration
	codeTTL          time.Duration

	now      func() time.Time
	makeCode func() (string, error)
}

// NewService creates a new authentication service
func NewService(users repository.UserRepository, mailer email.Sender, cfg config.AuthConfig) *Service {
	if mailer == nil {
		mailer = email.LogSender{}
	}
	return &Service{
		users:            users,
		mailer:           mailer,
		jwtSecret:        []byte(cfg.JWTSecret),
		loginTokenTTL:    cfg.LoginTokenTTL,
		verifiedTokenTTL: cfg.VerifiedTokenTTL,
		codeTTL:          cfg.VerificationCodeTTL,
		now:              time.Now,
		makeCode:         generateCode,
	}
}

// AuthResponse is a signed token plus the user it was issued for
type AuthResponse struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// Register creates an unverified account and emails it a 4-digit code
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetUserByEmail(ctx, emailAddr); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	code, err := s.makeCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	expires := s.now().Add(s.codeTTL)
	user := &models.User{
		Name:                    req.Name,
		Username:                req.Username,
		Institute:               req.Institute,
		Email:                   emailAddr,
		PasswordHash:            string(passwordHash),
		VerificationCodeHash:    string(codeHash),
		VerificationCodeExpires: &expires,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		logger.Log.Error("Failed to send verification code",
			logger.WithUserID(user.ID),
			zap.Error(err),
		)
		return nil, apperrors.InternalError("Failed to send verification email")
	}

	return user, nil
}

// Verify checks the emailed code, marks the account verified and logs it in
func (s *Service) Verify(ctx context.Context, req dto.VerifyRequest) (*AuthResponse, error) {
	user, err := s.users.GetUser(ctx, req.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if user.VerificationCodeExpires == nil || user.VerificationCodeExpires.Before(s.now()) {
		return nil, ErrCodeExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(user.VerificationCodeHash), []byte(req.Code)) != nil {
		return nil, ErrInvalidCode
	}

	err = s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"is_verified":               true,
		"verification_code_hash":    "",
		"verification_code_expires": nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	user.IsVerified = true
	user.VerificationCodeHash = ""
	user.VerificationCodeExpires = nil

	return s.issue(user, s.verifiedTokenTTL)
}

// Login authenticates with email/password
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user, s.loginTokenTTL)
}

// Authenticate validates a token and loads its user
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}
	return user, err
}

// ValidateToken checks signature and expiry and returns the user id claim
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return userID, nil
}

// IssueToken signs a token for userID valid for ttl
func (s *Service) IssueToken(userID string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func (s *Service) issue(user *models.User, ttl time.Duration) (*AuthResponse, error) {
	token, expiresAt, err := s.IssueToken(user.ID, ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

// generateCode returns a uniformly random code in 1000-9999
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
