// Package auth provides registration, login, refresh-token rotation
// and logout over the identity store.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"github.com/example/task-tracker/domain/errs"
	domain "github.com/example/task-tracker/domain/user"
	"github.com/google/uuid"
)

// Password bounds. The upper bound is bcrypt's 72-byte input limit.
const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

// refreshTokenTTL bounds the validity of an opaque refresh token.
const refreshTokenTTL = 7 * 24 * time.Hour

// Service handles authentication business logic. Each user holds at
// most one active refresh token; login and refresh both rotate it.
type Service struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewService creates an auth service.
func NewService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new account with the User role.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	v := errs.NewValidation()
	if _, err := mail.ParseAddress(req.Email); err != nil {
		v.Add("email", "Invalid email format")
	}
	switch {
	case len(req.Password) < minPasswordLength:
		v.Add("password", "Password must be at least 8 characters")
	case len(req.Password) > maxPasswordLength:
		v.Add("password", "Password must be at most 72 characters")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		v.Add("email", "Email is already registered")
		return nil, v.Err()
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[auth] Registered user %s", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token pair, rotating the
// stored refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Printf("[auth] Failed login for %s", email)
		return nil, errs.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// Refresh validates an opaque refresh token and issues a fresh token
// pair, rotating the stored refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}

	if user.RefreshTokenExpiry == nil || !user.RefreshTokenExpiry.After(time.Now()) {
		log.Printf("[auth] Expired refresh token for user %s", user.ID)
		return nil, errs.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the user's active refresh token.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}

	user.RefreshToken = ""
	user.RefreshTokenExpiry = nil
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("[auth] Logged out user %s", userID)
	return nil
}

// ValidateToken validates an access token and returns the principal.
func (s *Service) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// issueTokens signs an access token and rotates the stored refresh
// token.
func (s *Service) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiry := time.Now().UTC().Add(refreshTokenTTL)
	user.RefreshToken = refreshToken
	user.RefreshTokenExpiry = &expiry
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

// generateRefreshToken produces an opaque 32-byte random token.
func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
