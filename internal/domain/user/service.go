// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/auth"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Transactor runs fn inside one storage transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Emitter hands events to the broker without blocking
type Emitter interface {
	Emit(topic string, event events.Event)
}

// Service handles user business logic
type Service struct {
	repo            Repository
	tx              Transactor
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	emitter         Emitter
	metrics         metrics.Sink
	logger          logrus.FieldLogger
	now             func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository, tx Transactor, passwords *auth.PasswordManager, tokens *auth.JWTManager,
	emitter Emitter, sink metrics.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:            repo,
		tx:              tx,
		passwordManager: passwords,
		jwtManager:      tokens,
		emitter:         emitter,
		metrics:         sink,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new user account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("email already registered")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	user := &User{
		Email:     email,
		Password:  hashedPassword,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
		Role:      RoleUser,
		IsActive:  true,
	}

	var resp *AuthResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, user); err != nil {
			return err
		}
		resp, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.UserRegistrations, nil)
	s.emitter.Emit(events.TopicUserEvents, events.NewUserRegistered(user.ID, user.Email, user.GetFullName()))

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")

	return resp, nil
}

// Login authenticates a user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		s.logger.WithField("user_id", user.ID).Debug("password mismatch")
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperrors.InvalidState("account is deactivated")
	}

	var resp *AuthResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		user.LastLoginAt = &now
		resp, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return resp, nil
}

// RefreshToken exchanges a live refresh token for a new token pair, revoking the old one
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	var resp *AuthResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.FindRefreshToken(ctx, refreshToken)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized("invalid refresh token")
		}
		if err != nil {
			return err
		}
		if stored.UserID != claims.UserID || !stored.Usable(s.now()) {
			return apperrors.Unauthorized("refresh token expired or revoked")
		}

		user, err := s.repo.FindByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return apperrors.InvalidState("account is deactivated")
		}

		resp, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetProfile gets user profile by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// SetActive activates or deactivates an account. Deactivation also revokes refresh tokens.
func (s *Service) SetActive(ctx context.Context, userID uint, active bool) (*User, error) {
	var user *User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetActive(ctx, userID, active); err != nil {
			return err
		}
		if !active {
			if err := s.repo.RevokeRefreshTokens(ctx, userID); err != nil {
				return err
			}
		}
		var err error
		user, err = s.repo.FindByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"active":  active,
	}).Info("user status changed")
	return user, nil
}

// issueTokens mints a token pair and stores the refresh token as the user's only live one
func (s *Service) issueTokens(ctx context.Context, user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.RevokeRefreshTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveRefreshToken(ctx, &RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: s.now().Add(s.jwtManager.RefreshTokenExpiry()),
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.AccessTokenExpiry().Seconds()),
	}, nil
}
