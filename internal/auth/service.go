package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cartsvc "github.com/shinwarieats/restaurant-backend/internal/cart"
	"github.com/shinwarieats/restaurant-backend/internal/loyalty"
	"github.com/shinwarieats/restaurant-backend/internal/users"
	authpkg "github.com/shinwarieats/restaurant-backend/pkg/auth"
	"github.com/shinwarieats/restaurant-backend/pkg/auth/session"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
	"github.com/shinwarieats/restaurant-backend/pkg/security"
)

// TokenPair is what clients receive on login, register, and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// Service defines authentication operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, *TokenPair, error)
	Login(ctx context.Context, email, password, clientIP string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

// RateLimiter is the fixed-window limiter surface used to slow brute force.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	userRepo users.Repository
	txRunner txRunner
	sessions sessionManager
	limiter  RateLimiter
	loyalty  loyalty.Service
	carts    cartsvc.Service
	outbox   *outbox.Service
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	limits   config.AuthRateLimitConfig
	logg     *logger.Logger
}

// NewService wires the auth service and validates its dependencies.
func NewService(
	userRepo users.Repository,
	runner txRunner,
	sessions sessionManager,
	limiter RateLimiter,
	loyaltySvc loyalty.Service,
	cartSvc cartsvc.Service,
	outboxSvc *outbox.Service,
	jwtCfg config.JWTConfig,
	pwCfg config.PasswordConfig,
	limits config.AuthRateLimitConfig,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{
		userRepo: userRepo,
		txRunner: runner,
		sessions: sessions,
		limiter:  limiter,
		loyalty:  loyaltySvc,
		carts:    cartSvc,
		outbox:   outboxSvc,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		limits:   limits,
		logg:     logg,
	}, nil
}

// Register creates the account together with its cart and loyalty profile
// inside one transaction.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, *TokenPair, error) {
	email := users.NormalizeEmail(input.Email)
	if email == "" {
		return nil, nil, errors.New(errors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, nil, errors.New(errors.CodeValidation, "password must be at least 8 characters")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, nil, errors.New(errors.CodeValidation, "full name is required")
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "ux_users_email") {
				return errors.New(errors.CodeConflict, "an account with this email already exists")
			}
			return err
		}
		if _, err := s.carts.EnsureCart(ctx, tx, user.ID); err != nil {
			return err
		}
		if _, err := s.loyalty.EnsureProfile(ctx, tx, user.ID); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventUserRegistered,
				AggregateType: enums.AggregateUser,
				AggregateID:   user.ID,
				Data:          map[string]string{"email": user.Email, "full_name": user.FullName},
				Version:       1,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies credentials under fixed-window rate limits keyed by email
// and client IP.
func (s *service) Login(ctx context.Context, email, password, clientIP string) (*models.User, *TokenPair, error) {
	email = users.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, errors.New(errors.CodeValidation, "email and password are required")
	}

	if err := s.allowLogin(ctx, email, clientIP); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, errors.New(errors.CodeUnauthorized, "account is disabled")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates the session tied to the (possibly expired) access token.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := authpkg.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if stderrors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, errors.New(errors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, err
	}

	signed, err := authpkg.MintAccessToken(s.jwtCfg, time.Now(), authpkg.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: signed, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New(errors.CodeValidation, "access id is required")
	}
	return s.sessions.Revoke(ctx, accessID)
}

func (s *service) mintPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	signed, err := authpkg.MintAccessToken(s.jwtCfg, time.Now(), authpkg.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: signed, RefreshToken: refresh}, nil
}

func (s *service) allowLogin(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limits.LoginEmailLimit), s.limits.LoginWindow)
	if err != nil {
		// limiter outage must not lock everyone out
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "login rate limiter unavailable")
		}
		return nil
	}
	if !allowed {
		return errors.New(errors.CodeRateLimit, "too many login attempts, try again later")
	}
	if clientIP != "" {
		allowed, _, err = s.limiter.FixedWindowAllow(ctx, "login:ip:"+clientIP, int64(s.limits.LoginIPLimit), s.limits.LoginWindow)
		if err == nil && !allowed {
			return errors.New(errors.CodeRateLimit, "too many login attempts, try again later")
		}
	}
	return nil
}
