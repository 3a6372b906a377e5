package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/internal/users"
	pkgauth "github.com/sliceline/pizzeria-backend/pkg/auth"
	"github.com/sliceline/pizzeria-backend/pkg/auth/session"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
	"github.com/sliceline/pizzeria-backend/pkg/security"
)

// purposeRegister namespaces the signup verification flow in redis.
const purposeRegister = "register"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
	OTPCodeKey(purpose, userID string) string
	OTPAttemptsKey(purpose, userID string) string
	OTPResendKey(purpose, userID string) string
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes registration, OTP verification, and session lifecycle.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterResponse, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*SessionResponse, error)
	ResendOTP(ctx context.Context, input ResendOTPInput) error
	Login(ctx context.Context, input LoginInput) (*SessionResponse, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users    users.Repository
	tx       txRunner
	store    otpStore
	sessions sessionManager
	sender   CodeSender
	jwt      config.JWTConfig
	otp      config.OTPConfig
	password config.PasswordConfig
	now      func() time.Time
}

// NewService builds an auth service with the required dependencies.
func NewService(
	userRepo users.Repository,
	tx txRunner,
	store otpStore,
	sessions sessionManager,
	sender CodeSender,
	jwtCfg config.JWTConfig,
	otpCfg config.OTPConfig,
	passwordCfg config.PasswordConfig,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if sender == nil {
		return nil, fmt.Errorf("code sender required")
	}
	return &service{
		users:    userRepo,
		tx:       tx,
		store:    store,
		sessions: sessions,
		sender:   sender,
		jwt:      jwtCfg,
		otp:      otpCfg,
		password: passwordCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisterResponse, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user := &models.User{
			Email:        email,
			Phone:        strings.TrimSpace(input.Phone),
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			Role:         enums.UserRoleCustomer,
			IsActive:     true,
		}
		created, err = repo.Create(ctx, user)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.issueCode(ctx, created); err != nil {
		return nil, err
	}
	return &RegisterResponse{User: users.ToResponse(created)}, nil
}

func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*SessionResponse, error) {
	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already verified")
	}

	codeKey := s.store.OTPCodeKey(purposeRegister, user.ID.String())
	attemptsKey := s.store.OTPAttemptsKey(purposeRegister, user.ID.String())

	stored, err := s.store.Get(ctx, codeKey)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.Validation("verification code expired, request a new one")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}

	attempts, err := s.store.IncrWithTTL(ctx, attemptsKey, s.otp.TTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track verification attempts")
	}
	if attempts > int64(s.otp.MaxAttempts) {
		// burn the code so a brute force has to restart via resend
		_ = s.store.Del(ctx, codeKey)
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification attempts")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(input.Code))) != 1 {
		return nil, pkgerrors.Validation("invalid verification code")
	}

	if err := s.users.Update(ctx, user.ID, map[string]any{"is_verified": true}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark account verified")
	}
	_ = s.store.Del(ctx, codeKey, attemptsKey, s.store.OTPResendKey(purposeRegister, user.ID.String()))

	user.IsVerified = true
	return s.openSession(ctx, user)
}

func (s *service) ResendOTP(ctx context.Context, input ResendOTPInput) error {
	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return pkgerrors.New(pkgerrors.CodeConflict, "account already verified")
	}

	resendKey := s.store.OTPResendKey(purposeRegister, user.ID.String())
	allowed, err := s.store.SetNX(ctx, resendKey, "1", s.otp.ResendWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check resend window")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "a code was sent recently, try again later")
	}
	return s.issueCode(ctx, user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*SessionResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	if !user.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email not verified")
	}

	return s.openSession(ctx, user)
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) openSession(ctx context.Context, user *models.User) (*SessionResponse, error) {
	accessID := session.NewAccessID()
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &SessionResponse{
		User:   users.ToResponse(user),
		Tokens: TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

func (s *service) issueCode(ctx context.Context, user *models.User) error {
	code, err := security.GenerateOTP(s.otp.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	id := user.ID.String()
	if err := s.store.Set(ctx, s.store.OTPCodeKey(purposeRegister, id), code, s.otp.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}
	_ = s.store.Del(ctx, s.store.OTPAttemptsKey(purposeRegister, id))
	if err := s.sender.Send(ctx, user, purposeRegister, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver verification code")
	}
	return nil
}

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
