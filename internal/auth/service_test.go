package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/internal/users"
	pkgauth "github.com/sliceline/pizzeria-backend/pkg/auth"
	"github.com/sliceline/pizzeria-backend/pkg/auth/session"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

type stubUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[uuid.UUID]*models.User)}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.byID {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	s.byID[user.ID] = &clone
	return user, nil
}

func (s *stubUserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	user, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["is_verified"]; ok {
		user.IsVerified = v.(bool)
	}
	return nil
}

type fakeOTPStore struct {
	values   map[string]string
	counters map[string]int64
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{values: make(map[string]string), counters: make(map[string]int64)}
}

func (s *fakeOTPStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = fmt.Sprint(value)
	return nil
}

func (s *fakeOTPStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *fakeOTPStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeOTPStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counters[key]++
	return s.counters[key], nil
}

func (s *fakeOTPStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
		delete(s.counters, key)
	}
	return nil
}

func (s *fakeOTPStore) OTPCodeKey(purpose, userID string) string {
	return "otp:" + purpose + ":" + userID
}

func (s *fakeOTPStore) OTPAttemptsKey(purpose, userID string) string {
	return "otp:" + purpose + ":" + userID + ":attempts"
}

func (s *fakeOTPStore) OTPResendKey(purpose, userID string) string {
	return "otp:" + purpose + ":" + userID + ":resend"
}

type fakeSessions struct {
	tokens map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[string]string)}
}

func (s *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := uuid.NewString()
	token := "refresh-" + newID
	s.tokens[newID] = token
	return newID, token, nil
}

func (s *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

type captureSender struct {
	lastCode string
	sends    int
}

func (s *captureSender) Send(ctx context.Context, user *models.User, purpose, code string) error {
	s.lastCode = code
	s.sends++
	return nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type authFixture struct {
	svc      Service
	repo     *stubUserRepo
	store    *fakeOTPStore
	sessions *fakeSessions
	sender   *captureSender
	jwt      config.JWTConfig
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubUserRepo()
	store := newFakeOTPStore()
	sessions := newFakeSessions()
	sender := &captureSender{}
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "pizzeria-test",
		ExpirationMinutes: 15,
	}
	otpCfg := config.OTPConfig{
		Length:       6,
		TTL:          10 * time.Minute,
		MaxAttempts:  5,
		ResendWindow: time.Minute,
	}
	svc, err := NewService(repo, noopTx{}, store, sessions, sender, jwtCfg, otpCfg, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &authFixture{svc: svc, repo: repo, store: store, sessions: sessions, sender: sender, jwt: jwtCfg}
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "Ada@Example.com",
		Phone:     "555-0101",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestRegister_CreatesUnverifiedAccountAndSendsCode(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.User.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.User.IsVerified {
		t.Fatal("new accounts must start unverified")
	}
	if f.sender.sends != 1 || len(f.sender.lastCode) != 6 {
		t.Fatalf("expected a 6-digit code sent once, got %d sends code %q", f.sender.sends, f.sender.lastCode)
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := f.svc.Register(ctx, registerInput())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestVerifyOTP_HappyPath(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !resp.User.IsVerified {
		t.Fatal("expected account verified")
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}

	claims, err := pkgauth.ParseAccessToken(f.jwt, resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("token user mismatch: %s vs %s", claims.UserID, resp.User.ID)
	}

	_, err = f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict when already verified, got %v", err)
	}
}

func TestVerifyOTP_WrongCodeThenLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		_, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: "000000"})
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("attempt %d: expected validation error, got %v", i+1, err)
		}
	}

	_, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected lockout after max attempts, got %v", err)
	}

	// code was burned; even the right code now reads as expired
	_, err = f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected expired code after lockout, got %v", err)
	}
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_ = f.store.Del(ctx, f.store.OTPCodeKey("register", resp.User.ID.String()))

	_, err = f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: "123456"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for expired code, got %v", err)
	}
}

func TestResendOTP_RateLimited(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := f.svc.ResendOTP(ctx, ResendOTPInput{Email: "ada@example.com"}); err != nil {
		t.Fatalf("first resend failed: %v", err)
	}
	if f.sender.sends != 2 {
		t.Fatalf("expected 2 sends, got %d", f.sender.sends)
	}

	err = f.svc.ResendOTP(ctx, ResendOTPInput{Email: "ada@example.com"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit inside resend window, got %v", err)
	}

	// window elapsed
	_ = f.store.Del(ctx, f.store.OTPResendKey("register", resp.User.ID.String()))
	if err := f.svc.ResendOTP(ctx, ResendOTPInput{Email: "ada@example.com"}); err != nil {
		t.Fatalf("resend after window failed: %v", err)
	}
}

func TestLogin_Rules(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := f.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "correct horse"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden before verification, got %v", err)
	}

	if _, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	_, err = f.svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	_, err = f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	resp, err := f.svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatal("expected an access token")
	}
}

func TestRefresh_RotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	verified, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	pair, err := f.svc.Refresh(ctx, RefreshInput{
		AccessToken:  verified.Tokens.AccessToken,
		RefreshToken: verified.Tokens.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken == verified.Tokens.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// the old pair is dead after rotation
	_, err = f.svc.Refresh(ctx, RefreshInput{
		AccessToken:  verified.Tokens.AccessToken,
		RefreshToken: verified.Tokens.RefreshToken,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for replayed refresh, got %v", err)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	verified, err := f.svc.VerifyOTP(ctx, VerifyOTPInput{Email: "ada@example.com", Code: f.sender.lastCode})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	claims, err := pkgauth.ParseAccessToken(f.jwt, verified.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := f.svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	_, err = f.svc.Refresh(ctx, RefreshInput{
		AccessToken:  verified.Tokens.AccessToken,
		RefreshToken: verified.Tokens.RefreshToken,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}
