package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/redis"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeStore struct {
	data map[string]string
	incr map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), incr: make(map[string]int64)}
}

func (m *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (m *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return goredis.NewStatusResult("OK", nil)
}

func (m *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return goredis.NewBoolResult(true, nil)
}

func (m *fakeStore) Incr(ctx context.Context, key string) *goredis.IntCmd {
	m.incr[key]++
	return goredis.NewIntResult(m.incr[key], nil)
}

func (m *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	return goredis.NewBoolResult(true, nil)
}

func (m *fakeStore) TTL(ctx context.Context, key string) *goredis.DurationCmd {
	return goredis.NewDurationResult(time.Minute, nil)
}

func (m *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.incr, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func testConfigs() (config.JWTConfig, config.PasswordConfig, config.OTPConfig) {
	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "aquaticpose-test", ExpirationMinutes: 60}
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	otpCfg := config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 3, ResendAfter: time.Minute}
	return jwtCfg, passwordCfg, otpCfg
}

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
const testUsersDDL = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  status TEXT NOT NULL DEFAULT 'pending_verification',
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

func newTestService(t *testing.T) (*service, *fakeMailer, *fakeStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.Exec(testUsersDDL).Error; err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	mail := &fakeMailer{}
	store := newFakeStore()
	jwtCfg, passwordCfg, otpCfg := testConfigs()

	svc, err := NewService(NewRepository(conn), redis.NewWithStore(store), mail, jwtCfg, passwordCfg, otpCfg)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	typed := svc.(*service)
	typed.newCode = func() (string, error) { return "123456", nil }
	return typed, mail, store
}

func TestRegisterCreatesPendingAccountAndEmailsCode(t *testing.T) {
	svc, mail, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Email:    " User@Example.COM ",
		Password: "correct-horse",
		FullName: "Thu Trang",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.Status != enums.UserStatusPendingVerification {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if len(mail.sent) != 1 || mail.sent[0].to != "user@example.com" {
		t.Fatal("expected one verification email")
	}
	if !strings.Contains(mail.sent[0].body, "123456") {
		t.Fatal("expected the code in the email body")
	}

	// Duplicate registration conflicts.
	_, err = svc.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "another-pass",
		FullName: "Someone Else",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for duplicate email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "not-an-email", Password: "long-enough", FullName: "A"},
		{Email: "a@b.c", Password: "short", FullName: "A"},
		{Email: "a@b.c", Password: "long-enough", FullName: "  "},
	}
	for i, input := range cases {
		_, err := svc.Register(ctx, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}
}

func TestVerifyOTPActivatesAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "long-enough", FullName: "A"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Wrong code first.
	_, err := svc.VerifyOTP(ctx, "a@b.c", "000000")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for wrong code, got %v", err)
	}

	verified, err := svc.VerifyOTP(ctx, "a@b.c", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if verified.Status != enums.UserStatusActive {
		t.Fatalf("expected active status, got %s", verified.Status)
	}
	if verified.VerifiedAt == nil {
		t.Fatal("expected verified_at set")
	}

	// The code is single-use.
	_, err = svc.VerifyOTP(ctx, "a@b.c", "123456")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for already verified account, got %v", err)
	}
}

func TestVerifyOTPAttemptLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "long-enough", FullName: "A"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := svc.VerifyOTP(ctx, "a@b.c", "000000")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("attempt %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}

	// Even the right code is refused once attempts are exhausted.
	_, err := svc.VerifyOTP(ctx, "a@b.c", "123456")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "long-enough", FullName: "A"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Simulate TTL expiry by dropping the stored code.
	for key := range store.data {
		if strings.Contains(key, "otp:register:") {
			delete(store.data, key)
		}
	}

	_, err := svc.VerifyOTP(ctx, "a@b.c", "123456")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected EXPIRED, got %v", err)
	}
}

func TestResendOTPThrottled(t *testing.T) {
	svc, mail, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "long-enough", FullName: "A"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.ResendOTP(ctx, "a@b.c"); err != nil {
		t.Fatalf("first resend failed: %v", err)
	}
	if len(mail.sent) != 2 {
		t.Fatalf("expected 2 emails after resend, got %d", len(mail.sent))
	}

	err := svc.ResendOTP(ctx, "a@b.c")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED on immediate resend, got %v", err)
	}

	err = svc.ResendOTP(ctx, "nobody@b.c")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown account, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "long-enough", FullName: "A"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unverified accounts cannot log in.
	_, err := svc.Login(ctx, "a@b.c", "long-enough")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN before verification, got %v", err)
	}

	if _, err := svc.VerifyOTP(ctx, "a@b.c", "123456"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	result, err := svc.Login(ctx, "a@b.c", "long-enough")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if result.User.Email != "a@b.c" {
		t.Fatalf("expected user payload, got %s", result.User.Email)
	}

	_, err = svc.Login(ctx, "a@b.c", "wrong-password")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for bad password, got %v", err)
	}

	_, err = svc.Login(ctx, "nobody@b.c", "whatever")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for unknown email, got %v", err)
	}
}
