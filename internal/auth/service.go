package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/aquaticpose/aquaticpose-backend/pkg/auth"
	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/mailer"
	"github.com/aquaticpose/aquaticpose-backend/pkg/redis"
	"github.com/aquaticpose/aquaticpose-backend/pkg/security"
)

// Service exposes registration, OTP verification, and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	VerifyOTP(ctx context.Context, email, code string) (*UserDTO, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*LoginResultDTO, error)
}

// RegisterInput holds the validated payload to create an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// service implements the auth service.
type service struct {
	repo        *Repository
	otp         *otpStore
	mail        mailer.Sender
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
	newCode     func() (string, error)
}

// NewService constructs an auth service instance.
func NewService(repo *Repository, redisClient *redis.Client, mail mailer.Sender, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, otpCfg config.OTPConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:        repo,
		otp:         newOTPStore(redisClient, otpCfg),
		mail:        mail,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
		newCode:     generateCode,
	}, nil
}

// Register creates a pending account and emails a verification code. The
// account stays unusable until VerifyOTP succeeds.
func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check existing account")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
		Status:       enums.UserStatusPendingVerification,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create account")
	}

	if err := s.issueAndSend(ctx, created); err != nil {
		return nil, err
	}
	return NewUserDTO(created), nil
}

// VerifyOTP confirms the emailed code and activates the account.
func (s *service) VerifyOTP(ctx context.Context, email, code string) (*UserDTO, error) {
	email = NormalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load account")
	}
	if user.Status == enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already verified")
	}

	switch err := s.otp.Verify(ctx, email, strings.TrimSpace(code)); {
	case err == nil:
	case errors.Is(err, errOTPMissing):
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "verification code expired, request a new one")
	case errors.Is(err, errOTPTooManyAttempts):
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, request a new code")
	case errors.Is(err, errOTPMismatch):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incorrect verification code")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verification store unavailable")
	}

	if err := s.otp.Clear(ctx, email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verification store unavailable")
	}

	now := s.now()
	user.Status = enums.UserStatusActive
	user.VerifiedAt = &now
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to activate account")
	}
	return NewUserDTO(updated), nil
}

// ResendOTP re-issues the verification code, throttled per email.
func (s *service) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load account")
	}
	if user.Status == enums.UserStatusActive {
		return pkgerrors.New(pkgerrors.CodeConflict, "account already verified")
	}

	allowed, err := s.otp.AllowResend(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verification store unavailable")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "a code was sent recently, try again later")
	}

	return s.issueAndSend(ctx, user)
}

// Login checks credentials for a verified account and mints a JWT.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResultDTO, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load account")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	switch user.Status {
	case enums.UserStatusActive:
	case enums.UserStatusPendingVerification:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account not verified")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint token")
	}

	return &LoginResultDTO{
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:        *NewUserDTO(user),
	}, nil
}

func (s *service) issueAndSend(ctx context.Context, user *models.User) error {
	code, err := s.newCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate verification code")
	}
	if err := s.otp.Issue(ctx, user.Email, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verification store unavailable")
	}

	subject := "Your AquaticPose verification code"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p>",
		user.FullName, code, int(s.otp.cfg.TTL.Minutes()),
	)
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to send verification email")
	}
	return nil
}
