package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/redis"
)

const (
	otpKindRegister = "register"
	otpKindAttempts = "register_attempts"
	otpKindResend   = "register_resend"

	otpDigits = 6
)

var otpCeiling = big.NewInt(1_000_000)

// otpStore keeps registration OTPs in redis: the hashed code with its TTL, a
// per-email attempt counter, and a resend guard. The plaintext code only ever
// travels in the email.
type otpStore struct {
	client *redis.Client
	cfg    config.OTPConfig
}

func newOTPStore(client *redis.Client, cfg config.OTPConfig) *otpStore {
	return &otpStore{client: client, cfg: cfg}
}

// generateCode returns a zero-padded 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpCeiling)
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Issue stores the hashed code under the email and resets the attempt
// counter.
func (s *otpStore) Issue(ctx context.Context, email, code string) error {
	key := s.client.OTPKey(otpKindRegister, email)
	if err := s.client.Set(ctx, key, hashCode(code), s.cfg.TTL); err != nil {
		return fmt.Errorf("storing otp: %w", err)
	}
	if err := s.client.Del(ctx, s.client.OTPKey(otpKindAttempts, email)); err != nil {
		return fmt.Errorf("resetting otp attempts: %w", err)
	}
	return nil
}

// Verify checks the submitted code. It returns errOTPMissing when no code is
// outstanding, errOTPTooManyAttempts once the counter is exhausted, and
// errOTPMismatch on a wrong code.
func (s *otpStore) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, s.client.OTPKey(otpKindRegister, email))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return errOTPMissing
		}
		return fmt.Errorf("loading otp: %w", err)
	}

	attempts, err := s.client.IncrWithTTL(ctx, s.client.OTPKey(otpKindAttempts, email), s.cfg.TTL)
	if err != nil {
		return fmt.Errorf("counting otp attempts: %w", err)
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		return errOTPTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(code))) != 1 {
		return errOTPMismatch
	}
	return nil
}

// Clear removes the code and its attempt counter after a successful
// verification.
func (s *otpStore) Clear(ctx context.Context, email string) error {
	return s.client.Del(ctx,
		s.client.OTPKey(otpKindRegister, email),
		s.client.OTPKey(otpKindAttempts, email),
	)
}

// AllowResend reports whether enough time has passed since the last issue.
// The guard key is set atomically so concurrent resends cannot both pass.
func (s *otpStore) AllowResend(ctx context.Context, email string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.client.OTPKey(otpKindResend, email), "1", s.cfg.ResendAfter)
	if err != nil {
		return false, fmt.Errorf("checking resend guard: %w", err)
	}
	return ok, nil
}

var (
	errOTPMissing         = errors.New("otp missing or expired")
	errOTPTooManyAttempts = errors.New("otp attempts exhausted")
	errOTPMismatch        = errors.New("otp mismatch")
)
