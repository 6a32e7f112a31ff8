package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medpal-health/medpal/internal/notify"
)

var (
	ErrChallengeExpired = errors.New("verification code expired or not requested")
	ErrCodeMismatch     = errors.New("verification code does not match")
)

const otpTTL = 5 * time.Minute

// GenerateOTP returns a 6-digit code uniformly distributed over
// [100000, 999999].
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		panic(fmt.Sprintf("read random source: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// OTPStore is the challenge persistence surface. *redis.Client satisfies it.
type OTPStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// OTPIssuer manages phone verification challenges: a code is stored with a
// TTL, sent over SMS, and consumed on the first verification attempt.
type OTPIssuer struct {
	store  OTPStore
	sms    notify.SMSSender
	logger *slog.Logger
}

func NewOTPIssuer(store OTPStore, sms notify.SMSSender, logger *slog.Logger) *OTPIssuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPIssuer{store: store, sms: sms, logger: logger}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

// Issue generates a challenge for the phone number, persists it for five
// minutes, and dispatches it over SMS. Re-issuing replaces any outstanding
// challenge.
func (i *OTPIssuer) Issue(ctx context.Context, phone string) (notify.Result, error) {
	code := GenerateOTP()

	if err := i.store.Set(ctx, otpKey(phone), code, otpTTL).Err(); err != nil {
		return notify.Result{}, fmt.Errorf("store otp challenge: %w", err)
	}

	message := "Your MedPal verification code is: " + code
	res := i.sms.SendSMS(ctx, phone, message)
	if !res.Success {
		i.logger.Warn("otp delivery failed", "reason", res.Message)
	}
	return res, nil
}

// Verify checks a submitted code against the outstanding challenge. The
// atomic GETDEL consumes the challenge on the first attempt, matching or
// not, so a code can never be verified twice and a wrong guess forces a
// fresh Issue.
func (i *OTPIssuer) Verify(ctx context.Context, phone, code string) error {
	stored, err := i.store.GetDel(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return ErrChallengeExpired
	}
	if err != nil {
		return fmt.Errorf("load otp challenge: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrCodeMismatch
	}
	return nil
}
