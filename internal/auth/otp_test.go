package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medpal-health/medpal/internal/notify"
)

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		code := GenerateOTP()
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
		seen[code] = true
	}
	// 500 draws over 900k values collide occasionally but never collapse.
	if len(seen) < 400 {
		t.Errorf("only %d distinct codes in 500 draws", len(seen))
	}
}

// fakeOTPStore backs challenges with a map and records the TTL each Set
// carried.
type fakeOTPStore struct {
	codes  map[string]string
	ttls   map[string]time.Duration
	setErr error
	getErr error
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeOTPStore) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.codes[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeOTPStore) GetDel(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	code, ok := f.codes[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.codes, key)
	return redis.NewStringResult(code, nil)
}

func (f *fakeOTPStore) expire(key string) {
	delete(f.codes, key)
}

type fakeOTPSMS struct {
	fail   bool
	phone  string
	bodies []string
}

func (f *fakeOTPSMS) SendSMS(_ context.Context, phone, body string) notify.Result {
	f.phone = phone
	f.bodies = append(f.bodies, body)
	if f.fail {
		return notify.Result{Success: false, Message: "sms not configured", Channel: notify.ChannelSMS}
	}
	return notify.Result{Success: true, Message: "sms sent", Channel: notify.ChannelSMS}
}

// issuedCode digs the code out of the delivered SMS body.
func issuedCode(t *testing.T, sms *fakeOTPSMS) string {
	t.Helper()
	if len(sms.bodies) == 0 {
		t.Fatal("no SMS delivered")
	}
	body := sms.bodies[len(sms.bodies)-1]
	idx := strings.LastIndex(body, " ")
	if idx < 0 {
		t.Fatalf("unexpected SMS body %q", body)
	}
	return body[idx+1:]
}

func TestOTPIssue(t *testing.T) {
	ctx := context.Background()
	store := newFakeOTPStore()
	sms := &fakeOTPSMS{}
	issuer := NewOTPIssuer(store, sms, slog.Default())

	res, err := issuer.Issue(ctx, "15550100")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !res.Success {
		t.Errorf("delivery result = %+v, want success", res)
	}
	if sms.phone != "15550100" {
		t.Errorf("SMS went to %q", sms.phone)
	}

	stored, ok := store.codes["otp:15550100"]
	if !ok {
		t.Fatal("challenge not stored under the phone key")
	}
	if len(stored) != 6 {
		t.Errorf("stored code %q is not 6 digits", stored)
	}
	if got := store.ttls["otp:15550100"]; got != otpTTL {
		t.Errorf("challenge TTL = %v, want %v", got, otpTTL)
	}
	if code := issuedCode(t, sms); code != stored {
		t.Errorf("delivered code %q differs from stored %q", code, stored)
	}
}

func TestOTPIssueDeliveryFailure(t *testing.T) {
	// A failed SMS is reported through the Result, not as an error; the
	// challenge stays stored so a retry can still verify.
	ctx := context.Background()
	store := newFakeOTPStore()
	issuer := NewOTPIssuer(store, &fakeOTPSMS{fail: true}, slog.Default())

	res, err := issuer.Issue(ctx, "15550100")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if res.Success {
		t.Error("delivery result reports success for a failed send")
	}
	if _, ok := store.codes["otp:15550100"]; !ok {
		t.Error("challenge discarded on delivery failure")
	}
}

func TestOTPIssueStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeOTPStore()
	store.setErr = errors.New("connection refused")
	sms := &fakeOTPSMS{}
	issuer := NewOTPIssuer(store, sms, slog.Default())

	if _, err := issuer.Issue(ctx, "15550100"); err == nil {
		t.Fatal("expected an error when the challenge cannot be stored")
	}
	if len(sms.bodies) != 0 {
		t.Error("SMS sent even though the challenge was never stored")
	}
}

func TestOTPVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code verifies once", func(t *testing.T) {
		store := newFakeOTPStore()
		sms := &fakeOTPSMS{}
		issuer := NewOTPIssuer(store, sms, slog.Default())

		if _, err := issuer.Issue(ctx, "15550100"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
		code := issuedCode(t, sms)

		if err := issuer.Verify(ctx, "15550100", code); err != nil {
			t.Fatalf("Verify: %v", err)
		}
		// Replay with the same code must fail; the challenge is consumed.
		if err := issuer.Verify(ctx, "15550100", code); !errors.Is(err, ErrChallengeExpired) {
			t.Errorf("replay err = %v, want ErrChallengeExpired", err)
		}
	})

	t.Run("wrong code consumes the challenge", func(t *testing.T) {
		store := newFakeOTPStore()
		sms := &fakeOTPSMS{}
		issuer := NewOTPIssuer(store, sms, slog.Default())

		if _, err := issuer.Issue(ctx, "15550100"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
		code := issuedCode(t, sms)

		if err := issuer.Verify(ctx, "15550100", "000000"); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("wrong code err = %v, want ErrCodeMismatch", err)
		}
		// The atomic read-and-delete spent the challenge on the wrong
		// guess; the real code needs a fresh Issue now.
		if err := issuer.Verify(ctx, "15550100", code); !errors.Is(err, ErrChallengeExpired) {
			t.Errorf("post-mismatch err = %v, want ErrChallengeExpired", err)
		}
	})

	t.Run("expired challenge", func(t *testing.T) {
		store := newFakeOTPStore()
		sms := &fakeOTPSMS{}
		issuer := NewOTPIssuer(store, sms, slog.Default())

		if _, err := issuer.Issue(ctx, "15550100"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
		store.expire("otp:15550100")

		err := issuer.Verify(ctx, "15550100", issuedCode(t, sms))
		if !errors.Is(err, ErrChallengeExpired) {
			t.Errorf("err = %v, want ErrChallengeExpired", err)
		}
	})

	t.Run("never requested", func(t *testing.T) {
		issuer := NewOTPIssuer(newFakeOTPStore(), &fakeOTPSMS{}, slog.Default())
		if err := issuer.Verify(ctx, "15550100", "123456"); !errors.Is(err, ErrChallengeExpired) {
			t.Errorf("err = %v, want ErrChallengeExpired", err)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		store := newFakeOTPStore()
		store.getErr = errors.New("connection refused")
		issuer := NewOTPIssuer(store, &fakeOTPSMS{}, slog.Default())

		err := issuer.Verify(ctx, "15550100", "123456")
		if err == nil || errors.Is(err, ErrChallengeExpired) || errors.Is(err, ErrCodeMismatch) {
			t.Errorf("err = %v, want a wrapped store error", err)
		}
	})

	t.Run("reissue replaces the outstanding challenge", func(t *testing.T) {
		store := newFakeOTPStore()
		sms := &fakeOTPSMS{}
		issuer := NewOTPIssuer(store, sms, slog.Default())

		if _, err := issuer.Issue(ctx, "15550100"); err != nil {
			t.Fatalf("first Issue: %v", err)
		}
		first := issuedCode(t, sms)
		if _, err := issuer.Issue(ctx, "15550100"); err != nil {
			t.Fatalf("second Issue: %v", err)
		}
		second := issuedCode(t, sms)

		if first == second {
			t.Skip("codes collided; nothing to distinguish")
		}
		if err := issuer.Verify(ctx, "15550100", first); !errors.Is(err, ErrCodeMismatch) {
			t.Errorf("stale code err = %v, want ErrCodeMismatch", err)
		}
	})
}
