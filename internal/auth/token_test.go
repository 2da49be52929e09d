package auth

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	codec, err := NewCodec("round-trip-secret", WithCodecClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, exp, err := codec.Encode("aicha", RoleCommercial, 4*time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !exp.Equal(now.Add(4 * time.Hour)) {
		t.Fatalf("expiry = %v, want %v", exp, now.Add(4*time.Hour))
	}

	id, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id.Username != "aicha" {
		t.Fatalf("username = %q", id.Username)
	}
	if id.Role != RoleCommercial {
		t.Fatalf("role = %s", id.Role)
	}
	if !id.ExpiresAt.Equal(exp) {
		t.Fatalf("decoded expiry = %v, want %v", id.ExpiresAt, exp)
	}
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer, _ := NewCodec("secret-one", WithCodecClock(fixedClock(now)))
	verifier, _ := NewCodec("secret-two", WithCodecClock(fixedClock(now)))

	token, _, err := signer.Encode("aicha", RoleSupport, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestCodecExpiryIsStrict(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := issued
	codec, _ := NewCodec("strict-secret", WithCodecClock(func() time.Time { return clock }))

	token, exp, err := codec.Encode("marc", RoleGestion, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// One second before expiry the token is still good.
	clock = exp.Add(-time.Second)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	// Exactly at expiry the token is already expired.
	clock = exp
	id, err := codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired at the boundary, got %v", err)
	}
	if id == nil || id.Username != "marc" {
		t.Fatalf("expired decode should still name the holder, got %+v", id)
	}
}

func TestCodecExpiredTokenKeepsIdentity(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := issued
	codec, _ := NewCodec("grace-secret", WithCodecClock(func() time.Time { return clock }))

	token, exp, err := codec.Encode("sofia", RoleSupport, 30*time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	clock = exp.Add(10 * time.Minute)
	id, err := codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if id.Username != "sofia" || id.Role != RoleSupport {
		t.Fatalf("identity lost on expiry: %+v", id)
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec, _ := NewCodec("garbage-secret")
	for _, token := range []string{"", "   ", "not.a.token", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := codec.Decode(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Decode(%q): want ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestCodecEncodeValidation(t *testing.T) {
	codec, _ := NewCodec("validation-secret")
	if _, _, err := codec.Encode("", RoleAdmin, time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty username: got %v", err)
	}
	if _, _, err := codec.Encode("aicha", Role("intern"), time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: got %v", err)
	}
	if _, _, err := codec.Encode("aicha", RoleAdmin, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero ttl: got %v", err)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("  "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}
