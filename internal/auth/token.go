package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "epic-events"

// Claims is the signed assertion carried by a session token. Extra claims
// present in a token are ignored on decode.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIdentity is the decoded content of a session token.
type TokenIdentity struct {
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with a single shared HS256
// secret. The secret is configuration: an empty secret is rejected at
// construction so misconfiguration fails at startup, not per call.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithCodecClock overrides the codec time source (useful for tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a token codec for the given shared secret.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is not configured")
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs a token asserting username and role until now+ttl.
func (c *Codec) Encode(username string, role Role, ttl time.Duration) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", time.Time{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: ttl must be greater than zero", ErrInvalidInput)
	}

	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies a token and returns its identity. Expiry is strict: a
// token whose expiry equals the current time is already expired. An
// expired but otherwise well-formed token returns the identity it carried
// alongside ErrTokenExpired so the refresh flow can resolve who is asking;
// callers must not treat that identity as authenticated. Every other
// failure is ErrTokenInvalid.
func (c *Codec) Decode(token string) (*TokenIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
	)
	if err != nil {
		// Expiry is only reported once the signature has verified.
		if errors.Is(err, jwt.ErrTokenExpired) && parsed != nil {
			if id, idErr := identityFromClaims(parsed.Claims); idErr == nil {
				return id, ErrTokenExpired
			}
		}
		return nil, ErrTokenInvalid
	}
	id, err := identityFromClaims(parsed.Claims)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	// Strict boundary: expiry equal to the current time counts as expired.
	if !c.now().UTC().Before(id.ExpiresAt) {
		return id, ErrTokenExpired
	}
	return id, nil
}

func identityFromClaims(raw jwt.Claims) (*TokenIdentity, error) {
	claims, ok := raw.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	if claims.Issuer != tokenIssuer {
		return nil, ErrTokenInvalid
	}
	username := strings.TrimSpace(claims.Subject)
	if username == "" {
		return nil, ErrTokenInvalid
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	return &TokenIdentity{
		Username:  username,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
