package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/epic-events/crm/internal/obs"
)

const (
	defaultTokenTTL     = 4 * time.Hour
	defaultRefreshGrace = time.Hour
)

// CredentialStore is the authoritative source of collaborator accounts.
// It is implemented by the persistence layer.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	AllActiveUsers(ctx context.Context) ([]User, error)
	Save(ctx context.Context, u *User) error
}

// AuditFunc records a security-relevant event. Wired in by the caller so
// the authenticator stays decoupled from the audit sink.
type AuditFunc func(ctx context.Context, event string, fields map[string]any)

// Authenticator owns token issuance and the session lifecycle: login,
// refresh, expiry and logout. It is the only component that creates
// tokens; the session store is the only component that persists them.
type Authenticator struct {
	creds    CredentialStore
	codec    *Codec
	sessions SessionStore

	now          func() time.Time
	tokenTTL     time.Duration
	refreshGrace time.Duration
	limiter      *rate.Limiter
	audit        AuditFunc
}

// Option configures Authenticator behavior.
type Option func(*Authenticator)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(a *Authenticator) {
		if fn != nil {
			a.now = fn
		}
	}
}

// WithTokenTTL configures session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.tokenTTL = ttl
		}
	}
}

// WithRefreshGrace configures how long after expiry a token may still be
// refreshed. Beyond the grace window a fresh login is required.
func WithRefreshGrace(grace time.Duration) Option {
	return func(a *Authenticator) {
		if grace >= 0 {
			a.refreshGrace = grace
		}
	}
}

// WithLoginLimit throttles login attempts.
func WithLoginLimit(limit rate.Limit, burst int) Option {
	return func(a *Authenticator) {
		a.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithAudit wires an audit sink for login, refresh and logout events.
func WithAudit(fn AuditFunc) Option {
	return func(a *Authenticator) {
		a.audit = fn
	}
}

// NewAuthenticator constructs an authenticator over the given stores.
func NewAuthenticator(creds CredentialStore, codec *Codec, sessions SessionStore, opts ...Option) (*Authenticator, error) {
	if creds == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	if sessions == nil {
		return nil, errors.New("auth: session store is required")
	}
	a := &Authenticator{
		creds:        creds,
		codec:        codec,
		sessions:     sessions,
		now:          time.Now,
		tokenTTL:     defaultTokenTTL,
		refreshGrace: defaultRefreshGrace,
		limiter:      rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Login verifies credentials, issues a token and persists it as the
// current session. Unknown usernames, inactive accounts and wrong
// passwords are indistinguishable to the caller; the distinction exists
// only in internal logs.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*User, error) {
	if !a.limiter.Allow() {
		return nil, ErrTooManyAttempts
	}

	// A failed login must not leave a stale session behind.
	if err := a.sessions.Clear(); err != nil {
		return nil, err
	}

	user, err := a.creds.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.LoginFailure("unknown-user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		obs.LoginFailure("inactive")
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		obs.LoginFailure("bad-password")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := a.codec.Encode(user.Username, user.Role, a.tokenTTL)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(token); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	obs.LoginSuccess()
	a.auditEvent(ctx, "auth.login", map[string]any{
		"username":   user.Username,
		"role":       user.Role.String(),
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
	return user, nil
}

// CurrentUser resolves the persisted session to a live account. An absent
// session is anonymous: (nil, nil). An expired token returns
// ErrTokenExpired, an undecodable one ErrTokenInvalid, and a token for a
// since-deactivated account fails closed with ErrForbidden. The role used
// for authorization always comes from the credential store, never from a
// stale claim alone.
func (a *Authenticator) CurrentUser(ctx context.Context) (*User, error) {
	token, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	id, err := a.codec.Decode(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	user, err := a.creds.FindByUsername(ctx, id.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrForbidden
	}
	return user, nil
}

// Refresh re-issues the current session token with a fresh expiry. The
// old token must still decode; a token expired beyond the grace window is
// refused. The embedded role is re-read from the credential store so a
// stale or forged role claim cannot survive a refresh.
func (a *Authenticator) Refresh(ctx context.Context) (*User, error) {
	token, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}

	id, err := a.codec.Decode(token)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		return nil, ErrTokenInvalid
	}
	if errors.Is(err, ErrTokenExpired) {
		if a.now().UTC().After(id.ExpiresAt.Add(a.refreshGrace)) {
			return nil, ErrTokenExpired
		}
	}

	user, err := a.creds.FindByUsername(ctx, id.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrForbidden
	}

	fresh, exp, err := a.codec.Encode(user.Username, user.Role, a.tokenTTL)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(fresh); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	obs.TokenRefreshed()
	a.auditEvent(ctx, "auth.refresh", map[string]any{
		"username":   user.Username,
		"role":       user.Role.String(),
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
	return user, nil
}

// Logout clears the persisted session. Logging out with no session is
// not an error.
func (a *Authenticator) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	a.auditEvent(ctx, "auth.logout", nil)
	return nil
}

func (a *Authenticator) auditEvent(ctx context.Context, event string, fields map[string]any) {
	if a.audit == nil {
		return
	}
	a.audit(ctx, event, fields)
}
