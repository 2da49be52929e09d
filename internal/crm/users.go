package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epic-events/crm/internal/audit"
	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/ids"
)

// UserService manages collaborator accounts. Role changes and activation
// toggles only happen here, behind management permissions; there is no
// self-service role escalation path.
type UserService struct {
	authn *auth.Authenticator
	store UserStore
	now   func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(authn *auth.Authenticator, store UserStore) (*UserService, error) {
	if authn == nil || store == nil {
		return nil, errors.New("crm: authenticator and user store are required")
	}
	return &UserService{authn: authn, store: store, now: time.Now}, nil
}

// UserInput describes a collaborator account to create.
type UserInput struct {
	Username string `validate:"required,min=2,max=64"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"required"`
}

// Create registers a new collaborator.
func (s *UserService) Create(ctx context.Context, in UserInput) (*auth.User, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermUserCreate))
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if existing, err := s.store.FindByUsername(ctx, username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username %s is taken", ErrConflict, username)
	} else if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &auth.User{
		ID:           ids.New(),
		Username:     username,
		Email:        strings.TrimSpace(strings.ToLower(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "user.created", map[string]any{
		"username": user.Username,
		"role":     user.Role.String(),
	})
	return user, nil
}

// UserUpdate describes a partial update of a collaborator account. Nil
// fields are left unchanged.
type UserUpdate struct {
	Email    *string
	FullName *string
	Role     *string
}

// Update modifies profile fields and, when requested, the role. The role
// written here is what every future token issue and refresh reads back.
func (s *UserService) Update(ctx context.Context, username string, upd UserUpdate) (*auth.User, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermUserUpdate))
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		user.Email = email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
		}
		user.FullName = name
	}
	if upd.Role != nil {
		role, err := auth.ParseRole(*upd.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		user.Role = role
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "user.updated", map[string]any{
		"username": user.Username,
		"role":     user.Role.String(),
	})
	return user, nil
}

// ResetPassword replaces a collaborator's password hash.
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermUserUpdate))
	if err != nil {
		return err
	}
	if err := validate.Var(password, "required,min=8"); err != nil {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, user); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "user.password_reset", map[string]any{"username": user.Username})
	return nil
}

// Deactivate soft-disables an account. Accounts are never hard-deleted so
// contracts and customers keep their references.
func (s *UserService) Deactivate(ctx context.Context, username string) error {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermUserDeactivate))
	if err != nil {
		return err
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Username == id.Username() {
		return fmt.Errorf("%w: cannot deactivate the current account", ErrInvalidInput)
	}
	if !user.Active {
		return nil
	}
	user.Active = false
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, user); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "user.deactivated", map[string]any{"username": user.Username})
	return nil
}

// Activate re-enables a previously deactivated account.
func (s *UserService) Activate(ctx context.Context, username string) error {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermUserUpdate))
	if err != nil {
		return err
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Active {
		return nil
	}
	user.Active = true
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, user); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "user.activated", map[string]any{"username": user.Username})
	return nil
}

// List returns collaborator accounts.
func (s *UserService) List(ctx context.Context, includeInactive bool) ([]auth.User, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermRead))
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, includeInactive)
}

// BootstrapAdmin creates the very first account without passing the
// guard chain; it refuses to run once any account exists.
func BootstrapAdmin(ctx context.Context, store UserStore, in UserInput) (*auth.User, error) {
	existing, err := store.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: accounts already exist", ErrConflict)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           ids.New(),
		Username:     strings.TrimSpace(strings.ToLower(in.Username)),
		Email:        strings.TrimSpace(strings.ToLower(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Save(ctx, user); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "user.bootstrapped", map[string]any{
		"username": user.Username,
		"role":     user.Role.String(),
	})
	return user, nil
}

func (s *UserService) findUser(ctx context.Context, username string) (*auth.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, err
	}
	return user, nil
}
