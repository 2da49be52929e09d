package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of identity categories known to the CRM.
// The lower-case form is the only serialization; every comparison goes
// through this type.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleGestion    Role = "gestion"
	RoleCommercial Role = "commercial"
	RoleSupport    Role = "support"
)

// Roles returns every defined role in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleGestion, RoleCommercial, RoleSupport}
}

// ParseRole normalizes and validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleGestion:
		return RoleGestion, nil
	case RoleCommercial:
		return RoleCommercial, nil
	case RoleSupport:
		return RoleSupport, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// User is a collaborator account. Accounts are never hard-deleted;
// deactivation preserves referential history in customers and contracts.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
