package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func loggedIn(t *testing.T, role Role) *Authenticator {
	t.Helper()
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	creds := newMemCreds(testUser("actor", role, "pw-actor-123"))
	a := testAuthenticator(t, creds, &memSessions{}, &clock)
	if _, err := a.Login(context.Background(), "actor", "pw-actor-123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return a
}

func TestProtectRequiresSession(t *testing.T) {
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a := testAuthenticator(t, newMemCreds(), &memSessions{}, &clock)

	_, _, err := a.Protect(context.Background(), RequireAuthenticated())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

func TestProtectGrantsByPermission(t *testing.T) {
	a := loggedIn(t, RoleCommercial)

	ctx, id, err := a.Protect(context.Background(), RequirePermission(PermCustomerCreate))
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if id.Username() != "actor" || id.Role() != RoleCommercial {
		t.Fatalf("identity = %+v", id)
	}
	if got, ok := IdentityFromContext(ctx); !ok || got.Username() != "actor" {
		t.Fatalf("identity not attached to context")
	}

	if _, _, err := a.Protect(context.Background(), RequirePermission(PermUserCreate)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestProtectGuardOrderDoesNotMatter(t *testing.T) {
	a := loggedIn(t, RoleSupport)

	g1 := RequirePermission(PermContractCreate)
	g2 := RequireRole(RoleGestion)

	_, _, errA := a.Protect(context.Background(), g1, g2)
	_, _, errB := a.Protect(context.Background(), g2, g1)
	if !errors.Is(errA, ErrForbidden) || !errors.Is(errB, ErrForbidden) {
		t.Fatalf("both orders must refuse: %v / %v", errA, errB)
	}

	ok1 := RequirePermission(PermEventUpdate)
	ok2 := RequireRole(RoleSupport, RoleAdmin)
	if _, _, err := a.Protect(context.Background(), ok1, ok2); err != nil {
		t.Fatalf("order A: %v", err)
	}
	if _, _, err := a.Protect(context.Background(), ok2, ok1); err != nil {
		t.Fatalf("order B: %v", err)
	}
}

func TestProtectRequireAny(t *testing.T) {
	a := loggedIn(t, RoleSupport)

	either := RequireAny(RequireRole(RoleGestion), RequirePermission(PermEventSupport))
	if _, _, err := a.Protect(context.Background(), either); err != nil {
		t.Fatalf("Protect: %v", err)
	}

	neither := RequireAny(RequireRole(RoleGestion), RequirePermission(PermUserCreate))
	if _, _, err := a.Protect(context.Background(), neither); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestProtectExpiredSession(t *testing.T) {
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	creds := newMemCreds(testUser("actor", RoleAdmin, "pw-actor-123"))
	a := testAuthenticator(t, creds, &memSessions{}, &clock)
	if _, err := a.Login(context.Background(), "actor", "pw-actor-123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock = clock.Add(defaultTokenTTL + time.Minute)
	if _, _, err := a.Protect(context.Background(), RequireAuthenticated()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestProtectDeactivatedAccount(t *testing.T) {
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	creds := newMemCreds(testUser("actor", RoleAdmin, "pw-actor-123"))
	a := testAuthenticator(t, creds, &memSessions{}, &clock)
	if _, err := a.Login(context.Background(), "actor", "pw-actor-123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	creds.users["actor"].Active = false
	if _, _, err := a.Protect(context.Background(), RequireAuthenticated()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestProtectInvalidToken(t *testing.T) {
	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a := testAuthenticator(t, newMemCreds(), &memSessions{token: "junk"}, &clock)
	if _, _, err := a.Protect(context.Background(), RequireAuthenticated()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}
