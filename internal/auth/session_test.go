package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	store, err := NewFileSessionStore(path)
	if err != nil {
		t.Fatalf("NewFileSessionStore: %v", err)
	}

	if token, err := store.Load(); err != nil || token != "" {
		t.Fatalf("fresh store: token=%q err=%v", token, err)
	}

	if err := store.Save("token-one"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token != "token-one" {
		t.Fatalf("loaded %q", token)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file mode = %o, want 600", perm)
	}

	// Save replaces, never appends.
	if err := store.Save("token-two"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if token, _ := store.Load(); token != "token-two" {
		t.Fatalf("after replace, loaded %q", token)
	}
}

func TestFileSessionStoreClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	store, err := NewFileSessionStore(path)
	if err != nil {
		t.Fatalf("NewFileSessionStore: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if token, err := store.Load(); err != nil || token != "" {
		t.Fatalf("after clear: token=%q err=%v", token, err)
	}
}

func TestFileSessionStoreRejectsEmptyToken(t *testing.T) {
	store, err := NewFileSessionStore(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatalf("NewFileSessionStore: %v", err)
	}
	if err := store.Save("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestNewFileSessionStoreRequiresPath(t *testing.T) {
	if _, err := NewFileSessionStore(" "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
