package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionStore persists the single current session token across process
// restarts. At most one token is stored; an absent or unreadable token
// behaves as "no session".
type SessionStore interface {
	// Save durably replaces the stored token.
	Save(token string) error
	// Load returns the stored token, or "" when no session exists.
	Load() (string, error)
	// Clear removes the stored token. Clearing an empty store is not an
	// error.
	Clear() error
}

// FileSessionStore keeps the session token in a single file. Writes go
// through a temp file, fsync and rename so a crash mid-write leaves either
// the previous token or no session, never a torn file.
type FileSessionStore struct {
	path string
}

var _ SessionStore = (*FileSessionStore)(nil)

// NewFileSessionStore creates a store backed by the file at path.
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: session path is required", ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}
	return &FileSessionStore{path: abs}, nil
}

func (s *FileSessionStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	// Temp file in the same directory so the rename stays on one
	// filesystem and is atomic.
	f, err := os.CreateTemp(dir, ".session-")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.WriteString(token + "\n"); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync session: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
