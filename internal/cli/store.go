package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
)

// SessionDir returns ~/.odyssey.
func SessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".odyssey"
	}
	return filepath.Join(home, ".odyssey")
}

// SessionPath returns ~/.odyssey/session.yaml.
func SessionPath() string {
	return filepath.Join(SessionDir(), "session.yaml")
}

type cachedUser struct {
	ID           string    `yaml:"id"`
	Email        string    `yaml:"email"`
	Role         string    `yaml:"role"`
	EmployeeID   string    `yaml:"employee-id,omitempty"`
	DepartmentID string    `yaml:"department-id,omitempty"`
	ExpiresAt    time.Time `yaml:"expires-at"`
}

type sessionFile struct {
	Token string      `yaml:"token"`
	User  *cachedUser `yaml:"user,omitempty"`
}

// FileStore keeps the session token and its decoded claim in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path, or SessionPath when empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = SessionPath()
	}
	return &FileStore{path: path}
}

// Path reports the backing file.
func (s *FileStore) Path() string { return s.path }

// Load returns the saved token, or "" when nothing is saved.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	var file sessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	return file.Token, nil
}

// Save writes token and claim with owner-only permissions.
func (s *FileStore) Save(token string, claim claims.SessionClaim) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(sessionFile{
		Token: token,
		User: &cachedUser{
			ID:           claim.Subject,
			Email:        claim.Email,
			Role:         string(claim.Role),
			EmployeeID:   claim.EmployeeID,
			DepartmentID: claim.DepartmentID,
			ExpiresAt:    claim.ExpiresAt,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
