// Package file provides a TOML-backed status store keeping the small
// per-project status record on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// StatusFileName is the status file kept in the config directory.
const StatusFileName = "status.toml"

// StatusStore persists project status records in a single TOML file,
// one table per project.
type StatusStore struct {
	mu       sync.Mutex
	filePath string
	data     map[string]domain.ProjectStatus
}

var _ driven.StatusStore = (*StatusStore)(nil)

// NewStatusStore creates a status store backed by a TOML file in the
// given directory. An empty configDir defaults to ~/.prism.
func NewStatusStore(configDir string) (*StatusStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".prism")
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &StatusStore{
		filePath: filepath.Join(configDir, StatusFileName),
		data:     make(map[string]domain.ProjectStatus),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// GetStatus returns the stored status for a project. Projects without a
// record return the zero value.
func (s *StatusStore) GetStatus(_ context.Context, project string) (domain.ProjectStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data[project], nil
}

// SetStatus stores the status for a project and persists immediately.
func (s *StatusStore) SetStatus(_ context.Context, project string, status domain.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[project] = status
	return s.save()
}

// Path returns the status file path.
func (s *StatusStore) Path() string {
	return s.filePath
}

func (s *StatusStore) load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read status file: %w", err)
	}

	if err := toml.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("parse status file: %w", err)
	}

	return nil
}

func (s *StatusStore) save() error {
	raw, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	if err := os.WriteFile(s.filePath, raw, 0o600); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}

	return nil
}
