package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// fileState is the on-disk layout of the state file.
type fileState struct {
	ActiveTab string    `yaml:"active_tab"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// FileStore keeps preferences in a YAML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/agent-monitor/state.yml, falling back
// to the platform's user config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", fmt.Errorf("locate config dir: %w", err)
		}
	}
	return filepath.Join(dir, "agent-monitor", "state.yml"), nil
}

// Path returns the file path.
func (s *FileStore) Path() string {
	return s.path
}

// ActiveTab reads the saved tab. A missing file yields "".
func (s *FileStore) ActiveTab(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return "", err
	}
	return st.ActiveTab, nil
}

// SetActiveTab writes the tab, replacing the file atomically.
func (s *FileStore) SetActiveTab(_ context.Context, tab string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		// A corrupt file is replaced.
		st = fileState{}
	}
	st.ActiveTab = tab
	st.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.yml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (fileState, error) {
	var st fileState

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read state file: %w", err)
	}

	if err := yaml.Unmarshal(data, &st); err != nil {
		return fileState{}, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return st, nil
}
