// Package session keeps the state of transfers whose invitation was created
// but whose final pending-owner update did not go through. A later run for the
// same file and recipient resumes from the saved permission instead of
// inviting the recipient a second time.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked means another process holds the lock on a session file.
var ErrLocked = errors.New("could not acquire file lock, another instance may be running")

// State represents a transfer waiting for its pending-owner update.
type State struct {
	FileID             string    `json:"fileId"`
	FileName           string    `json:"fileName"`
	Email              string    `json:"email"`
	PermissionID       string    `json:"permissionId"`
	CreatedDateTime    time.Time `json:"createdDateTime"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// Manager handles session file operations with configurable directory
type Manager struct {
	configDir string
	now       func() time.Time
}

// NewManager creates a session manager under the user config directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user config directory: %w", err)
	}
	return NewManagerWithConfigDir(filepath.Join(configDir, "gdrive-ownership")), nil
}

// NewManagerWithConfigDir creates a session manager with custom config directory
func NewManagerWithConfigDir(configDir string) *Manager {
	return &Manager{configDir: configDir, now: time.Now}
}

func (m *Manager) getSessionDir() string {
	return filepath.Join(m.configDir, "sessions")
}

// GetSessionFilePath returns the full path for the session of a file name and
// recipient. Email case does not matter.
func (m *Manager) GetSessionFilePath(fileName, email string) string {
	hash := sha256.New()
	hash.Write([]byte(fileName + ":" + strings.ToLower(email)))
	filename := hex.EncodeToString(hash.Sum(nil)) + ".json"

	return filepath.Join(m.getSessionDir(), filename)
}

func (m *Manager) lock(filePath string) (*flock.Flock, error) {
	if err := os.MkdirAll(m.getSessionDir(), 0o700); err != nil {
		return nil, fmt.Errorf("could not create session directory: %w", err)
	}

	lock := flock.New(filePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("could not acquire file lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return lock, nil
}

// Save persists a pending transfer. A zero ExpirationDateTime is filled in
// from ttl.
func (m *Manager) Save(state *State, ttl time.Duration) error {
	filePath := m.GetSessionFilePath(state.FileName, state.Email)

	lock, err := m.lock(filePath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if state.CreatedDateTime.IsZero() {
		state.CreatedDateTime = m.now().UTC()
	}
	if state.ExpirationDateTime.IsZero() {
		state.ExpirationDateTime = state.CreatedDateTime.Add(ttl)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal session state: %w", err)
	}

	return os.WriteFile(filePath, data, 0o600)
}

// Load returns the pending transfer for fileName and email, or nil when there
// is none. Expired sessions are removed and reported as absent.
func (m *Manager) Load(fileName, email string) (*State, error) {
	filePath := m.GetSessionFilePath(fileName, email)

	lock, err := m.lock(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		lock.Unlock()
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read session file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("could not unmarshal session state: %w", err)
	}
	lock.Unlock()

	if m.now().After(state.ExpirationDateTime) {
		_ = m.Delete(fileName, email)
		return nil, nil
	}

	return &state, nil
}

// Delete removes the session state file.
func (m *Manager) Delete(fileName, email string) error {
	filePath := m.GetSessionFilePath(fileName, email)

	lock, err := m.lock(filePath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete session file: %w", err)
	}
	return nil
}
