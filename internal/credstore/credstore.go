// Package credstore reads and writes the local token file (token.json) and
// reads the operator-supplied app registration (credentials.json).
// Token file access is guarded by a flock on "<token>.lock" so that two
// concurrent invocations cannot interleave a read with a half-written file.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AuthorizedUserType is the credential type written to the token file.
const AuthorizedUserType = "authorized_user"

const (
	filePerms = 0o600
	dirPerms  = 0o700
)

var (
	// ErrNoCredential means no token file exists yet.
	ErrNoCredential = errors.New("no saved credential")
	// ErrMalformedCredential means the token file exists but cannot be used.
	ErrMalformedCredential = errors.New("malformed saved credential")
	// ErrRegistrationMissing means credentials.json is absent or has neither
	// an "installed" nor a "web" section.
	ErrRegistrationMissing = errors.New("app registration missing")
	// ErrLocked means another process holds the token file lock.
	ErrLocked = errors.New("token file is locked by another process")
)

// Credential is the on-disk content of the token file.
type Credential struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// Registration is the client section of credentials.json.
type Registration struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

type registrationFile struct {
	Installed *Registration `json:"installed"`
	Web       *Registration `json:"web"`
}

// Store manages the token file and registration file at fixed paths.
type Store struct {
	tokenPath        string
	registrationPath string
}

// New returns a Store for the given token and registration paths.
func New(tokenPath, registrationPath string) *Store {
	return &Store{tokenPath: tokenPath, registrationPath: registrationPath}
}

// TokenPath returns the path of the token file.
func (s *Store) TokenPath() string {
	return s.tokenPath
}

func (s *Store) lock() (*flock.Flock, error) {
	dir := filepath.Dir(s.tokenPath)
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("creating token directory '%s': %w", dir, err)
	}

	fileLock := flock.New(s.tokenPath + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock for '%s': %w", s.tokenPath, err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return fileLock, nil
}

// Load reads the saved credential. It returns ErrNoCredential when the file
// does not exist and an error wrapping ErrMalformedCredential when the file
// cannot be parsed or lacks a refresh token.
func (s *Store) Load() (*Credential, error) {
	fileLock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer fileLock.Unlock()

	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("reading token file '%s': %w", s.tokenPath, err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: decoding '%s': %v", ErrMalformedCredential, s.tokenPath, err)
	}
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: '%s' has no refresh_token", ErrMalformedCredential, s.tokenPath)
	}
	if cred.Type != "" && cred.Type != AuthorizedUserType {
		return nil, fmt.Errorf("%w: '%s' has unsupported type %q", ErrMalformedCredential, s.tokenPath, cred.Type)
	}

	return &cred, nil
}

// LoadRegistration reads the "installed" (preferred) or "web" client section
// of the registration file.
func (s *Store) LoadRegistration() (*Registration, error) {
	data, err := os.ReadFile(s.registrationPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrRegistrationMissing, s.registrationPath)
		}
		return nil, fmt.Errorf("reading registration file '%s': %w", s.registrationPath, err)
	}

	var rf registrationFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decoding registration file '%s': %w", s.registrationPath, err)
	}

	reg := rf.Installed
	if reg == nil {
		reg = rf.Web
	}
	if reg == nil || reg.ClientID == "" {
		return nil, fmt.Errorf("%w: %s has no installed or web client", ErrRegistrationMissing, s.registrationPath)
	}

	return reg, nil
}

// Save merges refreshToken with the client id and secret from the
// registration file and overwrites the token file atomically.
func (s *Store) Save(refreshToken string) (*Credential, error) {
	reg, err := s.LoadRegistration()
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		Type:         AuthorizedUserType,
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		RefreshToken: refreshToken,
	}

	if err := s.Write(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Write overwrites the token file with cred as is.
func (s *Store) Write(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credential: %w", err)
	}

	fileLock, err := s.lock()
	if err != nil {
		return err
	}
	defer fileLock.Unlock()

	return writeAtomic(s.tokenPath, data)
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete() error {
	fileLock, err := s.lock()
	if err != nil {
		return err
	}
	defer fileLock.Unlock()

	err = os.Remove(s.tokenPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting token file '%s': %w", s.tokenPath, err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, filePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming token file: %w", err)
	}

	success = true
	return nil
}
