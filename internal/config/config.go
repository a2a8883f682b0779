// Package config holds the single configuration value that is built once at
// startup and handed to every component. Values are layered: built-in
// defaults, then an optional TOML file, then environment variables. Command
// line flags are applied last by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"google.golang.org/api/drive/v3"
)

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given. Its absence is not an error.
const DefaultConfigFile = "gdrive-ownership.toml"

const (
	DefaultTokenPath          = "token.json"
	DefaultCredentialsPath    = "credentials.json"
	DefaultPageSize           = 100
	DefaultPermissionPageSize = 100
	DefaultEmailMessage       = "sending you this file"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultConsentTimeout     = 5 * time.Minute
	DefaultPendingTTL         = 24 * time.Hour

	// MaxPageSize is the largest page the files.list call accepts.
	MaxPageSize = 1000
	// MaxPermissionPageSize is the largest page the permissions.list call accepts.
	MaxPermissionPageSize = 100
)

// Environment variables that override file values.
const (
	EnvConfigPath  = "GDRIVE_OWNERSHIP_CONFIG"
	EnvTokenPath   = "GDRIVE_OWNERSHIP_TOKEN"
	EnvCredentials = "GDRIVE_OWNERSHIP_CREDENTIALS"
	EnvDebug       = "GDRIVE_OWNERSHIP_DEBUG"
)

// DefaultScopes is the narrowest scope that can both list a user's files and
// change sharing on them. drive.metadata and drive.file are subsumed by it.
var DefaultScopes = []string{drive.DriveScope}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration lets TOML files spell timeouts as "30s" or "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Configuration holds every setting the CLI needs. An empty SessionDir means
// the user config directory.
type Configuration struct {
	TokenPath             string   `toml:"token_path"`
	CredentialsPath       string   `toml:"credentials_path"`
	Scopes                []string `toml:"scopes"`
	PageSize              int64    `toml:"page_size"`
	PermissionPageSize    int64    `toml:"permission_page_size"`
	EmailMessage          string   `toml:"email_message"`
	SendNotificationEmail bool     `toml:"send_notification_email"`
	MoveToNewOwnersRoot   bool     `toml:"move_to_new_owners_root"`
	HTTPTimeout           Duration `toml:"http_timeout"`
	ConsentTimeout        Duration `toml:"consent_timeout"`
	SessionDir            string   `toml:"session_dir"`
	PendingTTL            Duration `toml:"pending_ttl"`
	Debug                 bool     `toml:"debug"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Configuration {
	scopes := make([]string, len(DefaultScopes))
	copy(scopes, DefaultScopes)

	return &Configuration{
		TokenPath:             DefaultTokenPath,
		CredentialsPath:       DefaultCredentialsPath,
		Scopes:                scopes,
		PageSize:              DefaultPageSize,
		PermissionPageSize:    DefaultPermissionPageSize,
		EmailMessage:          DefaultEmailMessage,
		SendNotificationEmail: true,
		MoveToNewOwnersRoot:   true,
		HTTPTimeout:           Duration{DefaultHTTPTimeout},
		ConsentTimeout:        Duration{DefaultConsentTimeout},
		PendingTTL:            Duration{DefaultPendingTTL},
	}
}

// Load builds a configuration from defaults, the TOML file at path and the
// environment. An empty path means DefaultConfigFile (or $GDRIVE_OWNERSHIP_CONFIG),
// which may be absent. An explicitly named file must exist.
func Load(path string) (*Configuration, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path = env
			explicit = true
		} else {
			path = DefaultConfigFile
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Configuration) applyEnv() error {
	if v := os.Getenv(EnvTokenPath); v != "" {
		c.TokenPath = v
	}
	if v := os.Getenv(EnvCredentials); v != "" {
		c.CredentialsPath = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvDebug, v, err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks that the configuration can be used before any network call
// is made.
func (c *Configuration) Validate() error {
	switch {
	case c.TokenPath == "":
		return fmt.Errorf("%w: token path is empty", ErrInvalidConfig)
	case c.CredentialsPath == "":
		return fmt.Errorf("%w: credentials path is empty", ErrInvalidConfig)
	case len(c.Scopes) == 0:
		return fmt.Errorf("%w: at least one OAuth scope is required", ErrInvalidConfig)
	case c.PageSize < 1 || c.PageSize > MaxPageSize:
		return fmt.Errorf("%w: page_size must be between 1 and %d, got %d", ErrInvalidConfig, MaxPageSize, c.PageSize)
	case c.PermissionPageSize < 1 || c.PermissionPageSize > MaxPermissionPageSize:
		return fmt.Errorf("%w: permission_page_size must be between 1 and %d, got %d",
			ErrInvalidConfig, MaxPermissionPageSize, c.PermissionPageSize)
	case c.HTTPTimeout.Duration <= 0:
		return fmt.Errorf("%w: http_timeout must be positive", ErrInvalidConfig)
	case c.ConsentTimeout.Duration <= 0:
		return fmt.Errorf("%w: consent_timeout must be positive", ErrInvalidConfig)
	case c.PendingTTL.Duration <= 0:
		return fmt.Errorf("%w: pending_ttl must be positive", ErrInvalidConfig)
	}

	for _, scope := range c.Scopes {
		if scope == "" {
			return fmt.Errorf("%w: empty OAuth scope", ErrInvalidConfig)
		}
	}

	return nil
}
