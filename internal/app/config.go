package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/artisanhosting/artisan-cli/internal/api"
	"github.com/artisanhosting/artisan-cli/internal/keystore"
	"github.com/artisanhosting/artisan-cli/internal/observability"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// KeyStorageType represents where the credentials master key is kept.
type KeyStorageType string

const (
	KeyStorageTypeFile    KeyStorageType = "file"
	KeyStorageTypeEnv     KeyStorageType = "env"
	KeyStorageTypeKeyring KeyStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogLevel          = slog.LevelInfo
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigTelemetryExporter = observability.ExporterNone
	DefaultConfigAPIBaseURL        = api.DefaultBaseURL
	DefaultConfigAPITimeout        = 30 * time.Second
	DefaultConfigStateDirName      = ".artisan_cli"
	DefaultConfigEnvFile           = ".env"
	DefaultConfigCredentialsFile   = "credentials.ejson"
	DefaultConfigKeyStorage        = KeyStorageTypeKeyring
	DefaultConfigKeyFile           = "credentials.key"

	keyringService = "artisan-cli-credentials"
)

// TelemetryConfig controls OpenTelemetry log export.
type TelemetryConfig struct {
	Exporter string `json:"exporter" validate:"oneof=none stdout otlphttp otlpgrpc"`
}

// APIConfig holds Artisan Hosting API settings.
type APIConfig struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// StateConfig locates the files that survive between invocations.
// File names are resolved against Dir unless absolute.
type StateConfig struct {
	Dir             string `json:"dir" validate:"required"`
	EnvFile         string `json:"env_file" validate:"required"`
	CredentialsFile string `json:"credentials_file" validate:"required"`
}

// EnvPath returns the location of the session env file.
func (s StateConfig) EnvPath() string {
	return s.resolve(s.EnvFile)
}

// CredentialsPath returns the location of the encrypted credentials file.
func (s StateConfig) CredentialsPath() string {
	return s.resolve(s.CredentialsFile)
}

func (s StateConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// CredentialsConfig describes how the credentials master key is stored.
type CredentialsConfig struct {
	KeyStorage KeyStorageType `json:"key_storage" validate:"required,oneof=file env keyring"`

	// Storage-specific settings (mutually exclusive based on KeyStorage type)
	KeyFile     string `json:"key_file,omitempty"`     // For file storage, and the keyring fallback: path to key file
	KeyEnv      string `json:"key_env,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewKeyStore creates a KeyStore from the credentials configuration.
func (c *CredentialsConfig) NewKeyStore() (keystore.KeyStore, error) {
	switch c.KeyStorage {
	case KeyStorageTypeFile:
		return keystore.NewFileStore(c.KeyFile)
	case KeyStorageTypeEnv:
		return keystore.NewEnvStore(c.KeyEnv)
	case KeyStorageTypeKeyring:
		primary, err := keystore.NewKeyringStore(keyringService, c.KeyringUser)
		if err != nil {
			return nil, err
		}
		if c.KeyFile == "" {
			return primary, nil
		}
		fallback, err := keystore.NewFileStore(c.KeyFile)
		if err != nil {
			return nil, err
		}
		return keystore.NewFailoverStore(primary, fallback)
	default:
		return nil, fmt.Errorf("unsupported key storage type: %s", c.KeyStorage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output. The zero value is DefaultConfigLogLevel.
	LogLevel    slog.Level        `json:"log_level"`
	LogFormat   LogFormat         `json:"log_format" validate:"oneof=text json"`
	Telemetry   TelemetryConfig   `json:"telemetry"`
	API         APIConfig         `json:"api"`
	State       StateConfig       `json:"state"`
	Credentials CredentialsConfig `json:"credentials"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.State.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("state.dir required (auto-detect failed: %w)", err)
		}
		c.State.Dir = filepath.Join(home, DefaultConfigStateDirName)
	}
	if c.State.EnvFile == "" {
		c.State.EnvFile = DefaultConfigEnvFile
	}
	if c.State.CredentialsFile == "" {
		c.State.CredentialsFile = DefaultConfigCredentialsFile
	}
	if c.Credentials.KeyStorage == "" {
		c.Credentials.KeyStorage = DefaultConfigKeyStorage
	}

	// Dynamic defaults based on storage type
	switch c.Credentials.KeyStorage {
	case KeyStorageTypeFile:
		if c.Credentials.KeyFile == "" {
			c.Credentials.KeyFile = filepath.Join(c.State.Dir, DefaultConfigKeyFile)
		}
	case KeyStorageTypeKeyring:
		if c.Credentials.KeyFile == "" {
			c.Credentials.KeyFile = filepath.Join(c.State.Dir, DefaultConfigKeyFile)
		}
		if c.Credentials.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("credentials.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Credentials.KeyringUser = currentUser.Username
		}
	case KeyStorageTypeEnv:
		// key_env must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Credentials.KeyStorage {
	case KeyStorageTypeFile:
		if c.Credentials.KeyFile == "" {
			return errors.New("key_file required for file key storage")
		}
	case KeyStorageTypeEnv:
		if c.Credentials.KeyEnv == "" {
			return errors.New("key_env required for env key storage")
		}
	case KeyStorageTypeKeyring:
		if c.Credentials.KeyringUser == "" {
			return errors.New("keyring_user required for keyring key storage")
		}
	}

	return nil
}
