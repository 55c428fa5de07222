package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Auth modes for the collection service.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Local       LocalConfig       `yaml:"local"`
	Server      ServerConfig      `yaml:"server"`
	Remote      RemoteConfig      `yaml:"remote"`
	Sync        SyncConfig        `yaml:"sync"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Local.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Credentials.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for serve mode.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LocalConfig holds the local bookmark tree database location.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the local tree configuration.
func (c *LocalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ServerConfig holds collection-service configuration for serve mode.
//
// Auth.Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type ServerConfig struct {
	Path string     `yaml:"path"`
	Auth AuthConfig `yaml:"auth"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// AuthConfig holds collection authentication configuration.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RemoteConfig holds the collection endpoint the agent syncs against.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
	)
}

// SyncConfig holds the periodic reconciliation settings.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// UnmarshalYAML parses the interval from a duration string ("5m", "90s").
func (c *SyncConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("sync: parse interval: %w", err)
	}
	c.Interval = d
	return nil
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.Interval < time.Second {
		return fmt.Errorf("sync: interval %s is below one second", c.Interval)
	}
	return nil
}

// CredentialsConfig holds the bearer token file location.
type CredentialsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the credentials configuration.
func (c *CredentialsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Local: LocalConfig{
			Path: "./raido.db",
		},
		Server: ServerConfig{
			Path: "./collection.db",
			Auth: AuthConfig{
				Mode: AuthModeDisabled,
			},
		},
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8080",
		},
		Sync: SyncConfig{
			Interval: 5 * time.Minute,
		},
		Credentials: CredentialsConfig{
			Path: "./raido-token",
		},
	}
}
