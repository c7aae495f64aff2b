package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted once at configuration load time.
// The installer scripts set these; the server never re-reads the
// environment after startup.
const (
	EnvDefaultPath = "MEMVID_FILE"
	EnvBinary      = "MEMVID_BIN"
)

// DefaultBinaryName is used when no binary location is configured; it is
// resolved through the standard executable search path.
const DefaultBinaryName = "memvid"

// Config represents the server configuration.
// It is constructed once at startup and treated as immutable afterwards.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Memvid    MemvidConfig    `yaml:"memvid"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MemvidConfig defines how the external memvid store is reached.
// Both fields are optional: a missing DefaultPath requires every call to
// supply an explicit path, and a missing Binary falls back to searching
// the PATH for "memvid".
type MemvidConfig struct {
	DefaultPath string `yaml:"default_path,omitempty"`
	Binary      string `yaml:"binary,omitempty"`
}

// LoadConfig builds the configuration from an optional YAML file and the
// process environment. A missing file is not an error — installer-driven
// deployments configure the server entirely through MEMVID_FILE and
// MEMVID_BIN. Environment values take precedence over file values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Transport: TransportConfig{Type: "stdio"},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Env-only deployment; keep defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
		if config.Transport.Type == "" {
			config.Transport.Type = "stdio"
		}
	}

	config.applyEnvironment()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvironment overlays environment-provided values onto the config.
func (c *Config) applyEnvironment() {
	if v := os.Getenv(EnvDefaultPath); v != "" {
		c.Memvid.DefaultPath = v
	}
	if v := os.Getenv(EnvBinary); v != "" {
		c.Memvid.Binary = v
	}
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// ResolvePath selects the memory file an operation targets.
// An explicit, non-empty argument always wins; otherwise the configured
// default is used. With neither available the operation cannot proceed.
func (m *MemvidConfig) ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if m.DefaultPath != "" {
		return m.DefaultPath, nil
	}

	return "", &Error{
		Code:    ConfigurationError,
		Message: fmt.Sprintf("no memory file path: pass a 'path' argument or set %s", EnvDefaultPath),
	}
}

// BinaryName returns the memvid executable to invoke.
func (m *MemvidConfig) BinaryName() string {
	if m.Binary != "" {
		return m.Binary
	}
	return DefaultBinaryName
}
