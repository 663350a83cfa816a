package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrMissingName       = errors.New("connection name is required")
	ErrInvalidAdapter    = errors.New("invalid adapter")
	ErrInvalidColor      = errors.New("invalid color mode")
	ErrInvalidRateLimit  = errors.New("invalid rate limit")
)

// Config holds all application configuration.
type Config struct {
	Theme             string            `yaml:"theme"`
	KeyMode           string            `yaml:"key_mode"`
	DefaultConnection string            `yaml:"default_connection,omitempty"`
	Connections       []SavedConnection `yaml:"connections"`
	Output            OutputConfig      `yaml:"output"`
	Audit             AuditConfig       `yaml:"audit"`
	History           HistoryConfig     `yaml:"history"`
	Server            ServerConfig      `yaml:"server"`
}

// OutputConfig controls how extracted DDL is printed.
type OutputConfig struct {
	Color  string `yaml:"color"` // "auto", "always" or "never"
	Header bool   `yaml:"header"`
}

// AuditConfig controls the JSON Lines audit log of extractions.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// HistoryConfig controls the snapshot store used for drift checks.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// ServerConfig holds settings for serve mode.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables rate limiting
	Burst             int           `yaml:"burst"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// SavedConnection holds parameters for a saved catalog connection.
type SavedConnection struct {
	Name     string `yaml:"name"`
	Adapter  string `yaml:"adapter"`
	DSN      string `yaml:"dsn,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Theme:   "default",
		KeyMode: "standard",
		Output: OutputConfig{
			Color: "auto",
		},
		Audit: AuditConfig{
			MaxSizeMB: 10,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr:              ":8000",
			RequestsPerSecond: 5,
			Burst:             10,
			RequestTimeout:    30 * time.Second,
		},
	}
}

// ConfigDir returns the matviewddl configuration directory path, typically
// ~/.config/matviewddl/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "matviewddl"), nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from ConfigDir()/config.yaml.
func LoadDefault() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, sc := range c.Connections {
		if strings.TrimSpace(sc.Name) == "" {
			return fmt.Errorf("connections[%d]: %w", i, ErrMissingName)
		}
		switch strings.ToLower(sc.Adapter) {
		case "", "postgres", "pq":
		default:
			return fmt.Errorf("connection %q: %w: %s", sc.Name, ErrInvalidAdapter, sc.Adapter)
		}
		seen[sc.Name] = true
	}
	if c.DefaultConnection != "" && !seen[c.DefaultConnection] {
		return fmt.Errorf("default_connection %q: %w", c.DefaultConnection, ErrUnknownConnection)
	}
	switch c.Output.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("output.color %q: %w", c.Output.Color, ErrInvalidColor)
	}
	if c.Server.RequestsPerSecond < 0 || c.Server.Burst < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// Connection returns the saved connection called name. An empty name
// selects DefaultConnection.
func (c *Config) Connection(name string) (*SavedConnection, error) {
	if name == "" {
		name = c.DefaultConnection
	}
	for i := range c.Connections {
		if c.Connections[i].Name == name {
			return &c.Connections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
}

// AdapterName returns the adapter, defaulting to "postgres".
func (sc *SavedConnection) AdapterName() string {
	if sc.Adapter == "" {
		return "postgres"
	}
	return strings.ToLower(sc.Adapter)
}

// BuildDSN constructs a postgres:// URL from the individual fields of a
// SavedConnection. If DSN is already set, it is returned as-is.
func (sc *SavedConnection) BuildDSN() string {
	if sc.DSN != "" {
		return sc.DSN
	}

	host := sc.Host
	if host == "" {
		host = "localhost"
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   host,
	}
	if sc.Port > 0 {
		u.Host = host + ":" + strconv.Itoa(sc.Port)
	}
	if sc.User != "" {
		if sc.Password != "" {
			u.User = url.UserPassword(sc.User, sc.Password)
		} else {
			u.User = url.User(sc.User)
		}
	}
	if sc.Database != "" {
		u.Path = "/" + sc.Database
	}
	if sc.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {sc.SSLMode}}.Encode()
	}
	return u.String()
}

// DisplayString returns a credential-free representation of the
// connection, formatted as "adapter://host:port/database".
func (sc *SavedConnection) DisplayString() string {
	if sc.DSN != "" && sc.Host == "" {
		if u, err := url.Parse(sc.DSN); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s%s", sc.AdapterName(), u.Host, u.Path)
		}
		return sc.AdapterName() + "://(dsn)"
	}

	host := sc.Host
	if host == "" {
		host = "localhost"
	}

	location := host
	if sc.Port > 0 {
		location = fmt.Sprintf("%s:%d", host, sc.Port)
	}

	if sc.Database != "" {
		return fmt.Sprintf("%s://%s/%s", sc.AdapterName(), location, sc.Database)
	}
	return fmt.Sprintf("%s://%s", sc.AdapterName(), location)
}
