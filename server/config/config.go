package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/paths"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name searched for when no path is given
const DefaultConfigFile = "sqllab.yml"

// Config is built once at startup and handed to every component that needs it
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Shell    ShellConfig    `yaml:"shell"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // "json" or "console"
	FilePath   string `yaml:"file_path"`   // Path to log file
	Console    bool   `yaml:"console"`     // Whether to log to console
	MaxSize    int    `yaml:"max_size"`    // Max file size in MB
	MaxBackups int    `yaml:"max_backups"` // Max number of backup files
	MaxAge     int    `yaml:"max_age"`     // Max age in days
	Cleanup    bool   `yaml:"cleanup"`     // Truncate log file on startup
}

// DatabaseConfig describes the sandbox database
type DatabaseConfig struct {
	Path        string        `yaml:"path"`
	Seed        bool          `yaml:"seed"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	HistoryMaxAge  time.Duration `yaml:"history_max_age"` // finished queries older than this are dropped, 0 keeps them
}

// ShellConfig configures the interactive shell
type ShellConfig struct {
	Prompt      string `yaml:"prompt"`
	HistorySize int    `yaml:"history_size"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	home := paths.Default()
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			FilePath:   home.GetLogPath(),
			Console:    false,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			Cleanup:    false,
		},
		Database: DatabaseConfig{
			Path:        home.GetDatabasePath(),
			Seed:        true,
			BusyTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Address:        "127.0.0.1:2847",
			RequestTimeout: 30 * time.Second,
			HistoryMaxAge:  time.Hour,
		},
		Shell: ShellConfig{
			Prompt:      "sqllab> ",
			HistorySize: 100,
		},
	}
}

// LoadConfig loads configuration from filename on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", filename)
	}

	cfg := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", filename)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.New(ErrConfigValidationFailed, "configuration validation failed", err).AddContext("path", filename)
	}

	return cfg, nil
}

// Load resolves the configuration: an explicit path must exist, otherwise the
// first sqllab.yml found in the working directory or ~/.sqllab is used, and
// the defaults when there is none. The returned path is "" for defaults.
func Load(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := LoadConfig(explicit)
		return cfg, explicit, err
	}

	path := FindConfigFile()
	if path == "" {
		return LoadDefaultConfig(), "", nil
	}

	cfg, err := LoadConfig(path)
	return cfg, path, err
}

// FindConfigFile searches for sqllab.yml, returns "" when absent
func FindConfigFile() string {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}

	candidate := paths.Default().GetConfigPath(DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// SaveConfig saves configuration to a file
func SaveConfig(cfg *Config, filename string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to create config directory", err).AddContext("path", filename)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", filename)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Shell.Validate()
}

func (l *LogConfig) Validate() error {
	switch l.Format {
	case "json", "console":
	default:
		return errors.New(ErrLogFormatInvalid, "log format must be json or console", nil).AddContext("format", l.Format)
	}
	if !l.Console && l.FilePath == "" {
		return errors.New(ErrLogOutputRequired, "either console logging or a log file path is required", nil)
	}
	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return errors.New(ErrDatabasePathRequired, "database path is required", nil)
	}
	if d.BusyTimeout < 0 {
		return errors.New(ErrDatabaseTimeoutInvalid, "busy_timeout cannot be negative", nil)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New(ErrServerAddressRequired, "server address is required", nil)
	}
	if s.HistoryMaxAge < 0 {
		return errors.New(ErrServerHistoryInvalid, "history_max_age cannot be negative", nil)
	}
	return nil
}

func (s *ShellConfig) Validate() error {
	if s.HistorySize < 0 {
		return errors.New(ErrShellHistoryInvalid, "history_size cannot be negative", nil)
	}
	return nil
}

// IsInMemory reports whether the sandbox lives only in memory
func (d *DatabaseConfig) IsInMemory() bool {
	return d.Path == ":memory:"
}
