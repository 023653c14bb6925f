package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistoryConfig configures the operation journal.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Algorithm string        `mapstructure:"algorithm"`
	Workers   int           `mapstructure:"workers"`
	ChunkSize int           `mapstructure:"chunk_size"`
	Cache     CacheConfig   `mapstructure:"cache"`
	History   HistoryConfig `mapstructure:"history"`
	Logging   LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/hashguard/config.yaml
//   - $HOME/.config/hashguard/config.yaml
//
// Environment variables are prefixed with HASHGUARD_
// (e.g., HASHGUARD_ALGORITHM).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "hashguard"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "hashguard"))

	v.SetEnvPrefix("HASHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (ignore if not found).
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in persisted paths.
	for _, p := range []*string{&cfg.Cache.Path, &cfg.History.Path, &cfg.Logging.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// SetDefaults registers the default values on a viper instance. The CLI
// shares this with Load so flag binding and file loading agree.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("chunk_size", DefaultChunkSize)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means log file output disabled.
	v.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"verify":  "info",
		"walker":  "warn",
		"cache":   "warn",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "hashguard"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hashguard"), nil
}

// EnsureConfigDir creates the configuration directory if it does not
// exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// ConfigFilePath returns the path of the configuration file, whether or
// not it exists.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault creates a commented default config file. An existing
// file is left untouched.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	path, err := ConfigFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Hashguard Configuration

# Digest algorithm used when none is specified.
# Run 'hashguard algorithms' for the available set.
algorithm: %s

# Digest worker count (1-16)
workers: %d

# Read buffer size in bytes
chunk_size: %d

# Digest cache: skips re-hashing files whose size and mtime are
# unchanged since the last scan
cache:
  enabled: true
  path: %s

# Operation journal
history:
  enabled: true
  path: %s
  retention_days: %d

# Logging (path empty disables file output)
logging:
  level: info
  path: ""
`,
		DefaultAlgorithm, DefaultWorkers, DefaultChunkSize,
		DefaultCachePath(), DefaultHistoryPath(), DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DataDir returns $XDG_DATA_HOME/hashguard/ for the history journal.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "hashguard")
}

// StateDir returns $XDG_STATE_HOME/hashguard/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "hashguard")
}

// CacheDir returns $XDG_CACHE_HOME/hashguard/ for the digest cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "hashguard")
}

// DefaultCachePath returns the default digest cache location.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "digests")
}

// DefaultHistoryPath returns the default history journal location.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
