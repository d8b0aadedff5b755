package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the spendcap service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Connections ConnectionsConfig `yaml:"connections"`
	Holds       HoldsConfig       `yaml:"holds"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds hold/ledger database settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // sqlite (default: sqlite)
	Path             string `yaml:"path"`
	BusyTimeoutMs    int    `yaml:"busy_timeout_ms"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// Connection directory drivers.
const (
	ConnectionsSQLite = "sqlite"
	ConnectionsRedis  = "redis"
	ConnectionsStatic = "static"
)

// ConnectionsConfig selects where connection budgets are read from.
type ConnectionsConfig struct {
	Driver    string   `yaml:"driver"` // sqlite, redis, static (default: sqlite)
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
	// Static maps connection id to daily budget in sats; null means unlimited.
	Static map[string]*uint64 `yaml:"static"`
}

// HoldsConfig holds hold lifecycle settings.
type HoldsConfig struct {
	DefaultTimeoutMs int `yaml:"default_timeout_ms"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.BusyTimeoutMs <= 0 {
		c.Database.BusyTimeoutMs = 5000
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Connections.Driver == "" {
		c.Connections.Driver = ConnectionsSQLite
	}
	if c.Connections.KeyPrefix == "" {
		c.Connections.KeyPrefix = "spendcap:"
	}
	if c.Holds.DefaultTimeoutMs <= 0 {
		c.Holds.DefaultTimeoutMs = 60000
	}
	if c.Holds.SweepIntervalSec <= 0 {
		c.Holds.SweepIntervalSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be \"sqlite\", got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Connections.Driver {
	case ConnectionsSQLite:
		// ok
	case ConnectionsStatic:
		for id, b := range c.Connections.Static {
			if b != nil && *b > math.MaxInt64 {
				return fmt.Errorf("connections.static.%s: daily budget %d exceeds %d", id, *b, int64(math.MaxInt64))
			}
		}
	case ConnectionsRedis:
		if len(c.Connections.Addrs) == 0 {
			return fmt.Errorf("connections.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf(
			"connections.driver must be \"sqlite\", \"redis\" or \"static\", got %q", c.Connections.Driver,
		)
	}
	return nil
}

// DefaultHoldTimeout returns holds.default_timeout_ms as a duration.
func (c *Config) DefaultHoldTimeout() time.Duration {
	return time.Duration(c.Holds.DefaultTimeoutMs) * time.Millisecond
}

// SweepInterval returns holds.sweep_interval_sec as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Holds.SweepIntervalSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
