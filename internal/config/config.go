package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"kyklos/internal/models"
)

const (
	DefaultAPIURL          = "http://127.0.0.1:7410"
	DefaultDBFileName      = ".kyklos.db"
	DefaultSessionTTLHours = 24
	DefaultLogLevel        = "info"

	configFileName  = ".kyklos.toml"
	configDirEnvKey = "KYKLOS_CONFIG_DIR"
	dbPathEnvKey    = "KYKLOS_DB_PATH"
	apiURLEnvKey    = "KYKLOS_API_URL"
)

// Config defines runtime configuration for kyklos.
type Config struct {
	APIURL          string `toml:"api_url"`
	DBPath          string `toml:"db_path"`
	AutoMigrate     bool   `toml:"auto_migrate"`
	SessionTTLHours int    `toml:"session_ttl_hours"`
	TemplatePath    string `toml:"template_path"`
	LogLevel        string `toml:"log_level"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		DBPath:          "",
		AutoMigrate:     true,
		SessionTTLHours: DefaultSessionTTLHours,
		TemplatePath:    "",
		LogLevel:        "",
	}
}

// Load resolves configuration from file defaults and environment
// overrides. Missing config files are not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFileIfExists(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		cfg.DBPath = filepath.Join(home, DefaultDBFileName)
	}
	if cfg.SessionTTLHours <= 0 {
		cfg.SessionTTLHours = DefaultSessionTTLHours
	}

	return &cfg, nil
}

// WeekTemplate returns the seed template to use for first-ever day
// seeding: the YAML file at template_path when configured, otherwise
// the built-in routine.
func (c *Config) WeekTemplate() (models.WeekTemplate, error) {
	if c == nil || strings.TrimSpace(c.TemplatePath) == "" {
		return models.DefaultWeekTemplate(), nil
	}
	return LoadWeekTemplate(c.TemplatePath)
}

func resolveConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory: run on defaults.
		return "", nil
	}
	return filepath.Join(home, configFileName), nil
}

func loadFileIfExists(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if value := strings.TrimSpace(os.Getenv(dbPathEnvKey)); value != "" {
		cfg.DBPath = value
	}
	if value := strings.TrimSpace(os.Getenv(apiURLEnvKey)); value != "" {
		cfg.APIURL = value
	}
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"auto_migrate",
	"session_ttl_hours",
	"template_path",
	"log_level",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "auto_migrate":
		return strconv.FormatBool(c.AutoMigrate), nil
	case "session_ttl_hours":
		return strconv.Itoa(c.SessionTTLHours), nil
	case "template_path":
		return c.TemplatePath, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}
