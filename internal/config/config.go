package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "MEMOARA_"

type Config struct {
	Storage       StorageConfig       `koanf:"storage"`
	Log           LogConfig           `koanf:"log"`
	Reminders     RemindersConfig     `koanf:"reminders"`
	Sync          SyncConfig          `koanf:"sync"`
	Rowstore      RowstoreConfig      `koanf:"rowstore"`
	Drive         DriveConfig         `koanf:"drive"`
	Auth          AuthConfig          `koanf:"auth"`
	Connectivity  ConnectivityConfig  `koanf:"connectivity"`
	Scheduler     SchedulerConfig     `koanf:"scheduler"`
	Notifications NotificationsConfig `koanf:"notifications"`
	HTTP          HTTPConfig          `koanf:"http"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Path       string `koanf:"path"`
	Console    bool   `koanf:"console"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type RemindersConfig struct {
	CompletionDelay time.Duration `koanf:"completion_delay"`
	Timezone        string        `koanf:"timezone"`
}

type SyncConfig struct {
	Backend  string        `koanf:"backend"`
	Debounce time.Duration `koanf:"debounce"`
	Timeout  time.Duration `koanf:"timeout"`
}

type RowstoreConfig struct {
	DSN string `koanf:"dsn"`
}

type DriveConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	FileName     string `koanf:"file_name"`
}

// AuthConfig selects how bearer tokens are checked. With a JWT secret tokens
// are verified locally; otherwise Token is passed through to the backend.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Token     string `koanf:"token"`
}

type ConnectivityConfig struct {
	ProbeAddr string        `koanf:"probe_addr"`
	Interval  time.Duration `koanf:"interval"`
}

type SchedulerConfig struct {
	Buffer int `koanf:"buffer"`
}

type NotificationsConfig struct {
	Desktop bool `koanf:"desktop"`
}

type HTTPConfig struct {
	Addr           string   `koanf:"addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	RatePerMinute  int      `koanf:"rate_per_minute"`
}

// Load layers defaults, the optional YAML file at configPath, a .env file in
// the working directory and MEMOARA_ environment variables. Nested keys use a
// double underscore, so MEMOARA_SYNC__BACKEND sets sync.backend.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
	cfg.HTTP.AllowedOrigins = splitList(cfg.HTTP.AllowedOrigins)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Sync.Backend {
	case BackendDrive:
		if c.Drive.FileName == "" {
			return fmt.Errorf("drive file_name is required")
		}
	case BackendRowstore:
		if c.Rowstore.DSN == "" {
			return fmt.Errorf("rowstore dsn is required (set MEMOARA_ROWSTORE__DSN)")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown sync backend: %s (supported: %s, %s, %s)",
			c.Sync.Backend, BackendDrive, BackendRowstore, BackendNone)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Reminders.CompletionDelay <= 0 {
		return fmt.Errorf("reminders completion_delay must be positive")
	}
	if c.Sync.Debounce <= 0 {
		return fmt.Errorf("sync debounce must be positive")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync timeout must be positive")
	}
	if c.Connectivity.Interval <= 0 {
		return fmt.Errorf("connectivity interval must be positive")
	}
	if c.Scheduler.Buffer <= 0 {
		return fmt.Errorf("scheduler buffer must be positive")
	}
	if c.HTTP.RatePerMinute <= 0 {
		return fmt.Errorf("http rate_per_minute must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the wall-clock zone reminders are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Reminders.Timezone
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders timezone %q: %w", tz, err)
	}
	return loc, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
