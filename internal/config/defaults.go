package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

const (
	BackendDrive    = "drive"
	BackendRowstore = "rowstore"
	BackendNone     = "none"
)

func DefaultConfig() map[string]any {
	return map[string]any{
		"storage": map[string]any{
			"path": "~/.memoara/memoara.db",
		},
		"log": map[string]any{
			"level":        "info",
			"path":         "",
			"console":      true,
			"max_size_mb":  100,
			"max_backups":  3,
			"max_age_days": 7,
			"compress":     false,
		},
		"reminders": map[string]any{
			"completion_delay": "1500ms",
			"timezone":         "Local",
		},
		"sync": map[string]any{
			"backend":  BackendNone,
			"debounce": "100ms",
			"timeout":  "30s",
		},
		"rowstore": map[string]any{
			"dsn": "",
		},
		"drive": map[string]any{
			"client_id":     "",
			"client_secret": "",
			"file_name":     "memoara-reminders.json",
		},
		"auth": map[string]any{
			"jwt_secret": "",
			"token":      "",
		},
		"connectivity": map[string]any{
			"probe_addr": "8.8.8.8:53",
			"interval":   "30s",
		},
		"scheduler": map[string]any{
			"buffer": 256,
		},
		"notifications": map[string]any{
			"desktop": true,
		},
		"http": map[string]any{
			"addr":            ":8080",
			"allowed_origins": []string{"http://localhost:3000"},
			"rate_per_minute": 60,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func DefaultConfigPath() string {
	return "~/.memoara/config.yaml"
}
