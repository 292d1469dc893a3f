package config

import (
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored and variables already set are kept.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with MASKPAINT_* variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("MASKPAINT_SERVICE_URL"); v != "" {
		cfg.Service.URL = v
	}
	if v := getenv("MASKPAINT_SERVICE_TOKEN"); v != "" {
		cfg.Service.Token = v
	}
	if v := getenv("MASKPAINT_SERVICE_WATCHDOG"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Service.Watchdog = d
		}
	}
	if v := getenv("MASKPAINT_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := getenv("MASKPAINT_SAVE_DIR"); v != "" {
		cfg.SaveDir = v
	}
}
