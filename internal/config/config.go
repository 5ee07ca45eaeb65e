// Package config holds application configuration. Values come from
// defaults, then an optional TOML file, then environment variables; command
// line flags in cmd/ override all of them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultServiceURL points at the hosted HRCare RAG service
const DefaultServiceURL = "https://rag-based-chatbot-96uz.onrender.com"

// Config holds application configuration
type Config struct {
	ServiceURL string `toml:"service_url"` // Base URL of the remote QA service
	DBPath     string `toml:"db_path"`     // SQLite file backing the store adapter
	LogDir     string `toml:"log_dir"`     // Directory for rotated logs and telemetry
	Debug      bool   `toml:"debug"`       // Enable debug logging
	FreshStart bool   `toml:"-"`           // Clear the session tier before starting
}

// Default returns the baseline configuration
func Default() Config {
	return Config{
		ServiceURL: DefaultServiceURL,
		DBPath:     "hrcarechat.db",
		LogDir:     "logs",
	}
}

// LoadFile merges a TOML config file into cfg. A missing file is not an
// error; a malformed one is.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv merges HRCARE_* environment variables into cfg
func ApplyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("HRCARE_SERVICE_URL")); v != "" {
		cfg.ServiceURL = v
	}
	if v := strings.TrimSpace(os.Getenv("HRCARE_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("HRCARE_LOG_DIR")); v != "" {
		cfg.LogDir = v
	}
	if v := strings.TrimSpace(os.Getenv("HRCARE_DEBUG")); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HRCARE_DEBUG value %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	return nil
}
