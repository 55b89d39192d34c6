package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// configFileName is the optional config file within the data directory.
const configFileName = "config.yaml"

// Config tunes engine behavior. Every field is optional; the zero value is
// filled with defaults.
type Config struct {
	DBPath          string   `yaml:"db_path"`
	FallbackPath    string   `yaml:"fallback_path"`
	SessionTTLHours int      `yaml:"session_ttl_hours"`
	DefaultLimit    int      `yaml:"default_limit"`
	AnchorProcesses []string `yaml:"anchor_processes"`
}

// SessionTTL returns the configured expiry window.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return DefaultSessionTTL
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// LoadConfig reads ~/.clog/config.yaml. A missing file yields defaults; a
// malformed one is an error, since silently ignoring a bad config would
// write to the wrong database.
func LoadConfig() (*Config, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return loadConfigFile(filepath.Join(dir, configFileName))
}

func loadConfigFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyDefaults(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultListLimit
	}
	if len(cfg.AnchorProcesses) == 0 {
		cfg.AnchorProcesses = DefaultAnchors
	}
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = FallbackDBPath()
	}
}
