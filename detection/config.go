package detection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

// Environment overrides, also read from a .env file in the working directory.
const (
	EnvConfigPath = "OBJECTLENS_CONFIG"
	EnvOrtLibrary = "OBJECTLENS_ORT_LIB"
	EnvModelPath  = "OBJECTLENS_MODEL"
	EnvBackend    = "OBJECTLENS_BACKEND"
	EnvRemoteURL  = "OBJECTLENS_REMOTE_URL"
	EnvLogMode    = "OBJECTLENS_LOG_MODE"
)

// LoadEnvFile loads .env into the process environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ConfigPath resolves the config file from the explicit argument, the environment or the default.
func ConfigPath(path string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return defaultConfigFile
}

// LoadConfig loads configuration from the given path or config.yaml. A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	path = ConfigPath(path)
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	path = ConfigPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOrtLibrary); v != "" {
		c.Detector.SharedLibraryPath = v
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		c.Detector.ModelPath = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Detector.Backend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv(EnvRemoteURL); v != "" {
		c.Detector.RemoteURL = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.Log.Mode = v
	}
}
