package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"dupsweep/internal/domain"
)

const (
	configDirName  = "dupsweep"
	configFileName = "config.yaml"
	envPrefix      = "DUPSWEEP"
)

func DefaultConfig() Config {
	return Config{
		Path:      ".",
		Action:    domain.ActionReport,
		Workers:   DefaultWorkers,
		Keep:      domain.KeepShortestPath,
		Theme:     "dark",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// LoadConfig layers the YAML file at path onto the defaults. An empty path
// means the per-user config file; a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return config, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("reading config file: %w", err)
	}
	var stored fileConfig
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return config, fmt.Errorf("parsing config file `%s`: %w", path, err)
	}
	return mergeConfig(config, stored), nil
}

// ApplyEnv overrides fields with DUPSWEEP_* environment variables.
func ApplyEnv(config Config) (Config, error) {
	if err := envconfig.Process(envPrefix, &config); err != nil {
		return config, fmt.Errorf("parsing environment variables: %w", err)
	}
	return config, nil
}

func SaveConfig(path string, config Config) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.Path != nil {
		merged.Path = *stored.Path
	}
	if stored.Action != nil {
		merged.Action = domain.ActionType(*stored.Action)
	}
	if stored.Destination != nil {
		merged.Destination = *stored.Destination
	}
	if stored.Workers != nil {
		merged.Workers = *stored.Workers
	}
	if stored.Keep != nil {
		merged.Keep = domainKeepPolicy(*stored.Keep, base.Keep)
	}
	if stored.ShowHidden != nil {
		merged.ShowHidden = *stored.ShowHidden
	}
	if stored.Exclude != nil {
		merged.Exclude = stored.Exclude
	}
	if stored.Interactive != nil {
		merged.Interactive = *stored.Interactive
	}
	if stored.Database != nil {
		merged.Database = *stored.Database
	}
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.LogFormat != nil {
		merged.LogFormat = *stored.LogFormat
	}
	return merged
}

func domainKeepPolicy(value string, fallback domain.KeepPolicy) domain.KeepPolicy {
	if policy := domain.KeepPolicy(value); policy.Valid() {
		return policy
	}
	return fallback
}
