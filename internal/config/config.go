package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dupsweep/internal/domain"
)

const DefaultWorkers = 3

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Path        string            `yaml:"path"`
	Action      domain.ActionType `yaml:"action"`
	Destination string            `yaml:"destination"`
	Workers     int               `yaml:"workers"`
	Keep        domain.KeepPolicy `yaml:"keep"`
	ShowHidden  bool              `yaml:"showHidden" split_words:"true"`
	Exclude     []string          `yaml:"exclude"`
	Interactive bool              `yaml:"interactive"`
	Database    string            `yaml:"database"`
	Theme       string            `yaml:"theme"`
	LogLevel    string            `yaml:"logLevel" split_words:"true"`
	LogFormat   string            `yaml:"logFormat" split_words:"true"`
}

type fileConfig struct {
	Path        *string  `yaml:"path"`
	Action      *string  `yaml:"action"`
	Destination *string  `yaml:"destination"`
	Workers     *int     `yaml:"workers"`
	Keep        *string  `yaml:"keep"`
	ShowHidden  *bool    `yaml:"showHidden"`
	Exclude     []string `yaml:"exclude"`
	Interactive *bool    `yaml:"interactive"`
	Database    *string  `yaml:"database"`
	Theme       *string  `yaml:"theme"`
	LogLevel    *string  `yaml:"logLevel"`
	LogFormat   *string  `yaml:"logFormat"`
}

// Validate reports every problem with the configuration at once.
func (config Config) Validate() error {
	var problems []string
	if config.Path == "" {
		problems = append(problems, "folder is required")
	}
	if !config.Action.Valid() {
		problems = append(problems, fmt.Sprintf("unknown action %q (want report, move or delete)", config.Action))
	}
	if config.Action == domain.ActionMove && config.Destination == "" {
		problems = append(problems, "destination folder is required for move")
	}
	if config.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", config.Workers))
	}
	if !config.Keep.Valid() {
		problems = append(problems, fmt.Sprintf("unknown keep policy %q (want shortest-path or oldest)", config.Keep))
	}
	if _, err := config.Level(); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(config.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q (want text or json)", config.LogFormat))
	}
	switch strings.ToLower(config.Theme) {
	case "dark", "light":
	default:
		problems = append(problems, fmt.Sprintf("unknown theme %q (want dark or light)", config.Theme))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

func (config Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", config.LogLevel)
	}
	return level, nil
}
