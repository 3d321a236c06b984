package config

import (
	"github.com/spf13/pflag"

	"dupsweep/internal/domain"
)

const (
	FlagFolder      = "folder"
	FlagAction      = "action"
	FlagDestination = "destination-folder"
	FlagWorkers     = "workers"
	FlagKeep        = "keep"
	FlagShowHidden  = "show-hidden"
	FlagExclude     = "exclude"
	FlagInteractive = "interactive"
	FlagDatabase    = "db"
	FlagTheme       = "theme"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
)

func RegisterFlags(flags *pflag.FlagSet, base Config) {
	flags.StringP(FlagFolder, "f", base.Path, "Folder to scan for duplicates")
	flags.StringP(FlagAction, "a", string(base.Action), "Action for duplicates: report, move (renames each duplicate to the URL-safe base64 of its absolute path) or delete")
	flags.StringP(FlagDestination, "d", base.Destination, "Quarantine folder for the move action; file names decode with base64 -d after mapping - to + and _ to /")
	flags.Int(FlagWorkers, base.Workers, "Number of content deduplication workers")
	flags.String(FlagKeep, string(base.Keep), "Which copy to keep: shortest-path or oldest")
	flags.Bool(FlagShowHidden, base.ShowHidden, "Include hidden files and default exclusions")
	flags.StringSlice(FlagExclude, base.Exclude, "Additional file or directory names to skip")
	flags.BoolP(FlagInteractive, "i", base.Interactive, "Review duplicate groups before applying the action")
	flags.String(FlagDatabase, base.Database, "SQLite database recording run history")
	flags.String(FlagTheme, base.Theme, "Interactive theme: dark or light")
	flags.String(FlagLogLevel, base.LogLevel, "Log level: debug, info, warn or error")
	flags.String(FlagLogFormat, base.LogFormat, "Log format: text or json")
}

// ApplyFlags overrides config with the flags the user set explicitly, so
// flag defaults never mask values from the config file or environment.
func ApplyFlags(flags *pflag.FlagSet, config Config) (Config, error) {
	var err error
	if flags.Changed(FlagFolder) {
		if config.Path, err = flags.GetString(FlagFolder); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagAction) {
		action, err := flags.GetString(FlagAction)
		if err != nil {
			return config, err
		}
		config.Action = domain.ActionType(action)
	}
	if flags.Changed(FlagDestination) {
		if config.Destination, err = flags.GetString(FlagDestination); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagWorkers) {
		if config.Workers, err = flags.GetInt(FlagWorkers); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagKeep) {
		keep, err := flags.GetString(FlagKeep)
		if err != nil {
			return config, err
		}
		config.Keep = domain.KeepPolicy(keep)
	}
	if flags.Changed(FlagShowHidden) {
		if config.ShowHidden, err = flags.GetBool(FlagShowHidden); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagExclude) {
		if config.Exclude, err = flags.GetStringSlice(FlagExclude); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagInteractive) {
		if config.Interactive, err = flags.GetBool(FlagInteractive); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagDatabase) {
		if config.Database, err = flags.GetString(FlagDatabase); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagTheme) {
		if config.Theme, err = flags.GetString(FlagTheme); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagLogLevel) {
		if config.LogLevel, err = flags.GetString(FlagLogLevel); err != nil {
			return config, err
		}
	}
	if flags.Changed(FlagLogFormat) {
		if config.LogFormat, err = flags.GetString(FlagLogFormat); err != nil {
			return config, err
		}
	}
	return config, nil
}
