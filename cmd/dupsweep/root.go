package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dupsweep/internal/app"
	"dupsweep/internal/config"
)

const (
	flagConfig     = "config"
	flagSaveConfig = "save-config"
	flagLimit      = "limit"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dupsweep",
		Short: "Find duplicate files and report or quarantine them",
		Long: `Finds duplicate files under a folder:
  - Groups files by exact size
  - Hashes each candidate with SHA-256 (files over 512 KiB are compared
    on their first 80 KiB only)
  - Keeps one copy per group and reports or moves the rest

Examples:
  dupsweep -f ~/Pictures                       # report duplicates
  dupsweep -f ~/Pictures -a move -d ~/dupes    # move duplicates aside
  dupsweep -f ~/Pictures -a move -d ~/dupes -i # review before moving`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runSweep,
	}
	flags := root.PersistentFlags()
	config.RegisterFlags(flags, config.DefaultConfig())
	flags.String(flagConfig, "", "Config file (default: user config dir)")
	root.Flags().Bool(flagSaveConfig, false, "Write the effective configuration to the config file")

	root.AddCommand(newHistoryCommand())
	return root
}

func newHistoryCommand() *cobra.Command {
	history := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the files of one run",
		Long: `Without arguments, lists recorded runs newest first.
With a run ID, lists every file of that run: which copy was kept and
where each moved duplicate went in the quarantine folder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt(flagLimit)
			if err != nil {
				return err
			}
			var runID string
			if len(args) == 1 {
				runID = args[0]
			}
			return app.History(cmd.Context(), cfg.Database, runID, limit, cmd.OutOrStdout())
		},
	}
	history.Flags().Int(flagLimit, 20, "Maximum number of runs to list (0 lists all)")
	return history
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if save, _ := cmd.Flags().GetBool(flagSaveConfig); save {
		path, _ := cmd.Flags().GetString(flagConfig)
		if err := config.SaveConfig(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}

	sweep, err := app.New(cfg, afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return sweep.Run(cmd.Context())
}

// loadConfig layers the config file, DUPSWEEP_* variables and explicitly
// set flags onto the defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if cfg, err = config.ApplyEnv(cfg); err != nil {
		return cfg, err
	}
	return config.ApplyFlags(cmd.Flags(), cfg)
}
