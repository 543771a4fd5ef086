package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/punktf/punktf/pkg/config"
	"github.com/punktf/punktf/pkg/logging"
	"github.com/punktf/punktf/pkg/profile"
)

var (
	verbosity int
	dryRun    bool
	noColor   bool
	source    string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "punktf",
		Short: "A multi-target dotfiles manager",
		Long: `punktf deploys dotfiles from a source tree onto a target system,
resolving handlebars-like templates and layered profiles along the way.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("command started")

			loaded, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = loaded

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and parses flags.
// Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "preview changes without writing anything")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "accepted but not read; output styling is unchanged by it")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "dotfiles source root (default: $PUNKTF_SOURCE or $XDG_DATA_HOME/punktf)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(manCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(diffCmd)
}

// resolvedSourceRoot picks the source tree for this invocation: --source,
// then PUNKTF_SOURCE, then the rc file's source_root (if set), then the
// XDG-based default.
func resolvedSourceRoot() string {
	if source == "" && cfg != nil && cfg.SourceRoot != "" {
		return cfg.SourceRoot
	}
	return profile.ResolveSourceRoot(source)
}
