package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/punktf/punktf/pkg/deploy"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/logging"
	"github.com/punktf/punktf/pkg/profile"
	"github.com/punktf/punktf/pkg/ui"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [profile]",
	Short: "Deploy a profile's dotfiles to the target system",
	Long: `Deploy resolves a profile (layering any profiles it extends), plans the
filesystem actions its dotfiles and links require, then renders and writes
(or symlinks) each one in order.

If no profile is given, the default_profile from configuration is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := cfg.DefaultProfile
		if len(args) == 1 {
			profileName = args[0]
		}

		sourceRoot := resolvedSourceRoot()
		fs := fsys.NewOS()

		logger := logging.GetLogger("cmd.deploy")
		logger.Info().Str("profile", profileName).Str("source", sourceRoot).Bool("dry_run", dryRun).Msg("starting deploy")

		loader := profile.NewLoader(fs, sourceRoot)
		p, err := loader.Load(profileName)
		if err != nil {
			return err
		}

		planner := deploy.NewPlanner(fs, sourceRoot, ui.AskOverwrite)
		plan, err := planner.Plan(p)
		if err != nil {
			return err
		}

		exec := deploy.New(deploy.Options{
			FS:          fs,
			DryRun:      dryRun,
			SourceRoot:  sourceRoot,
			ProfileName: profileName,
		})

		report, err := exec.Run(p, plan, deploy.ExpandPath(deploy.TargetRoot(p)))
		if report != nil {
			ui.RenderReport(report)
		}
		if err != nil {
			log.Error().Err(err).Msg("deploy failed")
			return err
		}

		return nil
	},
}
