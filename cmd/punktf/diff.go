package main

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/punktf/punktf/pkg/deploy"
	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/profile"
)

var diffCmd = &cobra.Command{
	Use:   "diff <profile> [dotfile-path]",
	Short: "Show what deploying a profile would change on disk",
	Long: `Diff renders each dotfile the same way deploy would, then prints a unified
diff against whatever currently exists at its computed target path (empty if
the target doesn't exist yet). Nothing is written.

Naming a dotfile path restricts the diff to that entry alone.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := args[0]

		sourceRoot := resolvedSourceRoot()
		fs := fsys.NewOS()

		loader := profile.NewLoader(fs, sourceRoot)
		p, err := loader.Load(profileName)
		if err != nil {
			return err
		}

		planner := deploy.NewPlanner(fs, sourceRoot, nil)
		plan, err := planner.Plan(p)
		if err != nil {
			return err
		}

		actions := plan.Actions
		if len(args) == 2 {
			actions = filterActions(plan, args[1])
			if len(actions) == 0 {
				return punktferrors.Newf(punktferrors.ErrDeployIO, "no planned action for dotfile %q", args[1])
			}
		}

		for _, action := range actions {
			// Skipped entries and symlinks change no file content, so there
			// is nothing to diff for them.
			if action.Kind != deploy.Create && action.Kind != deploy.Overwrite {
				continue
			}
			if err := diffAction(fs, p, action); err != nil {
				return err
			}
		}

		return nil
	},
}

// diffAction renders one planned write and prints a unified diff between the
// target's current content and the rendered result.
func diffAction(fs fsys.FS, p *profile.Profile, action *deploy.Action) error {
	sourceBytes, err := fs.ReadFile(action.SourcePath)
	if err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to read %s", action.SourcePath)
	}

	rendered, err := deploy.Render(action.SourcePath, sourceBytes, p, action.Dotfile, nil)
	if err != nil {
		return err
	}

	existing := ""
	if old, err := fs.ReadFile(action.TargetPath); err == nil {
		existing = string(old)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(existing),
		B:        difflib.SplitLines(string(rendered)),
		FromFile: action.TargetPath,
		ToFile:   action.TargetPath + " (rendered)",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}

	fmt.Print(text)
	return nil
}

func filterActions(plan *deploy.DeployPlan, dotfilePath string) []*deploy.Action {
	var out []*deploy.Action
	for _, action := range plan.Actions {
		if action.Dotfile != nil && action.Dotfile.Path == dotfilePath {
			out = append(out, action)
		}
	}
	return out
}
