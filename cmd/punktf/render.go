package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/punktf/punktf/pkg/deploy"
	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/profile"
)

var renderCmd = &cobra.Command{
	Use:   "render <profile> <dotfile-path>",
	Short: "Render a single dotfile's content without writing it anywhere",
	Long: `Render loads a profile, resolves the named dotfile's source through the
template engine and transformer chain, and prints the result to stdout.
Useful for inspecting what a dotfile would look like without deploying it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, dotfilePath := args[0], args[1]

		sourceRoot := resolvedSourceRoot()
		fs := fsys.NewOS()

		loader := profile.NewLoader(fs, sourceRoot)
		p, err := loader.Load(profileName)
		if err != nil {
			return err
		}

		d, err := findDotfile(p, dotfilePath)
		if err != nil {
			return err
		}

		srcPath := filepath.Join(loader.DotfilesDir(), d.Path)
		sourceBytes, err := fs.ReadFile(srcPath)
		if err != nil {
			return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to read %s", srcPath)
		}

		out, err := deploy.Render(srcPath, sourceBytes, p, d, nil)
		if err != nil {
			return err
		}

		fmt.Print(string(out))
		return nil
	},
}

func findDotfile(p *profile.Profile, path string) (*profile.Dotfile, error) {
	for i := range p.Dotfiles {
		if p.Dotfiles[i].Path == path {
			return &p.Dotfiles[i], nil
		}
	}
	return nil, punktferrors.Newf(punktferrors.ErrDeployIO, "no dotfile with path %q in profile", path)
}
