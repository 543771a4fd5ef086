package deploy_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punktf/punktf/pkg/deploy"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/profile"
)

func newMem(t *testing.T, files map[string]string) fsys.FS {
	t.Helper()
	mem := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0o644))
	}
	return fsys.NewAfero(mem)
}

func intPtr(v int) *int { return &v }

func TestPlanCreatesMissingTarget(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "export FOO=1\n",
	})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.Create, plan.Actions[0].Kind)
	assert.Equal(t, "/home/u/.zshrc", plan.Actions[0].TargetPath)
}

func TestPlanOverwritesExistingTargetByDefault(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "new\n",
		"/home/u/.zshrc":      "old\n",
	})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.Overwrite, plan.Actions[0].Kind)
}

func TestPlanKeepsExistingTargetWhenMergeKeep(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "new\n",
		"/home/u/.zshrc":      "old\n",
	})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc", Merge: profile.MergeKeep}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.SkipKeep, plan.Actions[0].Kind)
}

func TestPlanAskDeclinesByDefaultWithNilAskFunc(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "new\n",
		"/home/u/.zshrc":      "old\n",
	})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc", Merge: profile.MergeAsk}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.SkipKeep, plan.Actions[0].Kind)
}

func TestPlanAskAcceptsViaInjectedAskFunc(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "new\n",
		"/home/u/.zshrc":      "old\n",
	})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc", Merge: profile.MergeAsk}},
	}

	pl := deploy.NewPlanner(fs, "/src", func(string) bool { return true })
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.Overwrite, plan.Actions[0].Kind)
}

func TestPlanPriorityResolutionHigherWins(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/a": "a\n",
		"/src/dotfiles/b": "b\n",
	})

	p := &profile.Profile{
		Target: "/home/u",
		Dotfiles: []profile.Dotfile{
			{Path: "a", Rename: "shared", Priority: intPtr(1)},
			{Path: "b", Rename: "shared", Priority: intPtr(5)},
		},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, deploy.SkipHigherPrio, plan.Actions[0].Kind)
	assert.Equal(t, deploy.Create, plan.Actions[1].Kind)
}

func TestPlanPriorityResolutionEqualPriorityLaterWins(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/a": "a\n",
		"/src/dotfiles/b": "b\n",
	})

	p := &profile.Profile{
		Target: "/home/u",
		Dotfiles: []profile.Dotfile{
			{Path: "a", Rename: "shared", Priority: intPtr(3)},
			{Path: "b", Rename: "shared", Priority: intPtr(3)},
		},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, deploy.SkipHigherPrio, plan.Actions[0].Kind)
	assert.Equal(t, deploy.Create, plan.Actions[1].Kind)
}

func TestPlanPriorityResolutionNoPriorityLaterWins(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/a": "a\n",
		"/src/dotfiles/b": "b\n",
	})

	p := &profile.Profile{
		Target: "/home/u",
		Dotfiles: []profile.Dotfile{
			{Path: "a", Rename: "shared"},
			{Path: "b", Rename: "shared"},
		},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, deploy.SkipHigherPrio, plan.Actions[0].Kind)
	assert.Equal(t, deploy.Create, plan.Actions[1].Kind)
}

func TestPlanDirectoryRecursesInLexicographicOrder(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/nvim/b.lua":     "b\n",
		"/src/dotfiles/nvim/a.lua":     "a\n",
		"/src/dotfiles/nvim/sub/c.lua": "c\n",
	})

	p := &profile.Profile{
		Target:   "/home/u/.config",
		Dotfiles: []profile.Dotfile{{Path: "nvim"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 3)
	assert.Equal(t, "/home/u/.config/nvim/a.lua", plan.Actions[0].TargetPath)
	assert.Equal(t, "/home/u/.config/nvim/b.lua", plan.Actions[1].TargetPath)
	assert.Equal(t, "/home/u/.config/nvim/sub/c.lua", plan.Actions[2].TargetPath)
}

func TestPlanOverwriteTargetOverridesProfileTarget(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "x\n",
	})

	p := &profile.Profile{
		Target: "/home/u",
		Dotfiles: []profile.Dotfile{
			{Path: "zshrc", OverwriteTarget: profile.TargetValue{Path: "/etc/skel"}},
		},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "/etc/skel/zshrc", plan.Actions[0].TargetPath)
}

func TestPlanAliasTargetNamesTheFile(t *testing.T) {
	fs := newMem(t, map[string]string{
		"/src/dotfiles/gitconfig": "x\n",
	})

	p := &profile.Profile{
		Target: "/home/u",
		Dotfiles: []profile.Dotfile{
			{Path: "gitconfig", OverwriteTarget: profile.TargetValue{Alias: ".gitconfig"}},
		},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "/home/u/.gitconfig", plan.Actions[0].TargetPath)
}

func TestPlanFallsBackToPunktfTargetEnv(t *testing.T) {
	t.Setenv("PUNKTF_TARGET", "/mnt/backup")

	fs := newMem(t, map[string]string{
		"/src/dotfiles/zshrc": "x\n",
	})

	p := &profile.Profile{
		Dotfiles: []profile.Dotfile{{Path: "zshrc", Rename: ".zshrc"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "/mnt/backup/.zshrc", plan.Actions[0].TargetPath)
}

func TestPlanLinksEmitSymlinkActions(t *testing.T) {
	fs := newMem(t, map[string]string{})

	p := &profile.Profile{
		Links: []profile.Link{{SourcePath: "/src/dotfiles/bin/tool", TargetPath: "/home/u/bin/tool"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, deploy.Symlink, plan.Actions[0].Kind)
}

func TestPlanLinkSkippedWhenReplaceFalseAndTargetExists(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/home/u/bin/tool", []byte("x"), 0o755))
	fs := fsys.NewAfero(mem)

	replace := false
	p := &profile.Profile{
		Links: []profile.Link{{
			SourcePath: "/src/dotfiles/bin/tool",
			TargetPath: "/home/u/bin/tool",
			Replace:    &replace,
		}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	plan, err := pl.Plan(p)
	require.NoError(t, err)

	assert.Empty(t, plan.Actions)
}

func TestPlanMissingSourceIsDeployIOError(t *testing.T) {
	fs := newMem(t, map[string]string{})

	p := &profile.Profile{
		Target:   "/home/u",
		Dotfiles: []profile.Dotfile{{Path: "missing"}},
	}

	pl := deploy.NewPlanner(fs, "/src", nil)
	_, err := pl.Plan(p)
	assert.Error(t, err)
}
