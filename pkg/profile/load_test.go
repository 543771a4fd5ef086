package profile_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/profile"
)

func newLoader(t *testing.T, files map[string]string) *profile.Loader {
	t.Helper()

	mem := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0o644))
	}

	return profile.NewLoader(fsys.NewAfero(mem), "/src")
}

func TestLoadOneDecodesYAML(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.yaml": `
target: "~/.config"
variables:
  SHELL: zsh
dotfiles:
  - path: zshrc
    rename: .zshrc
`,
	})

	p, err := l.LoadOne("base")
	require.NoError(t, err)
	assert.Equal(t, "~/.config", p.Target)
	assert.Equal(t, "zsh", p.Variables["SHELL"])
	require.Len(t, p.Dotfiles, 1)
	assert.Equal(t, "zshrc", p.Dotfiles[0].Path)
	assert.Equal(t, ".zshrc", p.Dotfiles[0].Rename)
}

func TestLoadOneRejectsUnknownFieldAsSchemaError(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.yaml": `
target: "~/.config"
bogus_field: 1
`,
	})

	_, err := l.LoadOne("base")
	require.Error(t, err)
	assert.True(t, punktferrors.IsErrorCode(err, punktferrors.ErrProfileSchema))
}

func TestLoadOneMalformedYAMLIsParseError(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.yaml": "target: [unterminated",
	})

	_, err := l.LoadOne("base")
	require.Error(t, err)
	assert.True(t, punktferrors.IsErrorCode(err, punktferrors.ErrProfileParse))
}

func TestLoadOneMissingProfileIsNotFound(t *testing.T) {
	l := newLoader(t, map[string]string{})

	_, err := l.LoadOne("missing")
	require.Error(t, err)
	assert.True(t, punktferrors.IsErrorCode(err, punktferrors.ErrProfileNotFound))
}

func TestLoadResolvesExtendsChildWinsOnCollision(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.yaml": `
target: "/base"
variables:
  EDITOR: vim
transformers: ["a"]
dotfiles:
  - path: shared
`,
		"/src/profiles/child.yaml": `
extends: ["base"]
target: "/child"
variables:
  EDITOR: nvim
transformers: ["b"]
dotfiles:
  - path: only-in-child
`,
	})

	p, err := l.Load("child")
	require.NoError(t, err)

	assert.Equal(t, "/child", p.Target)
	assert.Equal(t, "nvim", p.Variables["EDITOR"])
	assert.Equal(t, []string{"a", "b"}, p.Transformers)
	require.Len(t, p.Dotfiles, 2)
	assert.Equal(t, "shared", p.Dotfiles[0].Path)
	assert.Equal(t, "only-in-child", p.Dotfiles[1].Path)
}

func TestLoadDetectsCyclicExtends(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/a.yaml": `extends: ["b"]`,
		"/src/profiles/b.yaml": `extends: ["a"]`,
	})

	_, err := l.Load("a")
	require.Error(t, err)
	assert.True(t, punktferrors.IsErrorCode(err, punktferrors.ErrCyclicExtends))
}

func TestLoadPreservesDuplicateDotfilesAcrossExtends(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.yaml": `
dotfiles:
  - path: shared
    priority: 1
`,
		"/src/profiles/child.yaml": `
extends: ["base"]
dotfiles:
  - path: shared
    priority: 2
`,
	})

	p, err := l.Load("child")
	require.NoError(t, err)

	// Dotfiles sharing a (path, rename, overwrite_target) triple are not
	// collapsed during layering; both survive here with the ancestor
	// ordered first, leaving priority resolution to the deploy planner.
	require.Len(t, p.Dotfiles, 2)
	assert.Equal(t, p.Dotfiles[0].Path, p.Dotfiles[1].Path)
	assert.Equal(t, p.Dotfiles[0].Rename, p.Dotfiles[1].Rename)
	assert.Equal(t, p.Dotfiles[0].OverwriteTarget, p.Dotfiles[1].OverwriteTarget)
	require.NotNil(t, p.Dotfiles[0].Priority)
	assert.Equal(t, 1, *p.Dotfiles[0].Priority)
	require.NotNil(t, p.Dotfiles[1].Priority)
	assert.Equal(t, 2, *p.Dotfiles[1].Priority)
}

func TestLoadOneResolvesExtensionlessJSON(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/src/profiles/base.json": `{"target": "/base"}`,
	})

	p, err := l.LoadOne("base")
	require.NoError(t, err)
	assert.Equal(t, "/base", p.Target)
}
