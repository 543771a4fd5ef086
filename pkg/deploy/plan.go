package deploy

import (
	"os"
	"path/filepath"
	"sort"

	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/profile"
)

// AskFunc decides a merge=Ask action's outcome for a given target path.
// Returning true means overwrite, false means keep. Injected so tests can
// script deterministic answers instead of reading a real terminal.
type AskFunc func(targetPath string) bool

// Planner walks an effective profile's dotfiles and links into an ordered
// DeployPlan.
type Planner struct {
	fs         fsys.FS
	sourceRoot string
	ask        AskFunc
}

// NewPlanner creates a Planner. ask may be nil; merge=Ask entries then
// default to declining (SkipKeep), matching a non-interactive run.
func NewPlanner(fs fsys.FS, sourceRoot string, ask AskFunc) *Planner {
	if ask == nil {
		ask = func(string) bool { return false }
	}
	return &Planner{fs: fs, sourceRoot: sourceRoot, ask: ask}
}

type plannedFile struct {
	dotfile      *profile.Dotfile
	sourcePath   string
	relSubpath   string // "" for a plain file entry
	isDescendant bool
}

// Plan computes the full DeployPlan for p, reading dotfile sources from
// <sourceRoot>/dotfiles and resolving each entry's target under p.Target
// (or its own overwrite_target).
func (pl *Planner) Plan(p *profile.Profile) (*DeployPlan, error) {
	plan := &DeployPlan{PathStates: make(map[string]*PathState)}

	files, err := pl.collectFiles(p.Dotfiles)
	if err != nil {
		return nil, err
	}

	for _, pf := range files {
		targetPath, err := pl.targetPathFor(p, pf)
		if err != nil {
			return nil, err
		}

		action, err := pl.proposeAction(pf, targetPath)
		if err != nil {
			return nil, err
		}

		pl.resolvePriority(plan, action)
		plan.Actions = append(plan.Actions, action)
	}

	for i := range p.Links {
		action, err := pl.planLink(&p.Links[i])
		if err != nil {
			return nil, err
		}
		if action != nil {
			plan.Actions = append(plan.Actions, action)
		}
	}

	return plan, nil
}

// collectFiles expands every dotfile entry into one or more plannedFiles,
// recursing into directories in stable lexicographic order.
func (pl *Planner) collectFiles(dotfiles []profile.Dotfile) ([]plannedFile, error) {
	var out []plannedFile

	for i := range dotfiles {
		d := &dotfiles[i]
		sourcePath := filepath.Join(pl.sourceRoot, "dotfiles", d.Path)

		info, err := pl.fs.Stat(sourcePath)
		if err != nil {
			return nil, punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "dotfile source %s does not exist", sourcePath)
		}

		if !info.IsDir() {
			out = append(out, plannedFile{dotfile: d, sourcePath: sourcePath})
			continue
		}

		descendants, err := pl.walkDir(sourcePath, "")
		if err != nil {
			return nil, err
		}
		for _, desc := range descendants {
			out = append(out, plannedFile{
				dotfile:      d,
				sourcePath:   desc.path,
				relSubpath:   desc.rel,
				isDescendant: true,
			})
		}
	}

	return out, nil
}

type descendant struct {
	path string
	rel  string
}

// walkDir recurses depth-first, visiting entries in stable lexicographic
// order at each level.
func (pl *Planner) walkDir(dir, relPrefix string) ([]descendant, error) {
	entries, err := pl.fs.ReadDir(dir)
	if err != nil {
		return nil, punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to read directory %s", dir)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []descendant
	for _, e := range entries {
		childPath := filepath.Join(dir, e.Name())
		childRel := filepath.Join(relPrefix, e.Name())

		if e.IsDir() {
			nested, err := pl.walkDir(childPath, childRel)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}

		out = append(out, descendant{path: childPath, rel: childRel})
	}

	return out, nil
}

// TargetRoot returns the base directory p deploys under: the profile's own
// target if set, otherwise the PUNKTF_TARGET environment variable.
func TargetRoot(p *profile.Profile) string {
	if p.Target != "" {
		return p.Target
	}
	return os.Getenv("PUNKTF_TARGET")
}

// targetPathFor computes the absolute target path for pf: the entry's
// overwrite_target (or the profile target) as the base, then the rename (or
// the alias-form target's filename, or the source basename), then a
// directory descendant's relative subpath.
func (pl *Planner) targetPathFor(p *profile.Profile, pf plannedFile) (string, error) {
	base := TargetRoot(p)
	name := pf.dotfile.Rename

	if !pf.dotfile.OverwriteTarget.IsZero() {
		base = pf.dotfile.OverwriteTarget.Resolve(base)
		if name == "" {
			name = pf.dotfile.OverwriteTarget.Alias
		}
	}
	base = ExpandPath(base)

	if name == "" {
		name = filepath.Base(pf.dotfile.Path)
	}

	target := filepath.Join(base, name)
	if pf.isDescendant {
		target = filepath.Join(target, pf.relSubpath)
	}

	return ExpandPath(target), nil
}

// proposeAction decides what to do with one (source, target) pair: Create
// when the target is missing, otherwise whatever the entry's merge mode says.
func (pl *Planner) proposeAction(pf plannedFile, targetPath string) (*Action, error) {
	action := &Action{
		SourcePath: pf.sourcePath,
		TargetPath: targetPath,
		Merge:      pf.dotfile.Merge,
		Priority:   pf.dotfile.Priority,
		Dotfile:    pf.dotfile,
	}

	_, err := pl.fs.Stat(targetPath)
	if err != nil {
		action.Kind = Create
		return action, nil
	}

	switch pf.dotfile.Merge {
	case profile.MergeKeep:
		action.Kind = SkipKeep
	case profile.MergeAsk:
		if pl.ask(targetPath) {
			action.Kind = Overwrite
		} else {
			action.Kind = SkipKeep
		}
	default:
		action.Kind = Overwrite
	}

	return action, nil
}

// resolvePriority picks a winner when two actions land on the same target
// path, mutating the incumbent PathState (and possibly downgrading its action
// in place) as later actions arrive.
func (pl *Planner) resolvePriority(plan *DeployPlan, action *Action) {
	state, exists := plan.PathStates[action.TargetPath]
	if !exists {
		plan.PathStates[action.TargetPath] = &PathState{LastAction: action, WinningPriority: action.Priority}
		return
	}

	incumbentPrio := state.WinningPriority
	challengerPrio := action.Priority

	switch {
	case incumbentPrio != nil && challengerPrio != nil:
		switch {
		case *challengerPrio > *incumbentPrio:
			pl.downgrade(state, action)
		case *challengerPrio == *incumbentPrio:
			// Equal priority: later declaration wins, earlier downgraded.
			pl.downgrade(state, action)
		default:
			action.Kind = SkipHigherPrio
		}
	case challengerPrio != nil:
		// Only the challenger has a declared priority: it wins outright.
		pl.downgrade(state, action)
	case incumbentPrio != nil:
		// Only the incumbent has a declared priority: it keeps winning.
		action.Kind = SkipHigherPrio
	default:
		// Neither has a priority: later declaration wins.
		pl.downgrade(state, action)
	}
}

// downgrade makes action the new winner for its target path, demoting the
// previous winner to SkipHigherPrio in place (it stays in plan.Actions,
// just with its Kind rewritten).
func (pl *Planner) downgrade(state *PathState, action *Action) {
	if state.LastAction != nil && state.LastAction.Kind != SkipHigherPrio {
		state.LastAction.Kind = SkipHigherPrio
	}
	state.LastAction = action
	state.WinningPriority = action.Priority
}

// planLink emits the Symlink action for a single Links entry, after all
// dotfiles have been planned.
func (pl *Planner) planLink(l *profile.Link) (*Action, error) {
	targetPath := ExpandPath(l.TargetPath)
	sourcePath := ExpandPath(l.SourcePath)

	_, statErr := pl.fs.Lstat(targetPath)
	targetExists := statErr == nil

	if targetExists && !l.ReplaceOrDefault() {
		return nil, nil
	}

	return &Action{
		Kind:       Symlink,
		SourcePath: sourcePath,
		TargetPath: targetPath,
		Link:       l,
	}, nil
}
