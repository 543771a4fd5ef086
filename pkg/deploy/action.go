// Package deploy plans and executes a profile's deployment: walking its
// dotfiles and links into an ordered list of filesystem actions, resolving
// priority collisions between entries that land on the same target, then
// rendering and writing (or symlinking) each one.
package deploy

import "github.com/punktf/punktf/pkg/profile"

// ActionKind is what a planned Action does to its target path.
type ActionKind int

const (
	// Create writes a target that does not yet exist.
	Create ActionKind = iota
	// Overwrite replaces an existing target.
	Overwrite
	// SkipKeep leaves an existing target untouched per merge=Keep, or a
	// declined merge=Ask prompt.
	SkipKeep
	// SkipHigherPrio is emitted for an action whose target was already
	// claimed by a higher- or equal-and-later-declared priority entry.
	SkipHigherPrio
	// Symlink creates a link for a profile's Links entry.
	Symlink
)

func (k ActionKind) String() string {
	switch k {
	case Create:
		return "Create"
	case Overwrite:
		return "Overwrite"
	case SkipKeep:
		return "SkipKeep"
	case SkipHigherPrio:
		return "SkipHigherPrio"
	case Symlink:
		return "Symlink"
	default:
		return "Unknown"
	}
}

// Action is one planned filesystem operation.
type Action struct {
	Kind       ActionKind
	SourcePath string
	TargetPath string

	// BytesAfterRender holds the rendered content once the rendering
	// pipeline has run; nil until then, and for Symlink actions always.
	BytesAfterRender []byte

	Merge    profile.MergeMode
	Priority *int

	// Dotfile/Link carry the originating profile entry so the executor can
	// look up variables/transformers/template flag without re-walking the
	// profile. Exactly one is set, except for Symlink actions which only
	// ever set Link.
	Dotfile *profile.Dotfile
	Link    *profile.Link
}

// PathState is the per-target-path bookkeeping kept during planning to
// resolve priority collisions.
type PathState struct {
	LastAction      *Action
	WinningPriority *int
}

// DeployPlan is the ordered result of planning: every Action in the order
// its target would be touched, plus the final per-path state used to
// explain why any SkipHigherPrio action lost.
type DeployPlan struct {
	Actions    []*Action
	PathStates map[string]*PathState
}
