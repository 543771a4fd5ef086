package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
)

// candidateExtensions is tried in order when a profile name is given without
// an extension.
var candidateExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// Loader reads profile documents from a source tree's profiles directory.
type Loader struct {
	fs         fsys.FS
	sourceRoot string
}

// NewLoader creates a Loader rooted at sourceRoot, reading profiles beneath
// <sourceRoot>/profiles.
func NewLoader(fs fsys.FS, sourceRoot string) *Loader {
	return &Loader{fs: fs, sourceRoot: sourceRoot}
}

// ProfilesDir returns <sourceRoot>/profiles.
func (l *Loader) ProfilesDir() string {
	return filepath.Join(l.sourceRoot, "profiles")
}

// DotfilesDir returns <sourceRoot>/dotfiles.
func (l *Loader) DotfilesDir() string {
	return filepath.Join(l.sourceRoot, "dotfiles")
}

// LoadOne reads and decodes a single named profile document, rejecting
// unknown fields with ErrProfileSchema and malformed documents with
// ErrProfileParse. It does not resolve extends; see Load for that.
func (l *Loader) LoadOne(name string) (*Profile, error) {
	path, data, err := l.readProfileFile(name)
	if err != nil {
		return nil, err
	}

	var p Profile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, jsonDecodeError(path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, yamlDecodeError(path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, tomlDecodeError(path, err)
		}
	default:
		return nil, punktferrors.Newf(punktferrors.ErrProfileParse, "unrecognized profile extension %q", ext).
			WithDetail("path", path)
	}

	return &p, nil
}

// jsonDecodeError classifies an encoding/json decode failure. Unknown-field
// rejection from DisallowUnknownFields surfaces as a plain error whose
// message is the only signal available, matching encoding/json's own lack of
// a dedicated error type for it.
func jsonDecodeError(path string, err error) error {
	if strings.Contains(err.Error(), "unknown field") {
		return punktferrors.Wrapf(err, punktferrors.ErrProfileSchema, "profile %s has unknown fields", path)
	}
	return punktferrors.Wrapf(err, punktferrors.ErrProfileParse, "failed to parse profile %s", path)
}

// yamlDecodeError classifies a yaml.v3 decode failure. KnownFields(true)
// reports unrecognized keys as "field X not found in type T" inside the
// returned *yaml.TypeError.
func yamlDecodeError(path string, err error) error {
	if strings.Contains(err.Error(), "not found in type") {
		return punktferrors.Wrapf(err, punktferrors.ErrProfileSchema, "profile %s has unknown fields", path)
	}
	return punktferrors.Wrapf(err, punktferrors.ErrProfileParse, "failed to parse profile %s", path)
}

// tomlDecodeError classifies a go-toml/v2 decode failure. DisallowUnknownFields
// reports extraneous keys via the exported toml.StrictMissingError type.
func tomlDecodeError(path string, err error) error {
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return punktferrors.Wrapf(err, punktferrors.ErrProfileSchema, "profile %s has unknown fields", path)
	}
	return punktferrors.Wrapf(err, punktferrors.ErrProfileParse, "failed to parse profile %s", path)
}

// readProfileFile locates name under the profiles directory, trying each of
// candidateExtensions if name has none of its own.
func (l *Loader) readProfileFile(name string) (path string, data []byte, err error) {
	if filepath.Ext(name) != "" {
		path = filepath.Join(l.ProfilesDir(), name)
		data, err = l.fs.ReadFile(path)
		if err != nil {
			return "", nil, punktferrors.Wrapf(err, punktferrors.ErrProfileNotFound, "profile %q not found", name)
		}
		return path, data, nil
	}

	for _, ext := range candidateExtensions {
		candidate := filepath.Join(l.ProfilesDir(), name+ext)
		if data, err := l.fs.ReadFile(candidate); err == nil {
			return candidate, data, nil
		}
	}

	return "", nil, punktferrors.Newf(punktferrors.ErrProfileNotFound, "profile %q not found under %s", name, l.ProfilesDir())
}

// Load reads name and every profile it transitively extends (depth-first,
// left-to-right), folding them into a single effective Profile.
func (l *Loader) Load(name string) (*Profile, error) {
	return l.load(name, map[string]bool{})
}

func (l *Loader) load(name string, visited map[string]bool) (*Profile, error) {
	if visited[name] {
		return nil, punktferrors.Newf(punktferrors.ErrCyclicExtends, "cyclic extends detected at %q", name).
			WithDetail("profile", name)
	}
	visited[name] = true

	p, err := l.LoadOne(name)
	if err != nil {
		return nil, err
	}

	effective := &Profile{
		Variables: map[string]string{},
	}

	for _, base := range p.Extends {
		baseVisited := make(map[string]bool, len(visited))
		for k, v := range visited {
			baseVisited[k] = v
		}

		baseEffective, err := l.load(base, baseVisited)
		if err != nil {
			return nil, err
		}

		effective = Merge(effective, baseEffective)
	}

	return Merge(effective, p), nil
}

// Merge folds child onto ancestor field by field: scalars (Target) take the
// child's value if set, maps (Variables) union with child winning
// collisions, and lists are ancestor-first concatenations. Dotfiles
// sharing a (path, rename, overwrite_target) triple are deliberately NOT
// collapsed here -- they survive as explicit duplicates for the deploy
// planner's priority resolution to choose between.
func Merge(ancestor, child *Profile) *Profile {
	out := &Profile{
		Target:    ancestor.Target,
		Variables: mergeVars(ancestor.Variables, child.Variables),
	}

	if child.Target != "" {
		out.Target = child.Target
	}

	out.Transformers = append(append([]string{}, ancestor.Transformers...), child.Transformers...)
	out.PreHooks = append(append([]Hook{}, ancestor.PreHooks...), child.PreHooks...)
	out.PostHooks = append(append([]Hook{}, ancestor.PostHooks...), child.PostHooks...)
	out.Links = append(append([]Link{}, ancestor.Links...), child.Links...)
	out.Dotfiles = append(append([]Dotfile{}, ancestor.Dotfiles...), child.Dotfiles...)

	return out
}

func mergeVars(ancestor, child map[string]string) map[string]string {
	out := make(map[string]string, len(ancestor)+len(child))
	for k, v := range ancestor {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}
