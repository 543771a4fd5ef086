package profile

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TargetValue is the legacy discriminated-union shape a dotfile's
// overwrite_target may be written in: a bare path
// string, {"path": "..."}, or {"alias": "..."}. Alias names a file relative
// to the profile's own target directory rather than an absolute override.
type TargetValue struct {
	Path  string
	Alias string
}

// Resolve returns the absolute target directory this value designates,
// given the profile's own target directory as a fallback base for Alias.
func (t TargetValue) Resolve(profileTarget string) string {
	if t.Path != "" {
		return t.Path
	}
	if t.Alias != "" {
		return profileTarget
	}
	return ""
}

// IsZero reports whether neither Path nor Alias was set.
func (t TargetValue) IsZero() bool {
	return t.Path == "" && t.Alias == ""
}

func (t *TargetValue) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*t = TargetValue{Path: bare}
		return nil
	}

	var shaped struct {
		Path  string `json:"path"`
		Alias string `json:"alias"`
	}
	if err := json.Unmarshal(data, &shaped); err != nil {
		return fmt.Errorf("target must be a string, {\"path\": ...} or {\"alias\": ...}: %w", err)
	}
	*t = TargetValue{Path: shaped.Path, Alias: shaped.Alias}
	return nil
}

func (t TargetValue) MarshalJSON() ([]byte, error) {
	if t.Alias != "" {
		return json.Marshal(struct {
			Alias string `json:"alias"`
		}{Alias: t.Alias})
	}
	return json.Marshal(t.Path)
}

// UnmarshalYAML accepts the same three shapes. node.Decode into a bare
// string first; a ScalarNode decodes cleanly while a MappingNode errors out,
// so falling through to the shaped struct on any error covers both map forms.
func (t *TargetValue) UnmarshalYAML(node *yaml.Node) error {
	var bare string
	if err := node.Decode(&bare); err == nil {
		*t = TargetValue{Path: bare}
		return nil
	}

	var shaped struct {
		Path  string `yaml:"path"`
		Alias string `yaml:"alias"`
	}
	if err := node.Decode(&shaped); err != nil {
		return fmt.Errorf("target must be a string, {path: ...} or {alias: ...}: %w", err)
	}
	*t = TargetValue{Path: shaped.Path, Alias: shaped.Alias}
	return nil
}
