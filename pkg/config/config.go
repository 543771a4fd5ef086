// Package config loads punktf's own CLI settings -- not to be confused with
// a deployment profile (see pkg/profile). It layers built-in defaults, an
// optional rc file, environment variables, and command-line flags through
// koanf's provider chain.
package config

// Config holds punktf's ambient CLI settings.
type Config struct {
	// SourceRoot is the dotfiles source tree to operate against when
	// --source isn't given on the command line.
	SourceRoot string `koanf:"source_root"`

	// DefaultProfile names the profile to deploy when none is given.
	DefaultProfile string `koanf:"default_profile"`

	// Color is loaded like the other settings (default true), but no command
	// reads it: diagnostic and deployment summary styling are the same
	// whatever its value.
	Color bool `koanf:"color"`
}

// defaults returns punktf's built-in settings, the first and lowest-
// precedence layer loaded by Load.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source_root":     "",
		"default_profile": "default",
		"color":           true,
	}
}
