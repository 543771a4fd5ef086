package deploy

import (
	"os"
	"path/filepath"
)

// ExpandPath expands a leading ~ to the current user's home directory, then
// $VAR/${VAR} references via the process environment. Variables with no
// value are left textual rather than erroring here; planning surfaces the
// unresolved result when it fails to produce a usable target.
func ExpandPath(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, expandEnv(path[2:]))
	}

	return expandEnv(path)
}

// expandEnv is os.ExpandEnv, except that a reference to an unset variable is
// kept textual instead of collapsing to the empty string.
func expandEnv(path string) string {
	return os.Expand(path, func(name string) string {
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return "$" + name
	})
}
