package profile

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultSourceRoot returns the source tree punktf uses when neither
// --source nor PUNKTF_SOURCE is given: <xdg-data-home>/punktf. Unlike
// logging's state-file path, this is only ever consulted once at startup
// (never mid-process against a changed env var), so xdg's init-time
// resolution is safe to rely on here.
func DefaultSourceRoot() string {
	return filepath.Join(xdg.DataHome, "punktf")
}

// ResolveSourceRoot picks the source tree to operate on: an explicit
// --source flag value wins, then PUNKTF_SOURCE, then DefaultSourceRoot.
func ResolveSourceRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("PUNKTF_SOURCE"); env != "" {
		return env
	}
	return DefaultSourceRoot()
}
