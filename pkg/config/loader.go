package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// rcFiles is checked in order; the first one present wins. Both are kept so
// users coming from either config style (and the TOML profile variant, see
// pkg/profile) can use the same file extension for their rc file.
var rcFiles = []struct {
	name   string
	parser koanf.Parser
}{
	{".punktfrc.yaml", yaml.Parser()},
	{".punktfrc.toml", toml.Parser()},
}

// Load builds a Config from, in increasing precedence: built-in defaults,
// $PUNKTF_SOURCE/.punktfrc.{yaml,toml} if present, PUNKTF_* environment
// variables, then flags if a FlagSet is given (nil skips that layer, e.g. in
// tests that don't go through cmd/punktf).
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load config defaults: %w", err)
	}

	for _, rc := range rcFiles {
		rcPath := filepath.Join(rcSourceRoot(), rc.name)
		if _, err := os.Stat(rcPath); err != nil {
			continue
		}
		if err := k.Load(file.Provider(rcPath), rc.parser); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", rcPath, err)
		}
		break
	}

	if err := k.Load(env.Provider("PUNKTF_", ".", envKeyToKoanf), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// rcSourceRoot locates the rc file independently of Config itself, since
// the rc file's own path depends on the source root that hasn't been
// resolved yet at this point in the chain. PUNKTF_SOURCE takes the same
// precedence here that profile.ResolveSourceRoot gives it.
func rcSourceRoot() string {
	if v := os.Getenv("PUNKTF_SOURCE"); v != "" {
		return v
	}
	return "."
}

// envKeyToKoanf maps the PUNKTF_* environment variables onto this package's
// koanf keys. PUNKTF_SOURCE and PUNKTF_PROFILE are special-cased to keep the
// documented variable names (the ones pkg/profile.ResolveSourceRoot and the
// deploy command honor) rather than the PUNKTF_SOURCE_ROOT /
// PUNKTF_DEFAULT_PROFILE a naive strip-and-lower would demand.
func envKeyToKoanf(key string) string {
	trimmed := strings.TrimPrefix(key, "PUNKTF_")
	switch trimmed {
	case "SOURCE":
		return "source_root"
	case "PROFILE":
		return "default_profile"
	}
	return strings.ToLower(trimmed)
}
