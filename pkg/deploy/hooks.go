package deploy

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"

	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/profile"
)

// runHook invokes a single hook command through the platform's default
// shell, cwd = source root, inheriting the process environment plus the
// injected PUNKTF_CURRENT_* variables. Non-zero exit surfaces as
// HookFailed.
func runHook(hook profile.Hook, sourceRoot string, current CurrentEnv, logger zerolog.Logger) error {
	name, args := shellInvocation(string(hook))

	cmd := exec.Command(name, args...)
	cmd.Dir = sourceRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"PUNKTF_CURRENT_SOURCE="+current.Source,
		"PUNKTF_CURRENT_TARGET="+current.Target,
		"PUNKTF_CURRENT_PROFILE="+current.Profile,
	)

	logger.Info().Str("hook", string(hook)).Msg("running hook")

	if err := cmd.Run(); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrHookFailed, "hook %q failed", string(hook)).
			WithDetail("hook", string(hook))
	}

	return nil
}

func shellInvocation(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "/bin/sh", []string{"-c", command}
}

// runHooks runs hooks in declared order, stopping at the first failure.
func runHooks(hooks []profile.Hook, sourceRoot string, current CurrentEnv, logger zerolog.Logger) error {
	for _, h := range hooks {
		if err := runHook(h, sourceRoot, current, logger); err != nil {
			return err
		}
	}
	return nil
}
