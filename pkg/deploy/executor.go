package deploy

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/fsys"
	"github.com/punktf/punktf/pkg/logging"
	"github.com/punktf/punktf/pkg/profile"
	"github.com/punktf/punktf/pkg/transform"
)

// Options configures an Executor. A nil Logger gets the "deploy" component
// logger; pass a pointer to zerolog.Nop() to silence it instead.
type Options struct {
	FS          fsys.FS
	DryRun      bool
	Logger      *zerolog.Logger
	Transforms  *transform.Registry
	SourceRoot  string
	ProfileName string
}

// Executor applies a DeployPlan: rendering and writing each Create/
// Overwrite action, creating each Symlink action, and running the
// profile's pre/post hooks around the whole run.
type Executor struct {
	fs          fsys.FS
	dryRun      bool
	logger      zerolog.Logger
	transforms  *transform.Registry
	sourceRoot  string
	profileName string
}

// New creates an Executor.
func New(opts Options) *Executor {
	logger := logging.GetLogger("deploy")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	fs := opts.FS
	if fs == nil {
		fs = fsys.NewOS()
	}

	transforms := opts.Transforms
	if transforms == nil {
		transforms = transform.NewRegistry()
	}

	return &Executor{
		fs:          fs,
		dryRun:      opts.DryRun,
		logger:      logger,
		transforms:  transforms,
		sourceRoot:  opts.SourceRoot,
		profileName: opts.ProfileName,
	}
}

// Run executes the full deployment: pre-hooks, the plan's actions in order,
// then post-hooks if every action succeeded. A failed pre-hook aborts before
// any action runs; post-hooks only run if nothing failed.
func (e *Executor) Run(p *profile.Profile, plan *DeployPlan, targetRoot string) (*Report, error) {
	report := NewReport(e.profileName, e.sourceRoot, e.dryRun)
	current := CurrentEnv{Source: e.sourceRoot, Target: targetRoot, Profile: e.profileName}

	if err := runHooks(p.PreHooks, e.sourceRoot, current, e.logger); err != nil {
		report.Duration = time.Since(report.StartedAt)
		return report, err
	}

	report.Results = e.Execute(plan, p, current)
	report.Duration = time.Since(report.StartedAt)

	if !report.Succeeded() {
		return report, punktferrors.New(punktferrors.ErrDeployIO, "one or more actions failed")
	}

	if err := runHooks(p.PostHooks, e.sourceRoot, current, e.logger); err != nil {
		return report, err
	}

	return report, nil
}

// Execute runs every action in plan and returns its outcomes, in order.
// Execution stops at the first action that fails; prior actions' writes
// stand, nothing is rolled back.
func (e *Executor) Execute(plan *DeployPlan, p *profile.Profile, current CurrentEnv) []ActionResult {
	results := make([]ActionResult, 0, len(plan.Actions))

	for _, action := range plan.Actions {
		result := e.executeAction(action, p, current)
		results = append(results, result)
		if !result.Success {
			break
		}
	}

	return results
}

func (e *Executor) executeAction(action *Action, p *profile.Profile, current CurrentEnv) ActionResult {
	start := time.Now()

	e.logger.Debug().
		Str("kind", action.Kind.String()).
		Str("target", action.TargetPath).
		Bool("dry_run", e.dryRun).
		Msg("executing action")

	switch action.Kind {
	case SkipKeep, SkipHigherPrio:
		return ActionResult{Action: action, Success: true, Skipped: true, Message: "skipped", Duration: time.Since(start)}

	case Symlink:
		err := e.executeSymlink(action)
		return e.finish(action, start, err)

	case Create, Overwrite:
		err := e.executeWrite(action, p, current)
		return e.finish(action, start, err)

	default:
		return ActionResult{Action: action, Success: true, Skipped: true, Duration: time.Since(start)}
	}
}

func (e *Executor) finish(action *Action, start time.Time, err error) ActionResult {
	if err != nil {
		e.logger.Error().Err(err).Str("target", action.TargetPath).Msg("action failed")
		return ActionResult{Action: action, Success: false, Err: err, Duration: time.Since(start)}
	}

	e.logger.Info().
		Str("kind", action.Kind.String()).
		Str("target", action.TargetPath).
		Dur("duration", time.Since(start)).
		Msg("action executed")

	return ActionResult{Action: action, Success: true, Duration: time.Since(start)}
}

func (e *Executor) executeWrite(action *Action, p *profile.Profile, current CurrentEnv) error {
	sourceBytes, err := e.fs.ReadFile(action.SourcePath)
	if err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to read source %s", action.SourcePath)
	}

	// PUNKTF_CURRENT_SOURCE/TARGET/PROFILE are visible to templates as well
	// as hooks. Deployment is strictly sequential, so setting these in the
	// process environment for the duration of this action's render is safe
	// and lets the resolver's normal os.LookupEnv path pick them up with
	// override-always semantics -- no fallback check needed, unlike
	// PUNKTF_TARGET_ARCH/OS/FAMILY.
	restore := setCurrentEnv(action.SourcePath, action.TargetPath, current.Profile)
	defer restore()

	rendered, err := render(action.SourcePath, sourceBytes, p, action.Dotfile, e.transforms)
	if err != nil {
		return err
	}
	action.BytesAfterRender = rendered

	if e.dryRun {
		return nil
	}

	if err := e.fs.MkdirAll(filepath.Dir(action.TargetPath), 0o755); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to create parent directory for %s", action.TargetPath)
	}

	return e.writeAtomic(action.TargetPath, rendered)
}

// writeAtomic writes data to a sibling temp file, then renames it over
// target, so an interrupted write never leaves a half-written target.
func (e *Executor) writeAtomic(target string, data []byte) error {
	tmp := target + ".punktf-tmp"

	if err := e.fs.WriteFile(tmp, data, 0o644); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to write temp file %s", tmp)
	}

	if err := e.fs.Rename(tmp, target); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to rename %s to %s", tmp, target)
	}

	return nil
}

// setCurrentEnv sets the three PUNKTF_CURRENT_* variables for the duration of
// a single action's render, returning a func that restores whatever was
// there before.
func setCurrentEnv(source, target, profileName string) func() {
	type saved struct {
		value string
		had   bool
	}
	prev := make(map[string]saved, 3)
	set := map[string]string{
		"PUNKTF_CURRENT_SOURCE":  source,
		"PUNKTF_CURRENT_TARGET":  target,
		"PUNKTF_CURRENT_PROFILE": profileName,
	}

	for k, v := range set {
		val, had := os.LookupEnv(k)
		prev[k] = saved{value: val, had: had}
		os.Setenv(k, v)
	}

	return func() {
		for k, s := range prev {
			if s.had {
				os.Setenv(k, s.value)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

func (e *Executor) executeSymlink(action *Action) error {
	if e.dryRun {
		return nil
	}

	if err := e.fs.MkdirAll(filepath.Dir(action.TargetPath), 0o755); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to create parent directory for %s", action.TargetPath)
	}

	if info, err := e.fs.Lstat(action.TargetPath); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return punktferrors.Newf(punktferrors.ErrDeployIO, "refusing to replace non-symlink at %s", action.TargetPath)
		}
		if err := e.fs.Remove(action.TargetPath); err != nil {
			return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to remove existing symlink at %s", action.TargetPath)
		}
	}

	if err := e.fs.Symlink(action.SourcePath, action.TargetPath); err != nil {
		return punktferrors.Wrapf(err, punktferrors.ErrDeployIO, "failed to symlink %s to %s", action.SourcePath, action.TargetPath)
	}

	return nil
}
