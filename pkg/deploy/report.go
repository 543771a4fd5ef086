package deploy

import (
	"time"

	"github.com/google/uuid"
)

// Report summarizes one deployment run: every action taken, its outcome,
// and enough identifying detail to correlate it with log lines from the
// same run.
type Report struct {
	RunID      uuid.UUID
	Profile    string
	SourceRoot string
	DryRun     bool
	StartedAt  time.Time
	Duration   time.Duration
	Results    []ActionResult
}

// ActionResult is the outcome of executing a single planned Action.
type ActionResult struct {
	Action   *Action
	Success  bool
	Skipped  bool
	Message  string
	Err      error
	Duration time.Duration
}

// Succeeded reports whether every action in the report completed without
// error.
func (r *Report) Succeeded() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// NewReport starts a report for the given profile/source root.
func NewReport(profileName, sourceRoot string, dryRun bool) *Report {
	return &Report{
		RunID:      uuid.New(),
		Profile:    profileName,
		SourceRoot: sourceRoot,
		DryRun:     dryRun,
		StartedAt:  time.Now(),
	}
}
