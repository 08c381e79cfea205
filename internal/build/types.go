// Package build records pipeline runs to disk and reads them back.
//
// Every run gets a directory under the build root (default
// .stepline/builds) named by its UUID, holding a build.yaml record and a
// logs/ directory with one log file per step. A "latest" pointer file at
// the build root names the most recent build.
//
// Key types:
//   - [Build] is the per-run record with one [StepResult] per command step
//   - [Writer] persists records atomically (temp file + rename)
//   - [Reader] loads records by ID or via the latest pointer
//   - [LogStore] creates and locates per-step log files
//
// The build root can be overridden with the STEPLINE_BUILD_DIR environment
// variable, which takes priority over any configured path.
package build

import (
	"time"
)

// Status is the lifecycle state of a build or a single step.
type Status string

const (
	// StatusPending means the step has not started yet.
	StatusPending Status = "pending"

	// StatusRunning means the step (or build) is currently executing.
	StatusRunning Status = "running"

	// StatusPassed means execution finished with exit code zero.
	StatusPassed Status = "passed"

	// StatusFailed means execution finished with a non-zero exit code.
	StatusFailed Status = "failed"

	// StatusSkipped means the step never ran because an earlier failure
	// stopped the pipeline at a wait barrier.
	StatusSkipped Status = "skipped"

	// StatusTimedOut means the step was killed by its timeout.
	StatusTimedOut Status = "timed-out"

	// StatusCanceled means the run was interrupted, e.g. by Ctrl-C.
	StatusCanceled Status = "canceled"
)

// IsValid reports whether s is one of the defined status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed,
		StatusSkipped, StatusTimedOut, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s.IsValid() && s != StatusPending && s != StatusRunning
}

// StepResult records the outcome of a single command step.
type StepResult struct {
	// Index is the zero-based position among the pipeline's command steps.
	Index int `yaml:"index" json:"index"`

	// Label is the step's display label.
	Label string `yaml:"label" json:"label"`

	// Command is the step's script body.
	Command string `yaml:"command" json:"command"`

	// Status is the step outcome.
	Status Status `yaml:"status" json:"status"`

	// ExitCode is the process exit code; meaningful only for passed and
	// failed steps.
	ExitCode int `yaml:"exit_code" json:"exit_code"`

	// StartedAt is when execution began; zero for skipped steps.
	StartedAt time.Time `yaml:"started_at,omitempty" json:"started_at,omitempty"`

	// Duration is the wall-clock execution time.
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`

	// LogPath is the step's log file, relative to the build directory.
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// Build is the persisted record of one pipeline run.
type Build struct {
	// ID is the run's UUID.
	ID string `yaml:"id" json:"id"`

	// PipelinePath is the definition file the run executed.
	PipelinePath string `yaml:"pipeline" json:"pipeline"`

	// Status is the overall outcome: passed only when every command step
	// passed, canceled when interrupted, failed otherwise.
	Status Status `yaml:"status" json:"status"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty" json:"finished_at,omitempty"`

	// Steps holds one result per command step, in pipeline order.
	Steps []StepResult `yaml:"steps" json:"steps"`
}

// Duration returns the build's wall-clock time, or the time since start
// for a build still running.
func (b *Build) Duration() time.Duration {
	if b.FinishedAt.IsZero() {
		return time.Since(b.StartedAt)
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Failed reports whether any command step finished in a failing state.
func (b *Build) Failed() bool {
	for _, s := range b.Steps {
		switch s.Status {
		case StatusFailed, StatusTimedOut, StatusCanceled:
			return true
		}
	}
	return false
}
