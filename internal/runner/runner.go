// Package runner orchestrates pipeline execution from parse to recorded build.
//
// The [Runner] walks a pipeline's phases, executes each command step via an
// [executor.Executor], persists progress through a [build.Writer] after
// every step, and applies the wait-barrier semantics:
//
//   - A step failure never stops its phase siblings; they still run.
//   - At a wait barrier with failures so far, execution stops and the
//     remaining steps are marked skipped, unless the barrier sets
//     continue_on_failure, in which case later phases run anyway.
//   - The build finishes passed only when every command step passed.
//
// Key types:
//   - [Runner] drives the run
//   - [ArtifactUploader] is the optional post-step artifact hook
//   - [ProgressCallback] reports step starts for UI
package runner

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"stepline/internal/build"
	"stepline/internal/executor"
	"stepline/internal/output"
	"stepline/internal/pipeline"
)

// ArtifactUploader uploads a step's artifact_paths globs after the step
// finishes. Implementations are best-effort: errors are reported but do
// not affect the build result. The artifact package provides the
// production implementation.
type ArtifactUploader interface {
	UploadGlobs(ctx context.Context, buildID string, patterns []string) ([]string, error)
}

// ProgressCallback is invoked before each command step begins execution.
// stepIndex is 1-based.
type ProgressCallback func(stepIndex, totalSteps int, label string)

// Runner executes pipelines and records builds.
//
// Use [New] to create one; the executor, writer, and printer are required.
// Optional collaborators are attached with the Set methods.
type Runner struct {
	executor executor.Executor
	writer   *build.Writer
	printer  *output.Printer

	defaultTimeout time.Duration
	workDir        string
	artifacts      ArtifactUploader
	progress       ProgressCallback
}

// New creates a [Runner] with the required dependencies.
func New(exec executor.Executor, writer *build.Writer, printer *output.Printer) *Runner {
	return &Runner{
		executor: exec,
		writer:   writer,
		printer:  printer,
	}
}

// SetDefaultTimeout bounds steps that carry no timeout_in_minutes of
// their own. Zero disables the bound.
func (r *Runner) SetDefaultTimeout(d time.Duration) {
	r.defaultTimeout = d
}

// SetWorkDir sets the working directory steps execute in.
func (r *Runner) SetWorkDir(dir string) {
	r.workDir = dir
}

// SetArtifacts attaches an optional artifact uploader. When set, a step's
// artifact_paths are uploaded after the step finishes, pass or fail.
func (r *Runner) SetArtifacts(u ArtifactUploader) {
	r.artifacts = u
}

// SetProgressCallback configures an optional progress callback.
func (r *Runner) SetProgressCallback(cb ProgressCallback) {
	r.progress = cb
}

// Run executes the pipeline and returns the finished build record.
//
// extraEnv is layered over the pipeline env (but under step env), serving
// the CLI's --env flags. The returned error covers infrastructure
// problems (persistence); step failures are expressed in the build's
// status, not the error.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline, pipelinePath string, extraEnv map[string]string) (*build.Build, error) {
	steps := p.CommandSteps()

	b := &build.Build{
		ID:           uuid.NewString(),
		PipelinePath: pipelinePath,
		Status:       build.StatusRunning,
		StartedAt:    time.Now(),
		Steps:        make([]build.StepResult, len(steps)),
	}
	for i, step := range steps {
		b.Steps[i] = build.StepResult{
			Index:   i,
			Label:   step.DisplayLabel(),
			Command: step.ScriptBody(),
			Status:  build.StatusPending,
		}
	}
	if err := r.writer.Save(b); err != nil {
		return nil, err
	}

	buildDir, err := r.writer.Dir(b.ID)
	if err != nil {
		return nil, err
	}
	logs := build.NewLogStore(buildDir)

	anyFailed := false
	stopped := false
	index := 0

	for _, phase := range p.Phases() {
		for _, step := range phase.Steps {
			result := &b.Steps[index]

			if stopped {
				result.Status = build.StatusSkipped
				r.printer.StepOutcome(result.Label, result.Status, 0, 0)
				index++
				continue
			}

			if r.progress != nil {
				r.progress(index+1, len(steps), result.Label)
			}
			r.printer.StepHeader(index+1, len(steps), result.Label)

			r.runStep(ctx, step, result, logs, MergeEnv(p.Env, extraEnv, step.Env))
			switch result.Status {
			case build.StatusFailed, build.StatusTimedOut:
				anyFailed = true
			case build.StatusCanceled:
				anyFailed = true
				stopped = true
			}
			r.printer.StepOutcome(result.Label, result.Status, result.ExitCode, result.Duration)

			if len(step.ArtifactPaths) > 0 && r.artifacts != nil {
				if _, err := r.artifacts.UploadGlobs(ctx, b.ID, step.ArtifactPaths); err != nil {
					r.printer.Errorf("artifact upload failed: %v", err)
				}
			}

			if err := r.writer.Save(b); err != nil {
				return nil, err
			}
			index++
		}

		if phase.Barrier != nil && !stopped {
			continuing := !anyFailed || phase.Barrier.ContinueOnFailure
			r.printer.Barrier(anyFailed && phase.Barrier.ContinueOnFailure)
			if !continuing {
				stopped = true
			}
		}
	}

	b.FinishedAt = time.Now()
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		b.Status = build.StatusCanceled
	case anyFailed:
		b.Status = build.StatusFailed
	default:
		b.Status = build.StatusPassed
	}
	if err := r.writer.Save(b); err != nil {
		return nil, err
	}
	return b, nil
}

// runStep executes one command step and fills in its result.
func (r *Runner) runStep(ctx context.Context, step *pipeline.CommandStep, result *build.StepResult, logs *build.LogStore, env map[string]string) {
	result.Status = build.StatusRunning
	result.StartedAt = time.Now()

	sink, logPath, err := logs.Create(result.Index)
	if err != nil {
		// Step still runs; output goes to the console only.
		r.printer.Errorf("step log unavailable: %v", err)
		sink = nopWriteCloser{io.Discard}
	} else {
		result.LogPath = logPath
	}
	defer sink.Close()

	res, err := r.executor.Run(ctx, step, executor.Options{
		Env:     env,
		Timeout: r.stepTimeout(step),
		Output:  io.MultiWriter(sink, r.printer.Writer()),
		WorkDir: r.workDir,
	})
	result.Duration = res.Duration
	result.ExitCode = res.ExitCode

	switch {
	case err != nil:
		io.WriteString(sink, err.Error()+"\n")
		result.Status = build.StatusFailed
		result.ExitCode = -1
		r.printer.Errorf("%v", err)
	case res.TimedOut:
		result.Status = build.StatusTimedOut
	case res.Canceled:
		result.Status = build.StatusCanceled
	case res.ExitCode != 0:
		result.Status = build.StatusFailed
	default:
		result.Status = build.StatusPassed
	}
}

// stepTimeout applies timeout_in_minutes, falling back to the default.
func (r *Runner) stepTimeout(step *pipeline.CommandStep) time.Duration {
	if step.TimeoutMinutes > 0 {
		return time.Duration(step.TimeoutMinutes) * time.Minute
	}
	return r.defaultTimeout
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
