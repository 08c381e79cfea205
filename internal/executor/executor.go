// Package executor runs individual command steps as subprocesses.
//
// The [Executor] interface decouples step execution from build
// orchestration: the production [Local] executor spawns real processes
// (host shell or docker), while [Mock] records invocations for tests.
//
// Environment layering is the caller's concern; executors receive the
// already-merged step environment and apply it on top of the host
// environment, so names referenced by docker "--env NAME" flags resolve
// without their values ever entering an argv.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"time"

	"stepline/internal/pipeline"
)

// Result is the outcome of one step execution.
type Result struct {
	// ExitCode is the process exit code. Meaningful when neither TimedOut
	// nor Canceled is set.
	ExitCode int

	// TimedOut indicates the step was killed by its timeout.
	TimedOut bool

	// Canceled indicates the run's context was canceled mid-step.
	Canceled bool

	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// Failed reports whether the result is anything other than a clean exit 0.
func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut || r.Canceled
}

// Options carries per-step execution parameters.
type Options struct {
	// Env is the merged pipeline/step environment, layered over the host
	// environment for the spawned process.
	Env map[string]string

	// Timeout bounds the step. Zero means no timeout.
	Timeout time.Duration

	// Output receives the step's combined stdout and stderr.
	Output io.Writer

	// WorkDir is the working directory; empty means the current directory.
	WorkDir string
}

// Executor runs a single command step and reports its outcome.
//
// A non-nil error means the step could not be started or supervised (e.g.
// a missing binary); command failures are reported through [Result], not
// the error.
type Executor interface {
	Run(ctx context.Context, step *pipeline.CommandStep, opts Options) (Result, error)
}

// Local is the production [Executor]. Steps without a docker plugin run
// under Shell ("sh -c"); steps with one run inside a container via the
// Docker binary.
type Local struct {
	// Shell is the shell binary for host and in-container execution.
	Shell string

	// Docker is the docker client binary.
	Docker string
}

// NewLocal creates a [Local] executor with the given shell and docker
// binaries. Empty values fall back to "sh" and "docker".
func NewLocal(shell, docker string) *Local {
	if shell == "" {
		shell = "sh"
	}
	if docker == "" {
		docker = "docker"
	}
	return &Local{Shell: shell, Docker: docker}
}

// Run executes the step and classifies its outcome.
func (l *Local) Run(ctx context.Context, step *pipeline.CommandStep, opts Options) (Result, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd, err := l.command(runCtx, step, opts)
	if err != nil {
		return Result{}, err
	}

	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Dir = opts.WorkDir
	cmd.Env = mergedEnviron(opts.Env)

	start := time.Now()
	runErr := cmd.Run()
	result := Result{Duration: time.Since(start)}

	return classify(result, runErr, runCtx.Err(), ctx.Err())
}

// classify maps a cmd.Run outcome onto the result. Timeout and
// cancellation win over the generic "signal: killed" exit error produced
// by CommandContext, but a clean exit is never reclassified: a cancel
// arriving just as the step exits 0 leaves the step passed.
func classify(result Result, runErr, runCtxErr, ctxErr error) (Result, error) {
	if runErr == nil {
		return result, nil
	}

	if errors.Is(runCtxErr, context.DeadlineExceeded) {
		result.TimedOut = true
		return result, nil
	}
	if errors.Is(ctxErr, context.Canceled) {
		result.Canceled = true
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, fmt.Errorf("failed to run step: %w", runErr)
}

// command builds the exec.Cmd for the step: a docker argv when the step
// carries a docker plugin, a host shell invocation otherwise.
func (l *Local) command(ctx context.Context, step *pipeline.CommandStep, opts Options) (*exec.Cmd, error) {
	docker, err := step.DockerPlugin()
	if err != nil {
		return nil, fmt.Errorf("failed to run step: %w", err)
	}

	if docker == nil {
		return exec.CommandContext(ctx, l.Shell, "-c", step.ScriptBody()), nil
	}

	hostDir := opts.WorkDir
	if hostDir == "" {
		hostDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to run step: %w", err)
		}
	}

	args, err := docker.Args(hostDir, opts.Env, l.Shell, step.ScriptBody())
	if err != nil {
		return nil, fmt.Errorf("failed to run step: %w", err)
	}
	return exec.CommandContext(ctx, l.Docker, args...), nil
}

// mergedEnviron layers env over the host environment in deterministic order.
func mergedEnviron(env map[string]string) []string {
	if len(env) == 0 {
		return os.Environ()
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	environ := os.Environ()
	for _, k := range keys {
		environ = append(environ, k+"="+env[k])
	}
	return environ
}
