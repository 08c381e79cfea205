package executor

import (
	"context"
	"io"

	"stepline/internal/pipeline"
)

// MockInvocation records one Run call made against a [Mock].
type MockInvocation struct {
	Label string
	Env   map[string]string
}

// Mock is an [Executor] for tests. It records invocations and returns
// canned results without spawning processes.
type Mock struct {
	// Invocations records every Run call in order.
	Invocations []MockInvocation

	// FailOnLabel makes the step with this display label fail with
	// [FailExitCode].
	FailOnLabel string

	// FailExitCode is the exit code for the failing step. Defaults to 1.
	FailExitCode int

	// Output is written to the step's output writer on every call.
	Output string

	// Err, when set, is returned from every Run call.
	Err error
}

func (m *Mock) Run(ctx context.Context, step *pipeline.CommandStep, opts Options) (Result, error) {
	m.Invocations = append(m.Invocations, MockInvocation{
		Label: step.DisplayLabel(),
		Env:   opts.Env,
	})

	if m.Err != nil {
		return Result{}, m.Err
	}
	if err := ctx.Err(); err != nil {
		return Result{Canceled: true}, nil
	}

	if m.Output != "" && opts.Output != nil {
		io.WriteString(opts.Output, m.Output)
	}

	if m.FailOnLabel != "" && step.DisplayLabel() == m.FailOnLabel {
		code := m.FailExitCode
		if code == 0 {
			code = 1
		}
		return Result{ExitCode: code}, nil
	}
	return Result{}, nil
}
