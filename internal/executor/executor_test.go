package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepline/internal/pipeline"
)

func TestLocal_Run_CapturesOutput(t *testing.T) {
	exec := NewLocal("", "")
	step := &pipeline.CommandStep{Commands: []string{"echo hello", "echo world >&2"}}

	var out bytes.Buffer
	result, err := exec.Run(context.Background(), step, Options{Output: &out})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.Failed())
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), "world")
}

func TestLocal_Run_ExitCode(t *testing.T) {
	exec := NewLocal("", "")
	step := &pipeline.CommandStep{Commands: []string{"exit 42"}}

	result, err := exec.Run(context.Background(), step, Options{})
	require.NoError(t, err)
	assert.Equal(t, 42, result.ExitCode)
	assert.True(t, result.Failed())
}

func TestLocal_Run_Env(t *testing.T) {
	exec := NewLocal("", "")
	step := &pipeline.CommandStep{Commands: []string{"echo value=$STEP_TEST_VAR"}}

	var out bytes.Buffer
	_, err := exec.Run(context.Background(), step, Options{
		Env:    map[string]string{"STEP_TEST_VAR": "from-pipeline"},
		Output: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "value=from-pipeline")
}

func TestLocal_Run_Timeout(t *testing.T) {
	exec := NewLocal("", "")
	step := &pipeline.CommandStep{Commands: []string{"sleep 5"}}

	result, err := exec.Run(context.Background(), step, Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.True(t, result.Failed())
}

func TestLocal_Run_Canceled(t *testing.T) {
	exec := NewLocal("", "")
	step := &pipeline.CommandStep{Commands: []string{"sleep 5"}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := exec.Run(ctx, step, Options{})
	require.NoError(t, err)
	assert.True(t, result.Canceled)
}

func TestClassify_CleanExitNotReclassified(t *testing.T) {
	// A cancel landing just as the step exits 0 must not flip the result:
	// context errors only matter when cmd.Run itself failed.
	result, err := classify(Result{}, nil, nil, context.Canceled)
	require.NoError(t, err)
	assert.False(t, result.Canceled)
	assert.False(t, result.TimedOut)
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.Failed())
}

func TestClassify_TimeoutWinsOverKillError(t *testing.T) {
	killed := errors.New("signal: killed")

	result, err := classify(Result{}, killed, context.DeadlineExceeded, nil)
	require.NoError(t, err)
	assert.True(t, result.TimedOut)

	result, err = classify(Result{}, killed, nil, context.Canceled)
	require.NoError(t, err)
	assert.True(t, result.Canceled)
}

func TestLocal_Run_MissingShell(t *testing.T) {
	exec := NewLocal("definitely-not-a-shell", "")
	step := &pipeline.CommandStep{Commands: []string{"true"}}

	_, err := exec.Run(context.Background(), step, Options{})
	assert.Error(t, err)
}

func TestNewLocal_Defaults(t *testing.T) {
	exec := NewLocal("", "")
	assert.Equal(t, "sh", exec.Shell)
	assert.Equal(t, "docker", exec.Docker)
}

func TestMock_RecordsInvocations(t *testing.T) {
	mock := &Mock{FailOnLabel: "style check"}

	pass := &pipeline.CommandStep{Label: "tests"}
	fail := &pipeline.CommandStep{Label: "style check"}

	result, err := mock.Run(context.Background(), pass, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)

	result, err = mock.Run(context.Background(), fail, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)

	require.Len(t, mock.Invocations, 2)
	assert.Equal(t, "tests", mock.Invocations[0].Label)
	assert.Equal(t, "style check", mock.Invocations[1].Label)
}
