package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepline/internal/build"
	"stepline/internal/config"
	"stepline/internal/output"
)

// setupTestApp builds an App with captured output and an isolated build
// root, plus a root command wired to it.
func setupTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BuildDir = t.TempDir()

	buf := &bytes.Buffer{}
	app := &App{
		Config:  cfg,
		Printer: output.NewPrinterWithWriter(buf),
	}
	return app, buf
}

// writePipeline drops pipeline content into a temp file and returns its path.
func writePipeline(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(app *App, args ...string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.Printer.Writer())
	root.SetErr(app.Printer.Writer())
	return root.Execute()
}

func TestValidateCommand_OK(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - label: tests\n    command: \"true\"\n")

	err := execute(app, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ok (1 steps)")
}

func TestValidateCommand_Problems(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - label: broken\n")

	err := execute(app, "validate", path)
	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "no command")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	app, _ := setupTestApp(t)

	err := execute(app, "validate", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	_, ok := IsExitError(err)
	assert.False(t, ok)
}

func TestRunCommand_Success(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, `
steps:
  - label: "greet"
    command: "echo hello from the pipeline"
`)

	err := execute(app, "run", path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello from the pipeline")
	assert.Contains(t, buf.String(), "Build passed")

	// A build record landed in the configured root.
	b, err := build.NewReader(app.Config.BuildDir).LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, build.StatusPassed, b.Status)
}

func TestRunCommand_FailureExitCode(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - label: boom\n    command: \"exit 3\"\n")

	err := execute(app, "run", path)
	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "Build failed")
}

func TestRunCommand_ExtraEnv(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - command: \"echo var=$CLI_VAR\"\n")

	err := execute(app, "run", path, "--env", "CLI_VAR=from-flag")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "var=from-flag")
}

func TestRunCommand_DryRun(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, `
steps:
  - label: "tests"
    command: "pytest"
  - wait: ~
    continue_on_failure: true
  - label: "push logs"
    command: "./push-logs.sh"
`)

	err := execute(app, "run", "--dry-run", path)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1. tests")
	assert.Contains(t, out, "wait (continue on failure)")
	assert.Contains(t, out, "2. push logs")

	// Nothing ran, nothing was recorded.
	_, err = build.NewReader(app.Config.BuildDir).LoadLatest()
	assert.ErrorIs(t, err, build.ErrNoBuilds)
}

func TestStepsCommand(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - label: only\n    command: \"true\"\n")

	err := execute(app, "steps", path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1. only")
}

func TestStatusCommand_NoBuilds(t *testing.T) {
	app, buf := setupTestApp(t)

	err := execute(app, "status")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no recorded builds")
}

func TestStatusCommand_ShowsRun(t *testing.T) {
	app, buf := setupTestApp(t)
	path := writePipeline(t, "steps:\n  - label: tests\n    command: \"true\"\n")

	require.NoError(t, execute(app, "run", path))
	buf.Reset()

	err := execute(app, "status")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Build passed")
	assert.Contains(t, buf.String(), "tests")
}

func TestParseEnvFlags(t *testing.T) {
	env, err := parseEnvFlags([]string{"A=1", "B=two=three"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "two=three"}, env)

	_, err = parseEnvFlags([]string{"NOVALUE"})
	assert.Error(t, err)

	env, err = parseEnvFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, env)
}
