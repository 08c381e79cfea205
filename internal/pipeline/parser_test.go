package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePipeline = `
env:
  PYTHONDONTWRITEBYTECODE: "1"

steps:
  - label: "run tests and upload coverage"
    command: |
      pip install -q -r requirements.txt
      pytest --cov=stellargraph tests/
      coveralls
    artifact_paths: ".coverage*"
    plugins:
      - docker#v5.9.0:
          image: "python:3.6"
          workdir: /workdir
          environment:
            - COVERALLS_REPO_TOKEN
          propagate-environment: true

  - label: "style check"
    command: "black --check ."

  - wait: ~
    continue_on_failure: true

  - label: "push logs"
    command: ".buildkite/push-logs.sh"
    env:
      LOG_CHANNEL: builds
`

func TestParse_SamplePipeline(t *testing.T) {
	p, err := Parse([]byte(samplePipeline))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"PYTHONDONTWRITEBYTECODE": "1"}, p.Env)
	require.Len(t, p.Steps, 4)

	first := p.Steps[0].Command
	require.NotNil(t, first)
	assert.Equal(t, "run tests and upload coverage", first.Label)
	assert.Contains(t, first.ScriptBody(), "pytest --cov=stellargraph")
	assert.Equal(t, []string{".coverage*"}, first.ArtifactPaths)

	require.Len(t, first.Plugins, 1)
	assert.Equal(t, "docker", first.Plugins[0].Name)
	assert.Equal(t, "v5.9.0", first.Plugins[0].Version)

	docker, err := first.DockerPlugin()
	require.NoError(t, err)
	require.NotNil(t, docker)
	assert.Equal(t, "python:3.6", docker.Image)
	assert.Equal(t, "/workdir", docker.Workdir)
	assert.Equal(t, []string{"COVERALLS_REPO_TOKEN"}, docker.Environment)
	assert.True(t, docker.PropagateEnvironment)

	wait := p.Steps[2].Wait
	require.NotNil(t, wait)
	assert.True(t, wait.ContinueOnFailure)

	last := p.Steps[3].Command
	require.NotNil(t, last)
	assert.Equal(t, map[string]string{"LOG_CHANNEL": "builds"}, last.Env)
}

func TestParse_BareStepList(t *testing.T) {
	p, err := Parse([]byte(`
- command: "echo one"
- wait
- command: "echo two"
`))
	require.NoError(t, err)
	require.Len(t, p.Steps, 3)
	assert.True(t, p.Steps[1].IsWait())
	assert.False(t, p.Steps[1].Wait.ContinueOnFailure)
}

func TestParse_CommandList(t *testing.T) {
	p, err := Parse([]byte(`
steps:
  - label: "multi"
    command:
      - "echo one"
      - "echo two"
`))
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, []string{"echo one", "echo two"}, p.Steps[0].Command.Commands)
	assert.Equal(t, "echo one\necho two", p.Steps[0].Command.ScriptBody())
}

func TestParse_CommandsAlias(t *testing.T) {
	p, err := Parse([]byte(`
steps:
  - commands:
      - "make build"
      - "make test"
`))
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, []string{"make build", "make test"}, p.Steps[0].Command.Commands)
}

func TestParse_EmptyDocument(t *testing.T) {
	p, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, p.Steps)
	assert.Empty(t, p.Phases()[0].Steps)
}

func TestParse_UnknownScalarStep(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - wat\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wat")
}

func TestParse_BarePluginReference(t *testing.T) {
	p, err := Parse([]byte(`
steps:
  - command: "echo hi"
    plugins:
      - docker#v5.9.0
`))
	require.NoError(t, err)
	require.Len(t, p.Steps[0].Command.Plugins, 1)
	plugin := p.Steps[0].Command.Plugins[0]
	assert.Equal(t, "docker", plugin.Name)
	assert.Equal(t, "v5.9.0", plugin.Version)

	docker, err := p.Steps[0].Command.DockerPlugin()
	require.NoError(t, err)
	require.NotNil(t, docker)
	assert.Empty(t, docker.Image)
}

func TestParse_NameFallsBackToLabel(t *testing.T) {
	p, err := Parse([]byte(`
steps:
  - name: "named step"
    command: "true"
`))
	require.NoError(t, err)
	assert.Equal(t, "named step", p.Steps[0].Command.Label)
}

func TestDisplayLabel(t *testing.T) {
	step := &CommandStep{Commands: []string{"make test"}}
	assert.Equal(t, "make test", step.DisplayLabel())

	step.Label = "tests"
	assert.Equal(t, "tests", step.DisplayLabel())

	assert.Equal(t, "(empty step)", (&CommandStep{}).DisplayLabel())
}

func TestPhases(t *testing.T) {
	p, err := Parse([]byte(samplePipeline))
	require.NoError(t, err)

	phases := p.Phases()
	require.Len(t, phases, 2)

	assert.Len(t, phases[0].Steps, 2)
	require.NotNil(t, phases[0].Barrier)
	assert.True(t, phases[0].Barrier.ContinueOnFailure)

	assert.Len(t, phases[1].Steps, 1)
	assert.Nil(t, phases[1].Barrier)
}

func TestPhases_TrailingWait(t *testing.T) {
	p, err := Parse([]byte("steps:\n  - command: \"true\"\n  - wait\n"))
	require.NoError(t, err)

	phases := p.Phases()
	require.Len(t, phases, 2)
	assert.Len(t, phases[0].Steps, 1)
	assert.NotNil(t, phases[0].Barrier)
	assert.Empty(t, phases[1].Steps)
}

func TestCommandSteps(t *testing.T) {
	p, err := Parse([]byte(samplePipeline))
	require.NoError(t, err)

	steps := p.CommandSteps()
	require.Len(t, steps, 3)
	assert.Equal(t, "push logs", steps[2].Label)
}
