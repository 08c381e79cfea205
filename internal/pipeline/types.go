// Package pipeline defines the pipeline definition schema and its YAML parser.
//
// A pipeline file is a list of steps under a top-level "steps" key, with an
// optional "env" map applied to every step. Two kinds of step exist:
//
//   - Command steps run a shell command, optionally inside a container via
//     the docker plugin. They carry a display label, environment variables,
//     plugin references, a timeout, and artifact glob patterns.
//   - Wait steps are barriers: every step before the barrier must finish
//     before anything after it starts. A barrier with continue_on_failure
//     set lets later steps run even when an earlier step failed.
//
// Key types:
//   - [Pipeline] is the parsed definition
//   - [Step] is the command/wait union
//   - [CommandStep], [WaitStep] are the concrete step kinds
//   - [Plugin] is a versioned plugin reference with raw config
//
// Use [Load] or [Parse] to obtain a Pipeline, [Pipeline.Validate] to check
// it, and [Pipeline.Phases] to split it at wait barriers for execution.
package pipeline

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline is a parsed pipeline definition.
type Pipeline struct {
	// Env holds environment variables applied to every command step.
	// Step-level env takes priority over these on conflict.
	Env map[string]string

	// Steps is the ordered step list, command and wait steps interleaved.
	Steps []Step
}

// Step is the union of the two step kinds. Exactly one of Command or Wait
// is non-nil after parsing.
type Step struct {
	Command *CommandStep
	Wait    *WaitStep
}

// IsWait reports whether the step is a wait barrier.
func (s Step) IsWait() bool {
	return s.Wait != nil
}

// CommandStep runs one or more shell commands, either on the host shell or
// inside a container when a docker plugin reference is present.
type CommandStep struct {
	// Label is the display string shown while the step runs.
	// Falls back to the first command line when empty.
	Label string

	// Key optionally identifies the step. Keys must be unique within a
	// pipeline when present.
	Key string

	// Commands are the shell command lines. The YAML "command" field
	// accepts a single string or a list; both normalize to this slice.
	Commands []string

	// Env holds step-level environment variables. These take priority
	// over pipeline-level env.
	Env map[string]string

	// TimeoutMinutes bounds the step's execution. Zero means the
	// configured default applies.
	TimeoutMinutes int

	// ArtifactPaths are glob patterns uploaded to the artifact store
	// after the step finishes. Accepts a string or list in YAML.
	ArtifactPaths []string

	// Plugins are the plugin references attached to the step.
	Plugins []Plugin
}

// DisplayLabel returns the label, or the first command line when the step
// has no label.
func (c *CommandStep) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	if len(c.Commands) > 0 {
		return c.Commands[0]
	}
	return "(empty step)"
}

// ScriptBody joins the command lines into a single shell script body.
func (c *CommandStep) ScriptBody() string {
	return strings.Join(c.Commands, "\n")
}

// DockerPlugin returns the decoded docker plugin config attached to the
// step, or nil when the step runs on the host shell. The error is non-nil
// only when a docker plugin is present but its config cannot be decoded.
func (c *CommandStep) DockerPlugin() (*DockerConfig, error) {
	for _, p := range c.Plugins {
		if p.Name != DockerPluginName {
			continue
		}
		var cfg DockerConfig
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return nil, nil
}

// WaitStep is a barrier separating pipeline phases.
type WaitStep struct {
	// ContinueOnFailure lets steps after the barrier run even when a step
	// before it failed. The build still finishes failed.
	ContinueOnFailure bool
}

// Plugin is a versioned plugin reference, written in YAML as a single-key
// map: "docker#v5.9.0: {image: ...}".
type Plugin struct {
	// Name is the plugin name, the part before "#".
	Name string

	// Version is the part after "#", empty when unversioned.
	Version string

	// Config is the raw YAML config node, decoded per plugin kind.
	Config *yaml.Node
}

// Decode unmarshals the plugin's raw config into v. Plugins referenced
// without config (bare scalar entries) decode into the zero value.
func (p Plugin) Decode(v any) error {
	if p.Config == nil {
		return nil
	}
	return p.Config.Decode(v)
}

// Phase is a run of consecutive command steps between wait barriers.
type Phase struct {
	// Steps are the command steps in the phase, in pipeline order.
	Steps []*CommandStep

	// Barrier is the wait step separating this phase from the next,
	// or nil for the final phase.
	Barrier *WaitStep
}

// Phases splits the pipeline's steps at wait barriers.
//
// Consecutive wait steps collapse into the later barrier's phase being
// empty, which is legal: an empty phase just evaluates its barrier.
func (p *Pipeline) Phases() []Phase {
	var phases []Phase
	current := Phase{}
	for i := range p.Steps {
		step := p.Steps[i]
		if step.IsWait() {
			current.Barrier = step.Wait
			phases = append(phases, current)
			current = Phase{}
			continue
		}
		current.Steps = append(current.Steps, step.Command)
	}
	phases = append(phases, current)
	return phases
}

// CommandSteps returns the command steps in pipeline order, skipping
// wait barriers.
func (p *Pipeline) CommandSteps() []*CommandStep {
	var steps []*CommandStep
	for i := range p.Steps {
		if p.Steps[i].Command != nil {
			steps = append(steps, p.Steps[i].Command)
		}
	}
	return steps
}
