package pipeline

import "fmt"

// knownPlugins are the plugin names this runner understands. Unknown
// plugins are reported only in strict mode; outside strict mode the step
// still runs on the host shell and the reference is ignored.
var knownPlugins = map[string]bool{
	DockerPluginName: true,
}

// Problem describes a single validation finding.
type Problem struct {
	// StepIndex is the zero-based index into [Pipeline.Steps],
	// or -1 for pipeline-level problems.
	StepIndex int

	// Message is the human-readable description.
	Message string
}

func (p Problem) String() string {
	if p.StepIndex < 0 {
		return p.Message
	}
	return fmt.Sprintf("step %d: %s", p.StepIndex+1, p.Message)
}

// Validate checks the pipeline and returns all findings.
//
// In strict mode, references to plugins this runner does not understand
// are also reported. An empty result means the pipeline is runnable.
func (p *Pipeline) Validate(strict bool) []Problem {
	var problems []Problem
	seenKeys := make(map[string]int)

	for i := range p.Steps {
		step := p.Steps[i]
		if step.IsWait() {
			continue
		}

		cmd := step.Command
		if len(cmd.Commands) == 0 {
			problems = append(problems, Problem{i, "command step has no command"})
		}

		if cmd.Key != "" {
			if prev, ok := seenKeys[cmd.Key]; ok {
				problems = append(problems, Problem{i, fmt.Sprintf("duplicate step key %q (already used by step %d)", cmd.Key, prev+1)})
			}
			seenKeys[cmd.Key] = i
		}

		for _, plugin := range cmd.Plugins {
			if plugin.Name == "" {
				problems = append(problems, Problem{i, "plugin reference has no name"})
				continue
			}
			if !knownPlugins[plugin.Name] {
				if strict {
					problems = append(problems, Problem{i, fmt.Sprintf("unknown plugin %q", plugin.Name)})
				}
				continue
			}
		}

		docker, err := cmd.DockerPlugin()
		if err != nil {
			problems = append(problems, Problem{i, fmt.Sprintf("invalid docker plugin config: %v", err)})
		} else if docker != nil && docker.Image == "" {
			problems = append(problems, Problem{i, "docker plugin config has no image"})
		}
	}

	return problems
}
