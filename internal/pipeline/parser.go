package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DockerPluginName is the plugin name that switches a command step from
// host-shell execution to containerized execution.
const DockerPluginName = "docker"

// waitScalars are the bare scalar spellings of a wait barrier.
var waitScalars = map[string]bool{
	"wait":   true,
	"waiter": true,
}

// Load reads and parses a pipeline definition file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse parses YAML content into a [Pipeline].
//
// Both document shapes are accepted: a mapping with "steps" and optional
// "env" keys, or a bare step list.
func Parse(data []byte) (*Pipeline, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}

	if len(doc.Content) == 0 {
		// Empty document: a valid pipeline with zero steps.
		return &Pipeline{}, nil
	}
	root := doc.Content[0]

	var p Pipeline
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&p.Steps); err != nil {
			return nil, fmt.Errorf("failed to parse pipeline: %w", err)
		}
	case yaml.MappingNode:
		var aux struct {
			Env   map[string]string `yaml:"env"`
			Steps []Step            `yaml:"steps"`
		}
		if err := root.Decode(&aux); err != nil {
			return nil, fmt.Errorf("failed to parse pipeline: %w", err)
		}
		p.Env = aux.Env
		p.Steps = aux.Steps
	default:
		return nil, fmt.Errorf("failed to parse pipeline: expected a mapping or step list at line %d", root.Line)
	}

	return &p, nil
}

// UnmarshalYAML decodes the command/wait step union.
//
// A bare "wait" scalar and a mapping containing a "wait" key both decode
// to a [WaitStep]; every other mapping decodes to a [CommandStep].
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if waitScalars[node.Value] {
			s.Wait = &WaitStep{}
			return nil
		}
		return fmt.Errorf("line %d: unknown step %q (did you mean \"wait\"?)", node.Line, node.Value)

	case yaml.MappingNode:
		if mappingHasKey(node, "wait") || mappingHasKey(node, "waiter") {
			var aux struct {
				ContinueOnFailure bool `yaml:"continue_on_failure"`
			}
			if err := node.Decode(&aux); err != nil {
				return fmt.Errorf("line %d: invalid wait step: %w", node.Line, err)
			}
			s.Wait = &WaitStep{ContinueOnFailure: aux.ContinueOnFailure}
			return nil
		}

		cmd, err := decodeCommandStep(node)
		if err != nil {
			return err
		}
		s.Command = cmd
		return nil

	default:
		return fmt.Errorf("line %d: step must be a mapping or \"wait\"", node.Line)
	}
}

// decodeCommandStep decodes a command step mapping, normalizing the
// string-or-list fields.
func decodeCommandStep(node *yaml.Node) (*CommandStep, error) {
	var aux struct {
		Label          string            `yaml:"label"`
		Name           string            `yaml:"name"`
		Key            string            `yaml:"key"`
		Command        yaml.Node         `yaml:"command"`
		Commands       yaml.Node         `yaml:"commands"`
		Env            map[string]string `yaml:"env"`
		TimeoutMinutes int               `yaml:"timeout_in_minutes"`
		ArtifactPaths  yaml.Node         `yaml:"artifact_paths"`
		Plugins        []Plugin          `yaml:"plugins"`
	}
	if err := node.Decode(&aux); err != nil {
		return nil, fmt.Errorf("line %d: invalid command step: %w", node.Line, err)
	}

	cmd := &CommandStep{
		Label:          aux.Label,
		Key:            aux.Key,
		Env:            aux.Env,
		TimeoutMinutes: aux.TimeoutMinutes,
		Plugins:        aux.Plugins,
	}
	if cmd.Label == "" {
		cmd.Label = aux.Name
	}

	commands, err := stringOrList(&aux.Command)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid command: %w", node.Line, err)
	}
	if len(commands) == 0 {
		// "commands" is an accepted alias for "command".
		commands, err = stringOrList(&aux.Commands)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid commands: %w", node.Line, err)
		}
	}
	cmd.Commands = commands

	cmd.ArtifactPaths, err = stringOrList(&aux.ArtifactPaths)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid artifact_paths: %w", node.Line, err)
	}

	return cmd, nil
}

// UnmarshalYAML decodes a plugin reference: either a single-key mapping
// "name#version: config" or a bare "name#version" scalar.
func (p *Plugin) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.Name, p.Version = splitPluginRef(node.Value)
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: plugin entry must have exactly one key", node.Line)
		}
		p.Name, p.Version = splitPluginRef(node.Content[0].Value)
		p.Config = node.Content[1]
		return nil

	default:
		return fmt.Errorf("line %d: invalid plugin reference", node.Line)
	}
}

// splitPluginRef splits "docker#v5.9.0" into name and version.
func splitPluginRef(ref string) (name, version string) {
	name, version, _ = strings.Cut(ref, "#")
	return name, version
}

// mappingHasKey reports whether a mapping node contains the given key.
func mappingHasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// stringOrList normalizes a YAML field that accepts a string or a string
// list into a slice. A zero/null node yields nil.
func stringOrList(node *yaml.Node) ([]string, error) {
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("expected a string or list at line %d", node.Line)
	}
}
