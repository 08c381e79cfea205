package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// DockerConfig is the decoded config of a docker plugin reference.
//
// The plugin runs the step's commands inside a container instead of the
// host shell. The checkout directory is mounted at Workdir (or a default
// mount point) and becomes the working directory.
type DockerConfig struct {
	// Image is the container image to run. Required.
	Image string `yaml:"image"`

	// Workdir is the in-container mount point and working directory.
	// Defaults to [DefaultWorkdir] when empty.
	Workdir string `yaml:"workdir"`

	// Environment lists env vars forwarded into the container. Entries
	// are either "NAME", which propagates the host value without it ever
	// appearing in the docker argv, or "NAME=value" literals.
	Environment []string `yaml:"environment"`

	// PropagateEnvironment forwards the merged pipeline/step env by name.
	PropagateEnvironment bool `yaml:"propagate-environment"`

	// AlwaysPull pulls the image before every run.
	AlwaysPull bool `yaml:"always-pull"`
}

// DefaultWorkdir is the in-container checkout mount point used when the
// docker plugin config does not set one.
const DefaultWorkdir = "/workdir"

// Args builds the docker argv (without the docker binary itself) that runs
// script inside the configured container.
//
// hostDir is the checkout directory on the host, mounted read-write at the
// workdir. stepEnv is the merged pipeline/step environment; its entries are
// forwarded by name only ("--env NAME") when PropagateEnvironment is set, so
// secret values never appear in the argv. shell is the in-container shell,
// e.g. "sh".
func (d *DockerConfig) Args(hostDir string, stepEnv map[string]string, shell, script string) ([]string, error) {
	if d.Image == "" {
		return nil, fmt.Errorf("docker plugin config has no image")
	}

	workdir := d.Workdir
	if workdir == "" {
		workdir = DefaultWorkdir
	}

	args := []string{"run", "--rm"}
	if d.AlwaysPull {
		args = append(args, "--pull", "always")
	}
	args = append(args,
		"--workdir", workdir,
		"--volume", hostDir+":"+workdir,
	)

	if d.PropagateEnvironment {
		names := make([]string, 0, len(stepEnv))
		for name := range stepEnv {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			args = append(args, "--env", name)
		}
	}

	for _, entry := range d.Environment {
		if entry == "" {
			continue
		}
		args = append(args, "--env", entry)
	}

	args = append(args, d.Image, shell, "-c", script)
	return args, nil
}

// EnvNames returns the names of the config's environment entries, with
// "NAME=value" literals reduced to their name.
func (d *DockerConfig) EnvNames() []string {
	names := make([]string, 0, len(d.Environment))
	for _, entry := range d.Environment {
		name, _, _ := strings.Cut(entry, "=")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
