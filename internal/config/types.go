// Package config provides configuration loading and management for stepline.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The defaults work out of the box for a
// checkout with a .buildkite/pipeline.yml; everything else is tuning.
//
// Key types:
//   - [Config] is the root configuration container
//   - [Loader] handles Viper-based configuration loading
//   - [ArtifactConfig] configures the S3-compatible artifact store
//
// Configuration priority (highest to lowest):
//  1. Environment variables (STEPLINE_ prefix)
//  2. Config file specified by STEPLINE_CONFIG_PATH
//  3. User config directory (e.g. ~/.config/stepline/config.yaml)
//  4. ./stepline.yaml in the working directory
//  5. [DefaultConfig] defaults
package config

// Config represents the root configuration structure.
type Config struct {
	// PipelinePath is the default pipeline definition file, used when a
	// command is not given one explicitly.
	PipelinePath string `mapstructure:"pipeline_path"`

	// Shell is the shell binary used for host and in-container step
	// execution ("sh -c <script>").
	Shell string `mapstructure:"shell"`

	// DockerBinary is the docker client used for steps carrying a docker
	// plugin reference.
	DockerBinary string `mapstructure:"docker_binary"`

	// DefaultTimeoutMinutes bounds steps that set no timeout_in_minutes
	// of their own. Zero disables the default bound.
	DefaultTimeoutMinutes int `mapstructure:"default_timeout_minutes"`

	// BuildDir is the build record root. The STEPLINE_BUILD_DIR
	// environment variable overrides it.
	BuildDir string `mapstructure:"build_dir"`

	// Artifacts configures the artifact store used for artifact_paths
	// uploads and the push-logs command.
	Artifacts ArtifactConfig `mapstructure:"artifacts"`

	// Output configures terminal output rendering.
	Output OutputConfig `mapstructure:"output"`

	// Server configures the status HTTP server.
	Server ServerConfig `mapstructure:"server"`

	// Watch configures watch mode.
	Watch WatchConfig `mapstructure:"watch"`
}

// ArtifactConfig configures the S3-compatible object store that receives
// step artifacts and pushed logs.
//
// Credentials are never stored in the config file; the config names the
// environment variables that hold them.
type ArtifactConfig struct {
	// Endpoint is the object store host:port. Empty disables uploads.
	Endpoint string `mapstructure:"endpoint"`

	// Bucket receives all uploads.
	Bucket string `mapstructure:"bucket"`

	// Region is the bucket region, if the store cares.
	Region string `mapstructure:"region"`

	// UseSSL selects https transport.
	UseSSL bool `mapstructure:"use_ssl"`

	// Slug is the pipeline slug prefixed to every object key.
	Slug string `mapstructure:"slug"`

	// AccessKeyEnv and SecretKeyEnv name the environment variables
	// holding the store credentials.
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`
}

// Enabled reports whether an artifact store is configured.
func (a ArtifactConfig) Enabled() bool {
	return a.Endpoint != "" && a.Bucket != ""
}

// OutputConfig configures the terminal printer.
type OutputConfig struct {
	// MaxLineLength caps streamed step output lines at this many bytes on
	// the console; the step's log file always keeps the full line. Zero
	// disables truncation.
	MaxLineLength int `mapstructure:"max_line_length"`
}

// ServerConfig configures the read-only status HTTP server.
type ServerConfig struct {
	// Listen is the address passed to the HTTP server.
	Listen string `mapstructure:"listen"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// DebounceMillis is the quiet window after a filesystem event before
	// a rerun starts. Events inside the window restart it.
	DebounceMillis int `mapstructure:"debounce_millis"`

	// Ignore lists path substrings excluded from watching.
	Ignore []string `mapstructure:"ignore"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PipelinePath:          ".buildkite/pipeline.yml",
		Shell:                 "sh",
		DockerBinary:          "docker",
		DefaultTimeoutMinutes: 60,
		BuildDir:              ".stepline/builds",
		Artifacts: ArtifactConfig{
			Region:       "us-east-1",
			UseSSL:       true,
			Slug:         "pipeline",
			AccessKeyEnv: "STEPLINE_ARTIFACT_ACCESS_KEY",
			SecretKeyEnv: "STEPLINE_ARTIFACT_SECRET_KEY",
		},
		Output: OutputConfig{
			MaxLineLength: 2000,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8480",
		},
		Watch: WatchConfig{
			DebounceMillis: 400,
			Ignore:         []string{".git", ".stepline"},
		},
	}
}
