package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// EnvConfigPath names the environment variable pointing at an explicit
// config file, which wins over the search path.
const EnvConfigPath = "STEPLINE_CONFIG_PATH"

// Loader handles Viper-based configuration loading.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with defaults and environment bindings
// registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STEPLINE")
	v.AutomaticEnv()

	// Named bindings for the settings people actually override from the
	// shell; the rest go through the config file.
	v.BindEnv("pipeline_path", "STEPLINE_PIPELINE")
	v.BindEnv("shell", "STEPLINE_SHELL")
	v.BindEnv("docker_binary", "STEPLINE_DOCKER")
	v.BindEnv("build_dir", "STEPLINE_BUILD_DIR")
	v.BindEnv("server.listen", "STEPLINE_LISTEN")

	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

// Load reads configuration from the highest-priority source available.
//
// Search order: STEPLINE_CONFIG_PATH, the user config directory
// (stepline/config.yaml), then ./stepline.yaml. A missing config file is
// not an error; defaults and environment variables still apply.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return l.LoadFromFile(path)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return l.LoadFromFile(path)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit file path.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// searchPaths returns the config file locations in priority order.
func searchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "stepline", "config.yaml"))
	}
	paths = append(paths, "stepline.yaml")
	return paths
}

// setDefaults registers every default so env-only overrides unmarshal
// against a complete key set.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("pipeline_path", cfg.PipelinePath)
	v.SetDefault("shell", cfg.Shell)
	v.SetDefault("docker_binary", cfg.DockerBinary)
	v.SetDefault("default_timeout_minutes", cfg.DefaultTimeoutMinutes)
	v.SetDefault("build_dir", cfg.BuildDir)
	v.SetDefault("artifacts.region", cfg.Artifacts.Region)
	v.SetDefault("artifacts.use_ssl", cfg.Artifacts.UseSSL)
	v.SetDefault("artifacts.slug", cfg.Artifacts.Slug)
	v.SetDefault("artifacts.access_key_env", cfg.Artifacts.AccessKeyEnv)
	v.SetDefault("artifacts.secret_key_env", cfg.Artifacts.SecretKeyEnv)
	v.SetDefault("output.max_line_length", cfg.Output.MaxLineLength)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("watch.debounce_millis", cfg.Watch.DebounceMillis)
	v.SetDefault("watch.ignore", cfg.Watch.Ignore)
}
