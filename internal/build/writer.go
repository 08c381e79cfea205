package build

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRoot is the default build root, relative to the working directory.
const DefaultRoot = ".stepline/builds"

// EnvBuildDir is the environment variable that overrides the build root.
const EnvBuildDir = "STEPLINE_BUILD_DIR"

// recordFile is the per-build record filename.
const recordFile = "build.yaml"

// latestFile is the pointer file at the build root naming the most
// recent build ID.
const latestFile = "latest"

// ResolveRoot returns the build root directory.
//
// Resolution order: the STEPLINE_BUILD_DIR environment variable, then the
// explicit root parameter, then [DefaultRoot].
func ResolveRoot(root string) string {
	if env := os.Getenv(EnvBuildDir); env != "" {
		return env
	}
	if root != "" {
		return root
	}
	return DefaultRoot
}

// Writer persists build records.
//
// Records are written atomically: marshal to a temp file in the build
// directory, then rename over build.yaml.
type Writer struct {
	root string
}

// NewWriter creates a [Writer] rooted at ResolveRoot(root).
func NewWriter(root string) *Writer {
	return &Writer{root: ResolveRoot(root)}
}

// Root returns the resolved build root directory.
func (w *Writer) Root() string {
	return w.root
}

// Dir returns the directory for a build ID, creating it if needed.
func (w *Writer) Dir(buildID string) (string, error) {
	dir := filepath.Join(w.root, buildID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create build directory: %w", err)
	}
	return dir, nil
}

// Save writes the build record and updates the latest pointer.
func (w *Writer) Save(b *Build) error {
	dir, err := w.Dir(b.ID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal build record: %w", err)
	}

	fullPath := filepath.Join(dir, recordFile)
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write build record: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write build record: %w", err)
	}

	if err := os.WriteFile(filepath.Join(w.root, latestFile), []byte(b.ID+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to update latest pointer: %w", err)
	}
	return nil
}
