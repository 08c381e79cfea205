package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// logsDir is the per-build log subdirectory.
const logsDir = "logs"

// LogStore creates per-step log files inside a build directory.
type LogStore struct {
	buildDir string
}

// NewLogStore creates a [LogStore] for the given build directory.
func NewLogStore(buildDir string) *LogStore {
	return &LogStore{buildDir: buildDir}
}

// StepLogName returns the relative log path recorded in [StepResult.LogPath].
func StepLogName(index int) string {
	return filepath.Join(logsDir, fmt.Sprintf("step-%02d.log", index))
}

// Create opens the log file for a step, creating the logs directory on
// first use. The returned relative path is suitable for [StepResult.LogPath].
//
// The file is opened append-only and synced to disk on close.
func (s *LogStore) Create(index int) (io.WriteCloser, string, error) {
	if err := os.MkdirAll(filepath.Join(s.buildDir, logsDir), 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}

	rel := StepLogName(index)
	f, err := os.OpenFile(filepath.Join(s.buildDir, rel), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create step log: %w", err)
	}
	return &syncOnClose{f}, rel, nil
}

// syncOnClose flushes file contents to disk before closing.
type syncOnClose struct{ *os.File }

func (f *syncOnClose) Close() error {
	syncErr := f.Sync()
	if err := f.File.Close(); err != nil {
		return err
	}
	return syncErr
}
