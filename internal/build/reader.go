package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoBuilds is a sentinel error indicating the build root holds no
// recorded builds yet. Callers should report this as an empty state
// rather than a failure.
var ErrNoBuilds = errors.New("no recorded builds")

// Reader loads build records from the build root.
type Reader struct {
	root string
}

// NewReader creates a [Reader] rooted at ResolveRoot(root).
func NewReader(root string) *Reader {
	return &Reader{root: ResolveRoot(root)}
}

// Root returns the resolved build root directory.
func (r *Reader) Root() string {
	return r.root
}

// ValidID reports whether id is usable as a build directory name. IDs
// containing path separators or dot segments cannot address anything
// inside the build root.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// Load reads the record for a build ID.
func (r *Reader) Load(buildID string) (*Build, error) {
	if !ValidID(buildID) {
		return nil, fmt.Errorf("invalid build id %q", buildID)
	}
	data, err := os.ReadFile(filepath.Join(r.root, buildID, recordFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read build %s: %w", buildID, err)
	}

	var b Build
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to read build %s: %w", buildID, err)
	}
	return &b, nil
}

// LoadLatest reads the record named by the latest pointer.
//
// Returns [ErrNoBuilds] when no build has been recorded yet.
func (r *Reader) LoadLatest() (*Build, error) {
	data, err := os.ReadFile(filepath.Join(r.root, latestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBuilds
		}
		return nil, fmt.Errorf("failed to read latest pointer: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, ErrNoBuilds
	}
	return r.Load(id)
}

// List loads up to limit recent builds, newest first. A limit of zero or
// less means no bound.
func (r *Reader) List(limit int) ([]*Build, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}

	var builds []*Build
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, err := r.Load(entry.Name())
		if err != nil {
			// A half-written or foreign directory; skip it.
			continue
		}
		builds = append(builds, b)
	}

	sort.Slice(builds, func(i, j int) bool {
		return builds[i].StartedAt.After(builds[j].StartedAt)
	})

	if limit > 0 && len(builds) > limit {
		builds = builds[:limit]
	}
	return builds, nil
}

// StepLogPath returns the absolute path of a step's log file within a
// build directory.
func (r *Reader) StepLogPath(b *Build, index int) (string, error) {
	for _, s := range b.Steps {
		if s.Index == index {
			if s.LogPath == "" {
				return "", fmt.Errorf("step %d has no log", index)
			}
			return filepath.Join(r.root, b.ID, s.LogPath), nil
		}
	}
	return "", fmt.Errorf("step %d not found in build %s", index, b.ID)
}
