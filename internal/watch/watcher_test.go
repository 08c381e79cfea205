package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Ignored(t *testing.T) {
	w := New(time.Millisecond, []string{".git", ".stepline", ""}, nil)

	assert.True(t, w.Ignored(".git/objects/ab"))
	assert.True(t, w.Ignored("project/.stepline/builds"))
	assert.False(t, w.Ignored("src/main.go"))
}

func TestWatcher_RunsAfterChange(t *testing.T) {
	dir := t.TempDir()

	ran := make(chan struct{}, 1)
	w := New(30*time.Millisecond, nil, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, dir)
	}()

	// Give the watcher a moment to register before touching the tree.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.go"), []byte("package x\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("run callback never fired after a change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestWatcher_IgnoredChangeDoesNotRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "kept"), 0o755))

	ran := make(chan struct{}, 8)
	w := New(20*time.Millisecond, []string{"ignored.txt"}, func(ctx context.Context) {
		ran <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Watch(ctx, dir)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case <-ran:
		t.Fatal("run callback fired for an ignored path")
	case <-time.After(300 * time.Millisecond):
	}
}
