package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run.pypeit")
	other := filepath.Join(dir, "other.pypeit")
	require.NoError(t, os.WriteFile(target, []byte("[rdx]\n"), 0644))

	changed := make(chan string, 4)
	var calls atomic.Int32
	w, err := New([]string{target}, func(path string) {
		calls.Add(1)
		changed <- path
	})
	require.NoError(t, err)
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	// several quick writes collapse into one notification
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("[rdx]\n spectrograph = x\n"), 0644))
	}

	select {
	case got := <-changed:
		require.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for change notification")
	}

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watcher did not stop after cancel")
	}
}

func TestWatcherKeepsGivenPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("run.pypeit", []byte("[rdx]\n"), 0644))

	changed := make(chan string, 4)
	w, err := New([]string{"run.pypeit"}, func(path string) { changed <- path })
	require.NoError(t, err)
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.Remove("run.pypeit"))

	select {
	case got := <-changed:
		require.Equal(t, "run.pypeit", got)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for removal notification")
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	_, err := New([]string{"/nonexistent/dir/run.pypeit"}, func(string) {})
	require.Error(t, err)
}
