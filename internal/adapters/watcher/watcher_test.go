package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/watcher"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const eventTimeout = 2 * time.Second

func startWatcher(t *testing.T, root string, skip ...string) *watcher.Watcher {
	t.Helper()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w := watcher.NewWatcher(log)
	require.NoError(t, w.Start(t.Context(), root, skip))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func nextEvent(t *testing.T, w *watcher.Watcher) ports.WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for event")
		return ports.WatchEvent{}
	}
}

func TestWatcher_CreateAndRemove(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o750))
	w := startWatcher(t, root)

	file := filepath.Join(root, "app", "index.html")
	require.NoError(t, os.WriteFile(file, []byte("<html></html>"), 0o600))

	ev := nextEvent(t, w)
	assert.Equal(t, file, ev.Path)
	assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)

	require.NoError(t, os.Remove(file))
	ev = nextEvent(t, w)
	for !ev.Operation.Deleted() {
		ev = nextEvent(t, w)
	}
	assert.Equal(t, file, ev.Path)
	assert.Equal(t, ports.OpRemove, ev.Operation)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	dir := filepath.Join(root, "images")
	require.NoError(t, os.Mkdir(dir, 0o750))
	ev := nextEvent(t, w)
	require.Equal(t, dir, ev.Path)

	file := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o600))
	ev = nextEvent(t, w)
	assert.Equal(t, file, ev.Path)
}

func TestWatcher_SkipsOutputAndVendorDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"dist", "node_modules", "app"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o750))
	}
	w := startWatcher(t, root, "dist")

	require.NoError(t, os.WriteFile(filepath.Join(root, "dist", "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0o600))
	marker := filepath.Join(root, "app", "main.js")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o600))

	ev := nextEvent(t, w)
	assert.Equal(t, marker, ev.Path)
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := watcher.NewWatcher(nil)
	require.NoError(t, w.Stop())
}

func TestWatcher_StartTwice(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)
	require.Error(t, w.Start(t.Context(), root, nil))
}
