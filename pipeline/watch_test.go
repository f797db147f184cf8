package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/cbindgen/errors"
)

func TestWatcherFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "demo.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte(header), 0o644))

	w, err := NewWatcher([]string{watched}, 20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(_ context.Context, changed []string) error {
			changes <- changed
			return errors.New("callback errors are logged, not fatal")
		})
	}()

	// Keep writing until the watcher is registered and reports the change
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var got []string
	for got == nil {
		select {
		case got = <-changes:
		case <-tick.C:
			require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
			require.NoError(t, os.WriteFile(watched, []byte(header), 0o644))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
	require.NotEmpty(t, got)
	for _, name := range got {
		assert.Equal(t, "demo.yaml", filepath.Base(name))
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcherRequiresPaths(t *testing.T) {
	_, err := NewWatcher(nil, 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	w, err := NewWatcher([]string{"a.h", "b.h"}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Len(t, w.dirs, 1)
}
