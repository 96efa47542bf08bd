package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	projects := filepath.Join(dir, "projects.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(projects, []byte("[]"), 0o600))

	var reloads atomic.Int32
	w := New([]string{projects}, 20*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// keep writing until the watcher is registered and has fired once
	require.Eventually(t, func() bool {
		_ = os.WriteFile(projects, []byte(`[{"id":"a"}]`), 0o600)
		return reloads.Load() > 0
	}, 5*time.Second, 100*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	reloads.Store(0)
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, reloads.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	projects := filepath.Join(dir, "projects.json")
	require.NoError(t, os.WriteFile(projects, []byte("[]"), 0o600))

	var reloads atomic.Int32
	w := New([]string{projects}, 200*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(projects, []byte("[]"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	cancel()
	<-done
}

func TestWatcherMissingDir(t *testing.T) {
	w := New([]string{"/nonexistent/dir/projects.json"}, 0, func(context.Context) error { return nil }, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)
	err := w.Run(context.Background())
	assert.Error(t, err)
}
