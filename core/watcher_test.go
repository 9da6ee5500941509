package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_Subscribe(t *testing.T) {
	watcher := NewWatcher[string]()

	ctx, cancel := context.WithCancel(context.Background())

	events := watcher.Subscribe(ctx, 1)
	watcher.Subscribe(context.Background(), 1)
	require.Equal(t, 2, watcher.Len())

	cancel()

	_, open := <-events
	require.False(t, open)
	require.Equal(t, 1, watcher.Len())
}

func TestWatcher_Notify(t *testing.T) {
	watcher := NewWatcher[string]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := watcher.Subscribe(ctx, 1)
	b := watcher.Subscribe(ctx, 2)

	require.Equal(t, 0, watcher.Notify("first"))
	require.Equal(t, 1, watcher.Notify("second"))

	require.Equal(t, "first", <-a)
	require.Equal(t, "first", <-b)
	require.Equal(t, "second", <-b)
	require.Len(t, a, 0)
}

func TestWatcher_Notify_AfterCancel(t *testing.T) {
	watcher := NewWatcher[int]()

	ctx, cancel := context.WithCancel(context.Background())
	events := watcher.Subscribe(ctx, 1)

	cancel()
	waitEmpty(t, watcher)

	require.Equal(t, 0, watcher.Notify(1))

	_, open := <-events
	require.False(t, open)
}

// -----------------------------------------------------------------------------
// Utility functions

func waitEmpty[T any](t *testing.T, w *Watcher[T]) {
	require.Eventually(t, func() bool {
		return w.Len() == 0
	}, time.Second, time.Millisecond)
}
