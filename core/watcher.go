// Package core implements the tools shared by the components of the ledger.
package core

import (
	"context"
	"sync"
)

// Watcher fans the events out to the channels of its subscribers. A
// subscriber that does not keep up misses the events sent while its channel
// is full; the publisher is never blocked.
type Watcher[T any] struct {
	sync.Mutex

	subs map[chan T]struct{}
}

// NewWatcher returns a watcher without subscribers.
func NewWatcher[T any]() *Watcher[T] {
	return &Watcher[T]{
		subs: make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel buffering up to size events. It is closed once
// the context is done, after which no event is sent to it.
func (w *Watcher[T]) Subscribe(ctx context.Context, size int) <-chan T {
	ch := make(chan T, size)

	w.Lock()
	w.subs[ch] = struct{}{}
	w.Unlock()

	go func() {
		<-ctx.Done()

		w.Lock()
		delete(w.subs, ch)
		close(ch)
		w.Unlock()
	}()

	return ch
}

// Len returns the number of subscribers.
func (w *Watcher[T]) Len() int {
	w.Lock()
	defer w.Unlock()

	return len(w.subs)
}

// Notify sends the event to every subscriber and returns how many of them
// missed it.
func (w *Watcher[T]) Notify(event T) int {
	w.Lock()
	defer w.Unlock()

	dropped := 0
	for ch := range w.subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}

	return dropped
}
