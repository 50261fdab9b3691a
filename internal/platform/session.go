package platform

import (
	"context"
	"errors"
)

// ErrSessionWatchUnsupported indicates lock notifications are not available.
var ErrSessionWatchUnsupported = errors.New("session lock notifications unsupported")

// SessionListener receives screen lock edges. *timekeeper.Engine satisfies it.
type SessionListener interface {
	OnSystemLock()
	OnSystemUnlock()
}

// SessionWatcher delivers lock/unlock edges until ctx is done.
type SessionWatcher interface {
	Watch(ctx context.Context, listener SessionListener) error
}

// NewSessionWatcher returns the watcher for the current OS.
func NewSessionWatcher() SessionWatcher {
	return newSessionWatcher()
}

// lockDispatcher forwards edges, skipping repeats of the last state.
type lockDispatcher struct {
	listener SessionListener
	known    bool
	locked   bool
}

func (dispatcher *lockDispatcher) dispatch(locked bool) {
	if dispatcher.known && dispatcher.locked == locked {
		return
	}
	dispatcher.known = true
	dispatcher.locked = locked
	if locked {
		dispatcher.listener.OnSystemLock()
		return
	}
	dispatcher.listener.OnSystemUnlock()
}
