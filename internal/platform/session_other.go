//go:build !linux

package platform

import "context"

type unsupportedSessionWatcher struct{}

func newSessionWatcher() SessionWatcher {
	return unsupportedSessionWatcher{}
}

func (unsupportedSessionWatcher) Watch(context.Context, SessionListener) error {
	return ErrSessionWatchUnsupported
}
