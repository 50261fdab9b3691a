package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var screenSaverInterfaces = []string{
	"org.freedesktop.ScreenSaver",
	"org.gnome.ScreenSaver",
}

type dbusSessionWatcher struct {
	connect func() (*dbus.Conn, error)
}

func newSessionWatcher() SessionWatcher {
	return &dbusSessionWatcher{connect: func() (*dbus.Conn, error) {
		return dbus.ConnectSessionBus()
	}}
}

func (watcher *dbusSessionWatcher) Watch(ctx context.Context, listener SessionListener) error {
	conn, err := watcher.connect()
	if err != nil {
		return fmt.Errorf("%w: connect session bus: %v", ErrSessionWatchUnsupported, err)
	}
	defer conn.Close()

	for _, iface := range screenSaverInterfaces {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember("ActiveChanged"),
		); err != nil {
			return fmt.Errorf("match %s signals: %w", iface, err)
		}
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	dispatcher := &lockDispatcher{listener: listener}
	for {
		select {
		case <-ctx.Done():
			return nil
		case signal, ok := <-signals:
			if !ok {
				return errors.New("session bus closed")
			}
			if locked, ok := interpretSignal(signal); ok {
				dispatcher.dispatch(locked)
			}
		}
	}
}

// interpretSignal decodes an ActiveChanged(bool) signal from any known
// screensaver interface.
func interpretSignal(signal *dbus.Signal) (locked bool, ok bool) {
	if signal == nil || len(signal.Body) != 1 {
		return false, false
	}
	known := false
	for _, iface := range screenSaverInterfaces {
		if signal.Name == iface+".ActiveChanged" {
			known = true
			break
		}
	}
	if !known {
		return false, false
	}
	active, ok := signal.Body[0].(bool)
	return active, ok
}
