package platform

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestInterpretSignal(t *testing.T) {
	cases := []struct {
		name       string
		signal     *dbus.Signal
		wantLocked bool
		wantOK     bool
	}{
		{"freedesktop lock", &dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged", Body: []interface{}{true}}, true, true},
		{"gnome unlock", &dbus.Signal{Name: "org.gnome.ScreenSaver.ActiveChanged", Body: []interface{}{false}}, false, true},
		{"other member", &dbus.Signal{Name: "org.gnome.ScreenSaver.WakeUpScreen", Body: []interface{}{true}}, false, false},
		{"wrong body type", &dbus.Signal{Name: "org.gnome.ScreenSaver.ActiveChanged", Body: []interface{}{"yes"}}, false, false},
		{"empty body", &dbus.Signal{Name: "org.gnome.ScreenSaver.ActiveChanged"}, false, false},
		{"nil", nil, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			locked, ok := interpretSignal(tc.signal)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantLocked, locked)
		})
	}
}
