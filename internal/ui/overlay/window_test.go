package overlay

import (
	"testing"

	"takearest/internal/core/timekeeper"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestOpacityToAlpha(t *testing.T) {
	assert.Equal(t, uint8(0), OpacityToAlpha(-1))
	assert.Equal(t, uint8(0), OpacityToAlpha(0))
	assert.Equal(t, uint8(216), OpacityToAlpha(0.85))
	assert.Equal(t, uint8(255), OpacityToAlpha(1))
	assert.Equal(t, uint8(255), OpacityToAlpha(3))
}

func TestExtendLabel(t *testing.T) {
	assert.Equal(t, "+5 min", extendLabel(300))
	assert.Equal(t, "+90s", extendLabel(90))
}

func TestSyncFollowsOverlayFlag(t *testing.T) {
	app := test.NewTempApp(t)
	window := New(app, Config{Opacity: 200, Message: "Stretch"}, 300, Actions{})

	window.Sync(timekeeper.Snapshot{Mode: timekeeper.ModeResting, Remaining: 299, RestOverlayVisible: true})
	assert.True(t, window.Visible())
	assert.Equal(t, "04:59", window.timerLabel.Text)

	window.Sync(timekeeper.Snapshot{Mode: timekeeper.ModeResting, Remaining: 298, RestOverlayVisible: true})
	assert.Equal(t, "04:58", window.timerLabel.Text)

	window.Sync(timekeeper.Snapshot{Mode: timekeeper.ModeResting, Remaining: 297})
	assert.False(t, window.Visible())
}

func TestExtendButtonCallsAction(t *testing.T) {
	app := test.NewTempApp(t)
	var calls []string
	window := New(app, Config{}, 300, Actions{
		OnExtend:     func() { calls = append(calls, "extend") },
		OnEndRest:    func() { calls = append(calls, "end") },
		OnLockScreen: func() { calls = append(calls, "lock") },
		OnHide:       func() { calls = append(calls, "hide") },
	})

	test.Tap(window.extendButton)
	test.Tap(window.extendButton)

	assert.Equal(t, []string{"extend", "extend"}, calls)
}

func TestUpdateConfigChangesBackground(t *testing.T) {
	app := test.NewTempApp(t)
	window := New(app, Config{Opacity: 10}, 300, Actions{})

	window.UpdateConfig(Config{Opacity: 120, Message: "Look away"})

	assert.Equal(t, "Look away", window.messageLabel.Text)
	_, _, _, alpha := window.background.FillColor.RGBA()
	assert.Equal(t, uint32(120)*0x101, alpha)
}
