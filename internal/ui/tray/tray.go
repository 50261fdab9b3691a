// Package tray mirrors the timer in the system tray menu.
package tray

import (
	"fmt"

	"takearest/internal/core/bus"
	"takearest/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const menuTitle = "TakeARest"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpen       func()
	OnSwitchMode func()
	OnReset      func()
	OnQuit       func()
}

// Manager handles system tray state. The pause item does not call the timer
// directly: it publishes a toggle request on the bus and relabels itself
// from the pause broadcast.
type Manager struct {
	app         desktop.App
	messages    *bus.Bus
	menu        *fyne.Menu
	statusItem  *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	switchItem  *fyne.MenuItem
	callbacks   Callbacks
	paused      bool
	mode        timekeeper.Mode
	statusLabel string
	dispatch    func(func())
	unsubscribe func()
}

// New creates a tray manager. app may be nil when no tray is available.
func New(app desktop.App, messages *bus.Bus, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		messages:  messages,
		callbacks: callbacks,
		mode:      timekeeper.ModeWorking,
		dispatch:  fyne.Do,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true

	open := fyne.NewMenuItem("Open TakeARest", func() { call(manager.callbacks.OnOpen) })

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		bus.RequestTogglePause(manager.messages)
	})

	manager.switchItem = fyne.NewMenuItem(switchLabel(manager.mode), func() { call(manager.callbacks.OnSwitchMode) })

	reset := fyne.NewMenuItem("Reset timer", func() { call(manager.callbacks.OnReset) })
	quit := fyne.NewMenuItem("Quit", func() { call(manager.callbacks.OnQuit) })
	quit.IsQuit = true

	manager.menu = fyne.NewMenu(menuTitle,
		manager.statusItem,
		open,
		fyne.NewMenuItemSeparator(),
		manager.pauseItem,
		manager.switchItem,
		reset,
		fyne.NewMenuItemSeparator(),
		quit,
	)

	if messages != nil {
		manager.unsubscribe = bus.On(messages, bus.TopicPauseState, func(state bus.PauseState) {
			manager.dispatch(func() { manager.SetPaused(state.IsPaused) })
		})
	}
	manager.refreshMenu()
	return manager
}

// Close stops listening to the pause broadcast.
func (manager *Manager) Close() {
	if manager.unsubscribe != nil {
		manager.unsubscribe()
	}
}

// SetSnapshot updates the status line and the mode switch label.
func (manager *Manager) SetSnapshot(snapshot timekeeper.Snapshot) {
	status := statusText(snapshot)
	if status == manager.statusLabel && snapshot.Mode == manager.mode {
		return
	}
	manager.statusLabel = status
	manager.mode = snapshot.Mode
	manager.switchItem.Label = switchLabel(snapshot.Mode)
	manager.refreshStatus()
}

// SetPaused updates pause state.
func (manager *Manager) SetPaused(paused bool) {
	manager.paused = paused
	if paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.refreshStatus()
}

// Paused reports the last mirrored pause state.
func (manager *Manager) Paused() bool {
	return manager.paused
}

func (manager *Manager) refreshStatus() {
	status := manager.statusLabel
	if status == "" {
		status = "starting..."
	}
	if manager.paused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu)
	}
}

// statusText shows minutes only so the menu is rebuilt once a minute.
func statusText(snapshot timekeeper.Snapshot) string {
	minutes := (snapshot.Remaining + 59) / 60
	if snapshot.Mode == timekeeper.ModeResting {
		return fmt.Sprintf("resting, %d min left", minutes)
	}
	return fmt.Sprintf("rest in %d min", minutes)
}

func switchLabel(mode timekeeper.Mode) string {
	if mode == timekeeper.ModeResting {
		return "End rest early"
	}
	return "Rest now"
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
