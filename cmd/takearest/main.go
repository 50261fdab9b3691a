package main

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"

	"takearest/internal/config"
	"takearest/internal/core/bus"
	"takearest/internal/core/timekeeper"
	"takearest/internal/logger"
	"takearest/internal/platform"
	"takearest/internal/storage"
	"takearest/internal/ui/overlay"
	"takearest/internal/ui/preferences"
	"takearest/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

const (
	appID          = "com.takearest.app"
	overlayMessage = "Stand up, stretch and look at something far away."
)

func main() {
	cfg, cfgErr := config.Load()
	appLog := logger.New(cfg.LogLevel, os.Stderr)
	if cfgErr != nil {
		appLog.Warn("config: %v", cfgErr)
	}

	var activate func()
	var activateMu sync.Mutex
	guard, err := platform.AcquireSingleInstance(cfg.AppName, func() {
		activateMu.Lock()
		show := activate
		activateMu.Unlock()
		if show != nil {
			fyne.Do(show)
		}
	})
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			appLog.Info("already running, asked the other instance to show itself")
			return
		}
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{DatabasePath: cfg.DatabasePath, SessionPath: cfg.SessionPath})
	if err != nil {
		appLog.Error("settings storage unavailable, running on defaults: %v", err)
		store = nil
	} else if err := store.SeedSystemPresets(ctx); err != nil {
		appLog.Warn("seed presets: %v", err)
	}

	messages := bus.New()
	var engineStore timekeeper.Store
	var catalog preferences.Catalog
	if store != nil {
		engineStore = store
		catalog = store
	}
	engine := timekeeper.New(engineStore, timekeeper.Config{
		DefaultWorkSeconds:   cfg.DefaultWorkSeconds,
		DefaultRestSeconds:   cfg.DefaultRestSeconds,
		RestExtensionSeconds: cfg.RestExtensionSeconds,
		TickInterval:         cfg.TickInterval,
		Bus:                  messages,
		Logger:               appLog,
	})

	var chime *platform.Chime
	if cfg.Chime {
		if chime, err = platform.NewChime(appLog); err != nil {
			appLog.Warn("chime disabled: %v", err)
			chime = nil
		}
	}
	locker := platform.NewScreenLocker(appLog)

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(theme.HistoryIcon())

	overlayWindow := overlay.New(fyneApp, overlay.Config{
		Opacity:    overlay.OpacityToAlpha(cfg.OverlayOpacity),
		Fullscreen: cfg.Fullscreen,
		Message:    overlayMessage,
	}, engine.RestExtensionSeconds(), overlay.Actions{
		OnExtend:     func() { engine.ExtendRest(engine.RestExtensionSeconds()) },
		OnEndRest:    func() { engine.EndRest() },
		OnLockScreen: locker.LockAsync,
		OnHide:       engine.DismissRestOverlay,
	})

	controller := preferences.NewController(catalog, engine, appLog)
	mainWindow := preferences.New(fyneApp, cfg.AppName, controller, preferences.Actions{
		OnTogglePause: func() { bus.RequestTogglePause(messages) },
		OnReset:       engine.ResetTimer,
		OnSwitchMode:  engine.SwitchMode,
	})

	activateMu.Lock()
	activate = mainWindow.Show
	activateMu.Unlock()

	unsubscribeIcon := func() {}
	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			cancel()
			unsubscribeIcon()
			engine.Close()
			if store != nil {
				if err := store.Close(); err != nil {
					appLog.Warn("close storage: %v", err)
				}
			}
		})
	}
	defer shutdown()

	desktopApp, _ := fyneApp.(desktop.App)
	if desktopApp == nil {
		appLog.Warn("system tray unsupported on this platform")
	}
	trayManager := tray.New(desktopApp, messages, tray.Callbacks{
		OnOpen:       mainWindow.Show,
		OnSwitchMode: engine.SwitchMode,
		OnReset:      engine.ResetTimer,
		OnQuit: func() {
			shutdown()
			fyneApp.Quit()
		},
	})
	defer trayManager.Close()

	if desktopApp != nil {
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
		unsubscribeIcon = bus.On(messages, bus.TopicPauseState, func(state bus.PauseState) {
			icon := theme.HistoryIcon()
			if state.IsPaused {
				icon = theme.MediaPauseIcon()
			}
			fyne.Do(func() { desktopApp.SetSystemTrayIcon(icon) })
		})
	}

	events := engine.Subscribe(16)
	go func() {
		lastMode := engine.Snapshot().Mode
		for event := range events {
			snapshot := event.Snapshot
			if event.Type == timekeeper.EventStateChange && snapshot.Mode != lastMode {
				if snapshot.Mode == timekeeper.ModeResting && chime != nil {
					chime.PlayAsync()
				}
				lastMode = snapshot.Mode
			}
			fyne.Do(func() {
				overlayWindow.Sync(snapshot)
				mainWindow.Update(snapshot)
				trayManager.SetSnapshot(snapshot)
			})
		}
	}()

	go func() {
		watcher := platform.NewSessionWatcher()
		if err := watcher.Watch(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
			if errors.Is(err, platform.ErrSessionWatchUnsupported) {
				appLog.Debug("screen lock tracking: %v", err)
				return
			}
			appLog.Warn("screen lock tracking stopped: %v", err)
		}
	}()

	if cfg.Autostart != nil {
		syncLoginItem(ctx, cfg.AppName, *cfg.Autostart, appLog)
	}

	var startOnce sync.Once
	fyneApp.Lifecycle().SetOnStarted(func() {
		startOnce.Do(func() {
			go engine.LoadUserSettings(ctx)
		})
	})

	mainWindow.Show()
	fyneApp.Run()
}

func syncLoginItem(ctx context.Context, appName string, enabled bool, appLog *logger.Logger) {
	execPath, err := os.Executable()
	if err != nil {
		appLog.Warn("launch at login: %v", err)
		return
	}
	item, err := platform.NewLoginItem(appName, execPath)
	if err == nil {
		err = item.Sync(ctx, enabled)
	}
	if err != nil {
		appLog.Warn("launch at login: %v", err)
		return
	}
	appLog.Debug("launch at login set to %t", enabled)
}
