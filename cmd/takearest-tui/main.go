package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"takearest/internal/config"
	"takearest/internal/core/bus"
	"takearest/internal/core/timekeeper"
	"takearest/internal/logger"
	"takearest/internal/platform"
	"takearest/internal/storage"
	"takearest/internal/ui/preferences"
	"takearest/internal/ui/tui"

	tea "github.com/charmbracelet/bubbletea"
)

const logFileName = "takearest-tui.log"

func main() {
	workMinutes := flag.Int("work", 0, "work minutes for this run (0 keeps the remembered value)")
	restMinutes := flag.Int("rest", 0, "rest minutes for this run (0 keeps the remembered value)")
	altScreen := flag.Bool("alt-screen", true, "use the terminal's alternate screen")
	flag.Parse()

	if err := run(*workMinutes, *restMinutes, *altScreen); err != nil {
		fmt.Fprintf(os.Stderr, "takearest: %v\n", err)
		os.Exit(1)
	}
}

func run(workMinutes, restMinutes int, altScreen bool) error {
	cfg, cfgErr := config.Load()

	// The terminal belongs to the UI, so logs go to a file.
	var logOut io.Writer = io.Discard
	if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
		file, err := os.OpenFile(filepath.Join(cfg.DataDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			defer file.Close()
			logOut = file
		}
	}
	appLog := logger.New(cfg.LogLevel, logOut)
	if cfgErr != nil {
		appLog.Warn("config: %v", cfgErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var engineStore timekeeper.Store
	var catalog preferences.Catalog
	store, err := storage.Open(ctx, storage.Options{DatabasePath: cfg.DatabasePath, SessionPath: cfg.SessionPath})
	if err != nil {
		appLog.Error("settings storage unavailable, running on defaults: %v", err)
	} else {
		defer store.Close()
		if err := store.SeedSystemPresets(ctx); err != nil {
			appLog.Warn("seed presets: %v", err)
		}
		engineStore = store
		catalog = store
	}

	engine := timekeeper.New(engineStore, timekeeper.Config{
		DefaultWorkSeconds:   cfg.DefaultWorkSeconds,
		DefaultRestSeconds:   cfg.DefaultRestSeconds,
		RestExtensionSeconds: cfg.RestExtensionSeconds,
		TickInterval:         cfg.TickInterval,
		Bus:                  bus.New(),
		Logger:               appLog,
	})
	defer engine.Close()

	events := engine.Subscribe(16)
	engine.LoadUserSettings(ctx)

	controller := preferences.NewController(catalog, engine, appLog)
	if workMinutes > 0 || restMinutes > 0 {
		snapshot := engine.Snapshot()
		work, rest := snapshot.WorkSeconds, snapshot.RestSeconds
		if workMinutes > 0 {
			work = workMinutes * 60
		}
		if restMinutes > 0 {
			rest = restMinutes * 60
		}
		controller.ApplyDurations(work, rest)
	}

	go func() {
		if err := platform.NewSessionWatcher().Watch(ctx, engine); err != nil && ctx.Err() == nil {
			appLog.Debug("screen lock tracking: %v", err)
		}
	}()

	locker := platform.NewScreenLocker(appLog)
	model := tui.New(tui.Options{
		Timer:   engine,
		Presets: controller,
		Events:  events,
		Lock:    locker.LockAsync,
	})

	options := []tea.ProgramOption{tea.WithContext(ctx)}
	if altScreen {
		options = append(options, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(model, options...).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
