// Package storage persists timing configurations in SQLite and the small
// per-user session state in a YAML preference file.
package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"time"

	"takearest/internal/core/model"
)

const databaseFileName = "settings.db"

// Options configures Open.
type Options struct {
	// DatabasePath is the SQLite file; defaults to <Dir>/settings.db.
	DatabasePath string
	// SessionPath is the YAML session file; defaults to <Dir>/session.yaml.
	SessionPath string
	// Dir is used for whichever path above is empty.
	Dir string
	// Presets seeded by SeedSystemPresets; defaults to model.SystemPresets().
	Presets []model.Preset
	// Now stamps CreatedAt/UpdatedAt; defaults to time.Now.
	Now func() time.Time
}

// SettingsStore is safe for concurrent use: reads share a lock, writes
// are exclusive, and every multi-row change runs in one transaction.
type SettingsStore struct {
	mu      sync.RWMutex
	db      *sql.DB
	session sessionFile
	presets []model.Preset
	now     func() time.Time
}

// Open opens (creating if needed) the store described by options.
func Open(ctx context.Context, options Options) (*SettingsStore, error) {
	if options.DatabasePath == "" {
		options.DatabasePath = filepath.Join(options.Dir, databaseFileName)
	}
	if options.SessionPath == "" {
		options.SessionPath = filepath.Join(options.Dir, sessionFileName)
	}
	if options.Presets == nil {
		options.Presets = model.SystemPresets()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	database, err := openSQLite(ctx, options.DatabasePath)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	return &SettingsStore{
		db:      database,
		session: newSessionFile(options.SessionPath),
		presets: append([]model.Preset(nil), options.Presets...),
		now:     options.Now,
	}, nil
}

// Close releases the database handle.
func (store *SettingsStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return wrapErr("close", store.db.Close())
}

// SessionState returns the remembered selection and durations. A missing
// file yields an empty state.
func (store *SettingsStore) SessionState() (model.SessionState, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	state, err := store.session.load()
	return state, wrapErr("get session state", err)
}

// SetLastSelectedID remembers the configuration chosen last.
func (store *SettingsStore) SetLastSelectedID(id int64) error {
	return store.updateSession("set last selected id", func(state *model.SessionState) {
		state.LastSelectedConfigurationID = &id
	})
}

// SetLastUsedDurations remembers the effective timer durations.
func (store *SettingsStore) SetLastUsedDurations(workSeconds, restSeconds int) error {
	return store.updateSession("set last used durations", func(state *model.SessionState) {
		state.LastUsed = &model.Durations{WorkSeconds: workSeconds, RestSeconds: restSeconds}
	})
}

func (store *SettingsStore) updateSession(op string, mutate func(*model.SessionState)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	// An unreadable file is replaced rather than blocking every later write.
	state, err := store.session.load()
	if err != nil {
		state = model.SessionState{}
	}
	mutate(&state)
	return wrapErr(op, store.session.save(state))
}
