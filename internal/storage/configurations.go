package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"takearest/internal/core/model"

	"github.com/mattn/go-sqlite3"
)

const configurationColumns = `id, name, work_seconds, rest_seconds, is_system_preset, created_at, updated_at`

// SaveRequest describes an insert (ID nil or unknown) or an in-place update.
type SaveRequest struct {
	ID             *int64
	Name           string
	WorkSeconds    int
	RestSeconds    int
	IsSystemPreset bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SeedSystemPresets inserts the built-in presets unless any system preset
// already exists. Safe to call on every start.
func (store *SettingsStore) SeedSystemPresets(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	err := store.inTx(ctx, func(tx *sql.Tx) error {
		return store.seed(ctx, tx)
	})
	return wrapErr("seed system presets", err)
}

// ListAll returns every configuration, ordered by id.
func (store *SettingsStore) ListAll(ctx context.Context) ([]model.TimingConfiguration, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rows, err := store.db.QueryContext(ctx, `SELECT `+configurationColumns+` FROM configurations ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list configurations", err)
	}
	defer rows.Close()

	var configs []model.TimingConfiguration
	for rows.Next() {
		config, err := scanConfiguration(rows)
		if err != nil {
			return nil, wrapErr("list configurations", err)
		}
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list configurations", err)
	}
	return configs, nil
}

// GetMostRecentlyUpdated returns the configuration saved last.
func (store *SettingsStore) GetMostRecentlyUpdated(ctx context.Context) (model.TimingConfiguration, bool, error) {
	return store.getOne(ctx, "get most recently updated",
		`SELECT `+configurationColumns+` FROM configurations ORDER BY updated_at DESC, id DESC LIMIT 1`)
}

// GetByName looks up a configuration by exact, case-sensitive name.
func (store *SettingsStore) GetByName(ctx context.Context, name string) (model.TimingConfiguration, bool, error) {
	return store.getOne(ctx, "get configuration by name",
		`SELECT `+configurationColumns+` FROM configurations WHERE name = ?`, name)
}

// GetByID looks up a configuration by id.
func (store *SettingsStore) GetByID(ctx context.Context, id int64) (model.TimingConfiguration, bool, error) {
	return store.getOne(ctx, "get configuration by id",
		`SELECT `+configurationColumns+` FROM configurations WHERE id = ?`, id)
}

// Save updates the row named by request.ID in place, or inserts a new row
// when the id is nil or unknown. A new row whose name is taken fails with
// a *DuplicateNameError and leaves the store untouched.
func (store *SettingsStore) Save(ctx context.Context, request SaveRequest) (int64, error) {
	if strings.TrimSpace(request.Name) == "" {
		return 0, fmt.Errorf("%w: name is empty", ErrInvalidConfiguration)
	}
	if request.WorkSeconds <= 0 || request.RestSeconds <= 0 {
		return 0, fmt.Errorf("%w: durations must be positive", ErrInvalidConfiguration)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	var savedID int64
	err := store.inTx(ctx, func(tx *sql.Tx) error {
		now := store.now().UTC().UnixNano()

		if request.ID != nil {
			result, err := tx.ExecContext(ctx,
				`UPDATE configurations
				 SET name = ?, work_seconds = ?, rest_seconds = ?, is_system_preset = ?, updated_at = ?
				 WHERE id = ?`,
				request.Name, request.WorkSeconds, request.RestSeconds, request.IsSystemPreset, now, *request.ID,
			)
			if err != nil {
				return translateConstraint(err, request.Name)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("read affected rows: %w", err)
			}
			if affected == 1 {
				savedID = *request.ID
				return nil
			}
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM configurations WHERE name = ?`, request.Name,
		).Scan(&count); err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if count > 0 {
			return &DuplicateNameError{Name: request.Name}
		}

		id, err := insertConfiguration(ctx, tx, request, now)
		if err != nil {
			return translateConstraint(err, request.Name)
		}
		savedID = id
		return nil
	})
	if err != nil {
		return 0, wrapErr("save configuration", err)
	}
	return savedID, nil
}

// ResetAll deletes every configuration, seeds the system presets again and
// clears the session state so no id is left dangling.
func (store *SettingsStore) ResetAll(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	err := store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM configurations`); err != nil {
			return fmt.Errorf("delete configurations: %w", err)
		}
		return store.seed(ctx, tx)
	})
	if err != nil {
		return wrapErr("reset", err)
	}
	return wrapErr("reset", store.session.clear())
}

func (store *SettingsStore) seed(ctx context.Context, tx *sql.Tx) error {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM configurations WHERE is_system_preset = 1`,
	).Scan(&count); err != nil {
		return fmt.Errorf("count system presets: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := store.now().UTC().UnixNano()
	for _, preset := range store.presets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO configurations (name, work_seconds, rest_seconds, is_system_preset, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			preset.Name, preset.WorkSeconds, preset.RestSeconds, now, now,
		); err != nil {
			return fmt.Errorf("insert preset %s: %w", preset.Name, err)
		}
	}
	return nil
}

func (store *SettingsStore) getOne(ctx context.Context, op, query string, args ...any) (model.TimingConfiguration, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	config, err := scanConfiguration(store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimingConfiguration{}, false, nil
	}
	if err != nil {
		return model.TimingConfiguration{}, false, wrapErr(op, err)
	}
	return config, true, nil
}

func (store *SettingsStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertConfiguration(ctx context.Context, tx *sql.Tx, request SaveRequest, now int64) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO configurations (name, work_seconds, rest_seconds, is_system_preset, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		request.Name, request.WorkSeconds, request.RestSeconds, request.IsSystemPreset, now, now,
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

func scanConfiguration(row rowScanner) (model.TimingConfiguration, error) {
	var (
		config    model.TimingConfiguration
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&config.ID,
		&config.Name,
		&config.WorkSeconds,
		&config.RestSeconds,
		&config.IsSystemPreset,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.TimingConfiguration{}, err
	}
	config.CreatedAt = time.Unix(0, createdAt).UTC()
	config.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return config, nil
}

func translateConstraint(err error, name string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &DuplicateNameError{Name: name}
	}
	return err
}
