package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"takearest/internal/core/model"
	"takearest/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadFromDefaults(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFrom(envMap(map[string]string{"TAKEAREST_DATA_DIR": dir}))
	require.NoError(t, err)

	assert.Equal(t, AppName, config.AppName)
	assert.Equal(t, dir, config.DataDir)
	assert.Equal(t, filepath.Join(dir, "settings.db"), config.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "session.yaml"), config.SessionPath)
	assert.Equal(t, logger.LevelNormal, config.LogLevel)
	assert.Equal(t, time.Second, config.TickInterval)
	assert.Equal(t, model.DefaultWorkSeconds, config.DefaultWorkSeconds)
	assert.Equal(t, model.DefaultRestSeconds, config.DefaultRestSeconds)
	assert.Equal(t, model.DefaultRestExtensionSeconds, config.RestExtensionSeconds)
	assert.True(t, config.Fullscreen)
	assert.True(t, config.Chime)
	assert.Nil(t, config.Autostart)
}

func TestEnvironmentOverridesDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := "TAKEAREST_WORK_SECONDS=1500\nTAKEAREST_REST_SECONDS=240\nTAKEAREST_LOG_LEVEL=verbose\nTAKEAREST_CHIME=false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "takearest.env"), []byte(dotenv), 0o600))

	config, err := LoadFrom(envMap(map[string]string{
		"TAKEAREST_DATA_DIR":      dir,
		"TAKEAREST_WORK_SECONDS":  "600",
		"TAKEAREST_TICK_INTERVAL": "250ms",
		"TAKEAREST_DB_PATH":       "/tmp/elsewhere.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, 600, config.DefaultWorkSeconds)
	assert.Equal(t, 240, config.DefaultRestSeconds)
	assert.Equal(t, logger.LevelVerbose, config.LogLevel)
	assert.False(t, config.Chime)
	assert.Equal(t, 250*time.Millisecond, config.TickInterval)
	assert.Equal(t, "/tmp/elsewhere.db", config.DatabasePath)
}

func TestInvalidValuesKeepDefaults(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFrom(envMap(map[string]string{
		"TAKEAREST_DATA_DIR":        dir,
		"TAKEAREST_REST_SECONDS":    "-1",
		"TAKEAREST_OVERLAY_OPACITY": "2",
		"TAKEAREST_FULLSCREEN":      "maybe",
		"TAKEAREST_LOG_LEVEL":       "loud",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAKEAREST_REST_SECONDS")
	assert.Contains(t, err.Error(), "TAKEAREST_OVERLAY_OPACITY")
	assert.Contains(t, err.Error(), "TAKEAREST_FULLSCREEN")

	assert.Equal(t, model.DefaultRestSeconds, config.DefaultRestSeconds)
	assert.InDelta(t, 0.85, config.OverlayOpacity, 1e-9)
	assert.True(t, config.Fullscreen)
	assert.Equal(t, logger.LevelNormal, config.LogLevel)
}

func TestAutostartIsTriState(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFrom(envMap(map[string]string{"TAKEAREST_DATA_DIR": dir, "TAKEAREST_AUTOSTART": "true"}))
	require.NoError(t, err)
	require.NotNil(t, config.Autostart)
	assert.True(t, *config.Autostart)

	config, err = LoadFrom(envMap(map[string]string{"TAKEAREST_DATA_DIR": dir, "TAKEAREST_AUTOSTART": "0"}))
	require.NoError(t, err)
	require.NotNil(t, config.Autostart)
	assert.False(t, *config.Autostart)

	config, err = LoadFrom(envMap(map[string]string{"TAKEAREST_DATA_DIR": dir, "TAKEAREST_AUTOSTART": "sometimes"}))
	assert.ErrorContains(t, err, "TAKEAREST_AUTOSTART")
	assert.Nil(t, config.Autostart)
}

func TestBlankValuesAreIgnored(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFrom(envMap(map[string]string{
		"TAKEAREST_DATA_DIR":     dir,
		"TAKEAREST_WORK_SECONDS": "  ",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWorkSeconds, config.DefaultWorkSeconds)
}

func TestDefaultDataDirIsNamedAfterApp(t *testing.T) {
	config, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Skipf("dotenv in the real data dir is unreadable: %v", err)
	}
	assert.Contains(t, strings.ToLower(config.DataDir), "takearest")
}
