// Package config resolves runtime settings from the environment, an
// optional dotenv file in the data directory, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"takearest/internal/core/model"
	"takearest/internal/logger"

	"github.com/joho/godotenv"
)

const (
	AppName      = "TakeARest"
	envPrefix    = "TAKEAREST_"
	dotenvName   = "takearest.env"
	databaseName = "settings.db"
	sessionName  = "session.yaml"
)

// Config holds everything the hosts need to wire the app.
type Config struct {
	AppName              string
	DataDir              string
	DatabasePath         string
	SessionPath          string
	LogLevel             logger.Level
	TickInterval         time.Duration
	DefaultWorkSeconds   int
	DefaultRestSeconds   int
	RestExtensionSeconds int
	OverlayOpacity       float64
	Fullscreen           bool
	Chime                bool
	// Autostart is nil when launch at login should be left as it is.
	Autostart *bool
}

// LookupFunc reads one variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// Default returns the built-in configuration rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		AppName:              AppName,
		DataDir:              dataDir,
		DatabasePath:         filepath.Join(dataDir, databaseName),
		SessionPath:          filepath.Join(dataDir, sessionName),
		LogLevel:             logger.LevelNormal,
		TickInterval:         time.Second,
		DefaultWorkSeconds:   model.DefaultWorkSeconds,
		DefaultRestSeconds:   model.DefaultRestSeconds,
		RestExtensionSeconds: model.DefaultRestExtensionSeconds,
		OverlayOpacity:       0.85,
		Fullscreen:           true,
		Chime:                true,
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom resolves each setting from lookup, then from
// <DataDir>/takearest.env, then from Default. Invalid values keep their
// default and are reported together in the returned error.
func LoadFrom(lookup LookupFunc) (Config, error) {
	dataDir, ok := lookup(envPrefix + "DATA_DIR")
	if !ok || strings.TrimSpace(dataDir) == "" {
		dataDir = defaultDataDir()
	}
	config := Default(dataDir)

	fileValues, err := readDotenv(filepath.Join(dataDir, dotenvName))
	if err != nil {
		return config, err
	}
	source := layered{lookup: lookup, file: fileValues}

	var problems []error
	if value, ok := source.get("DB_PATH"); ok {
		config.DatabasePath = value
	}
	if value, ok := source.get("SESSION_PATH"); ok {
		config.SessionPath = value
	}
	if value, ok := source.get("LOG_LEVEL"); ok {
		level, err := logger.ParseLevel(value)
		if err != nil {
			problems = append(problems, err)
		} else {
			config.LogLevel = level
		}
	}
	if value, ok := source.get("TICK_INTERVAL"); ok {
		interval, err := time.ParseDuration(value)
		if err != nil || interval <= 0 {
			problems = append(problems, fmt.Errorf("parse %sTICK_INTERVAL %q: want a positive duration", envPrefix, value))
		} else {
			config.TickInterval = interval
		}
	}
	problems = appendPositiveInt(problems, source, "WORK_SECONDS", &config.DefaultWorkSeconds)
	problems = appendPositiveInt(problems, source, "REST_SECONDS", &config.DefaultRestSeconds)
	problems = appendPositiveInt(problems, source, "REST_EXTENSION_SECONDS", &config.RestExtensionSeconds)
	if value, ok := source.get("OVERLAY_OPACITY"); ok {
		opacity, err := strconv.ParseFloat(value, 64)
		if err != nil || opacity < 0 || opacity > 1 {
			problems = append(problems, fmt.Errorf("parse %sOVERLAY_OPACITY %q: want a number in [0,1]", envPrefix, value))
		} else {
			config.OverlayOpacity = opacity
		}
	}
	problems = appendBool(problems, source, "FULLSCREEN", &config.Fullscreen)
	problems = appendBool(problems, source, "CHIME", &config.Chime)
	if _, ok := source.get("AUTOSTART"); ok {
		var autostart bool
		before := len(problems)
		problems = appendBool(problems, source, "AUTOSTART", &autostart)
		if len(problems) == before {
			config.Autostart = &autostart
		}
	}

	return config, errors.Join(problems...)
}

type layered struct {
	lookup LookupFunc
	file   map[string]string
}

func (source layered) get(name string) (string, bool) {
	key := envPrefix + name
	if value, ok := source.lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	if value, ok := source.file[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	return "", false
}

func appendPositiveInt(problems []error, source layered, name string, target *int) []error {
	value, ok := source.get(name)
	if !ok {
		return problems
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return append(problems, fmt.Errorf("parse %s%s %q: want a positive integer", envPrefix, name, value))
	}
	*target = parsed
	return problems
}

func appendBool(problems []error, source layered, name string, target *bool) []error {
	value, ok := source.get(name)
	if !ok {
		return problems
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return append(problems, fmt.Errorf("parse %s%s %q: %w", envPrefix, name, value, err))
	}
	*target = parsed
	return problems
}

func readDotenv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dotenv %s: %w", path, err)
	}
	return values, nil
}

func defaultDataDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, AppName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "."+strings.ToLower(AppName))
	}
	return "."
}
