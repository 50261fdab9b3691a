package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"takearest/internal/core/model"

	"gopkg.in/yaml.v3"
)

const sessionFileName = "session.yaml"

type yamlSession struct {
	LastSelectedConfigurationID *int64 `yaml:"last_selected_configuration_id,omitempty"`
	LastUsedWorkSeconds         *int   `yaml:"last_used_work_seconds,omitempty"`
	LastUsedRestSeconds         *int   `yaml:"last_used_rest_seconds,omitempty"`
}

// sessionFile is the preference file holding SessionState. Writes replace
// the file atomically so a crash leaves either the old or the new content.
type sessionFile struct {
	path string
}

func newSessionFile(path string) sessionFile {
	return sessionFile{path: path}
}

func (file sessionFile) load() (model.SessionState, error) {
	var state model.SessionState

	rawData, err := os.ReadFile(file.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("read session file: %w", err)
	}

	var fileData yamlSession
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return state, fmt.Errorf("parse session yaml: %w", err)
	}

	state.LastSelectedConfigurationID = fileData.LastSelectedConfigurationID
	if fileData.LastUsedWorkSeconds != nil && fileData.LastUsedRestSeconds != nil {
		state.LastUsed = &model.Durations{
			WorkSeconds: *fileData.LastUsedWorkSeconds,
			RestSeconds: *fileData.LastUsedRestSeconds,
		}
	}
	return state, nil
}

func (file sessionFile) save(state model.SessionState) error {
	fileData := yamlSession{LastSelectedConfigurationID: state.LastSelectedConfigurationID}
	if state.LastUsed != nil {
		work, rest := state.LastUsed.WorkSeconds, state.LastUsed.RestSeconds
		fileData.LastUsedWorkSeconds = &work
		fileData.LastUsedRestSeconds = &rest
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal session yaml: %w", err)
	}

	dir := filepath.Dir(file.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, sessionFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create session temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(serialized); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpPath, file.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (file sessionFile) clear() error {
	if err := os.Remove(file.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
