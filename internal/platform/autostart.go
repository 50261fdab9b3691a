package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAutostartUnsupported indicates no login item mechanism is known for the OS.
var ErrAutostartUnsupported = errors.New("launch at login unsupported")

// LoginItem registers the executable to start with the user session.
type LoginItem struct {
	appName  string
	execPath string
	// dir holds the entry file; empty where the OS keeps it elsewhere.
	dir string
	run CommandRunner
}

// NewLoginItem prepares a login item for execPath under appName.
func NewLoginItem(appName, execPath string) (*LoginItem, error) {
	if strings.TrimSpace(appName) == "" {
		return nil, fmt.Errorf("new login item: app name is empty")
	}
	if execPath == "" {
		return nil, fmt.Errorf("new login item: exec path is empty")
	}
	dir, err := loginItemDir()
	if err != nil {
		return nil, fmt.Errorf("new login item: %w", err)
	}
	return &LoginItem{appName: appName, execPath: execPath, dir: dir, run: execRunner}, nil
}

// Sync installs the entry when enabled is true and removes it otherwise.
func (item *LoginItem) Sync(ctx context.Context, enabled bool) error {
	if enabled {
		if err := item.enable(ctx); err != nil {
			return fmt.Errorf("enable launch at login: %w", err)
		}
		return nil
	}
	if err := item.disable(ctx); err != nil {
		return fmt.Errorf("disable launch at login: %w", err)
	}
	return nil
}

// entrySlug is appName lowercased with spaces turned into dashes.
func entrySlug(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	return strings.ReplaceAll(name, " ", "-")
}
