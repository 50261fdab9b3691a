//go:build linux

package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func loginItemDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		homeDir, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("get config dir: %w", homeErr)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "autostart"), nil
}

func (item *LoginItem) entryPath() string {
	return filepath.Join(item.dir, entrySlug(item.appName)+".desktop")
}

func (item *LoginItem) enable(context.Context) error {
	if err := os.MkdirAll(item.dir, 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(item.entryPath(), []byte(desktopEntry(item.appName, item.execPath)), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func (item *LoginItem) disable(context.Context) error {
	if err := os.Remove(item.entryPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}

func desktopEntry(appName, execPath string) string {
	if strings.Contains(execPath, " ") && !strings.HasPrefix(execPath, `"`) {
		execPath = `"` + execPath + `"`
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Work/rest reminder
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`, appName, execPath)
}
