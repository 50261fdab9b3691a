//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func loginItemDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, "Library", "LaunchAgents"), nil
}

func (item *LoginItem) label() string {
	return "com.takearest." + entrySlug(item.appName)
}

func (item *LoginItem) entryPath() string {
	return filepath.Join(item.dir, item.label()+".plist")
}

func (item *LoginItem) enable(context.Context) error {
	if err := os.MkdirAll(item.dir, 0o755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(item.entryPath(), []byte(launchAgentPlist(item.label(), item.execPath)), 0o644); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}
	return nil
}

func (item *LoginItem) disable(context.Context) error {
	if err := os.Remove(item.entryPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove plist: %w", err)
	}
	return nil
}

var plistEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func launchAgentPlist(label, execPath string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>ProcessType</key>
	<string>Interactive</string>
</dict>
</plist>
`, plistEscaper.Replace(label), plistEscaper.Replace(execPath))
}
