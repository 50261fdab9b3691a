//go:build windows

package platform

import (
	"context"
	"fmt"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func loginItemDir() (string, error) {
	return "", nil
}

func (item *LoginItem) enable(ctx context.Context) error {
	quoted := `"` + strings.Trim(item.execPath, `"`) + `"`
	if err := item.run(ctx, "reg", "add", registryRunKey, "/v", item.appName, "/t", "REG_SZ", "/d", quoted, "/f"); err != nil {
		return fmt.Errorf("reg add: %w", err)
	}
	return nil
}

func (item *LoginItem) disable(ctx context.Context) error {
	if err := item.run(ctx, "reg", "delete", registryRunKey, "/v", item.appName, "/f"); err != nil {
		return fmt.Errorf("reg delete: %w", err)
	}
	return nil
}
