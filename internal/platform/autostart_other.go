//go:build !darwin && !linux && !windows

package platform

import "context"

func loginItemDir() (string, error) {
	return "", nil
}

func (item *LoginItem) enable(context.Context) error {
	return ErrAutostartUnsupported
}

func (item *LoginItem) disable(context.Context) error {
	return nil
}
