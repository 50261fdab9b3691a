//go:build !darwin && !linux && !windows

package platform

func defaultLockCommands() []LockCommand {
	return nil
}
