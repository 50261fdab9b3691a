package platform

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"takearest/internal/logger"
)

// LockCommand is one step of the lock-screen fallback chain.
type LockCommand struct {
	Name string
	Args []string
}

func (command LockCommand) String() string {
	return strings.TrimSpace(command.Name + " " + strings.Join(command.Args, " "))
}

// CommandRunner executes a command and reports whether it failed.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ScreenLocker tries each command in order until one succeeds. Failures are
// only logged.
type ScreenLocker struct {
	commands []LockCommand
	run      CommandRunner
	log      *logger.Logger
	timeout  time.Duration
}

// NewScreenLocker uses the commands known for the current OS.
func NewScreenLocker(log *logger.Logger) *ScreenLocker {
	return NewScreenLockerWith(defaultLockCommands(), execRunner, log)
}

// NewScreenLockerWith builds a locker around an explicit chain.
func NewScreenLockerWith(commands []LockCommand, run CommandRunner, log *logger.Logger) *ScreenLocker {
	if run == nil {
		run = execRunner
	}
	return &ScreenLocker{
		commands: append([]LockCommand(nil), commands...),
		run:      run,
		log:      log,
		timeout:  5 * time.Second,
	}
}

// Lock walks the chain and reports whether any command succeeded.
func (locker *ScreenLocker) Lock(ctx context.Context) bool {
	for _, command := range locker.commands {
		if ctx.Err() != nil {
			return false
		}
		commandCtx, cancel := context.WithTimeout(ctx, locker.timeout)
		err := locker.run(commandCtx, command.Name, command.Args...)
		cancel()
		if err == nil {
			locker.log.Debug("screen locked via %s", command)
			return true
		}
		locker.log.Debug("lock screen via %s: %v", command, err)
	}
	locker.log.Debug("no lock screen command succeeded")
	return false
}

// LockAsync runs Lock in the background.
func (locker *ScreenLocker) LockAsync() {
	go locker.Lock(context.Background())
}

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
