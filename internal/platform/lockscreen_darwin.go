package platform

func defaultLockCommands() []LockCommand {
	return []LockCommand{
		{Name: "/usr/bin/osascript", Args: []string{"-e", `tell application "System Events" to keystroke "q" using {control down, command down}`}},
		{Name: "/bin/launchctl", Args: []string{"start", "com.apple.screensaver.engine"}},
		{Name: "/usr/bin/pmset", Args: []string{"displaysleepnow"}},
	}
}
