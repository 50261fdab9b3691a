package platform

func defaultLockCommands() []LockCommand {
	return []LockCommand{
		{Name: "loginctl", Args: []string{"lock-session"}},
		{Name: "xdg-screensaver", Args: []string{"lock"}},
		{Name: "gnome-screensaver-command", Args: []string{"--lock"}},
		{Name: "xset", Args: []string{"dpms", "force", "off"}},
	}
}
