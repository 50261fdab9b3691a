package platform

func defaultLockCommands() []LockCommand {
	return []LockCommand{
		{Name: "rundll32.exe", Args: []string{"user32.dll,LockWorkStation"}},
	}
}
