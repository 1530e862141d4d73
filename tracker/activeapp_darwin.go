package tracker

import (
	"os/exec"
	"strings"
)

// ActiveApp resolves the frontmost application via System Events.
func ActiveApp() (string, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`).Output()
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}
