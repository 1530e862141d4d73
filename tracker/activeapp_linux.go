package tracker

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ActiveApp resolves the focused application via xdotool, mapping the
// window's pid to its process name.
func ActiveApp() (string, error) {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowpid").Output()
	if err != nil {
		// No active window (or no X session) is not an error worth
		// surfacing every second.
		return "", nil
	}
	pid := strings.TrimSpace(string(out))
	if pid == "" {
		return "", nil
	}
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%s/comm", pid))
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(comm)), nil
}
