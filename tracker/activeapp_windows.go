package tracker

import (
	"os/exec"
	"strings"
)

const foregroundScript = `Add-Type @"
using System;
using System.Runtime.InteropServices;
public class FG {
  [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
  [DllImport("user32.dll")] public static extern uint GetWindowThreadProcessId(IntPtr hWnd, out uint pid);
}
"@
$hwnd = [FG]::GetForegroundWindow()
$procId = 0
[FG]::GetWindowThreadProcessId($hwnd, [ref]$procId) | Out-Null
if ($procId -ne 0) { (Get-Process -Id $procId).ProcessName }`

// ActiveApp resolves the foreground window's process name through
// PowerShell.
func ActiveApp() (string, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command", foregroundScript).Output()
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}
