//go:build windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts cmd in a new process group. Cancellation kills
// the yt-dlp process only; the pipe close fallback in Fetch covers helpers
// that outlive it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
