//go:build windows

package config

import "syscall"

// detachAttr has no process-group equivalent on Windows; the editor is
// still started detached via cmd.Process.Release(), just without a
// dedicated process group.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
