//go:build !windows

package config

import "syscall"

// detachAttr puts the spawned editor in its own process group so it
// survives this process exiting, grounded on the retrieval pack's
// other_examples/bogen85-config__output-tool.go launchEditorForMatch,
// which sets the same field before calling cmd.Process.Release().
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
