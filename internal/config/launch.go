package config

import (
	"fmt"
	"os/exec"
)

// Launch spawns the configured editor against path/line and detaches,
// never waiting for it to exit (spec.md §4.7's LaunchEditor frontend
// event). Grounded on the retrieval pack's
// other_examples/bogen85-config__output-tool.go launchEditorForMatch:
// exec.Command followed by Start() and Process.Release() rather than
// Run(), so the editor keeps running after this process exits.
func (e EditorOpen) Launch(path string, line int) error {
	argv := e.Expand(path, line)
	if len(argv) == 0 {
		return fmt.Errorf("editor_open.command is empty")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = detachAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch editor: %w", err)
	}
	return cmd.Process.Release()
}
