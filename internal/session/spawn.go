package session

import (
	"fmt"
	"os"
	"os/exec"
)

// OpenInNewProcess launches an independent raido instance for the given
// notebook path (empty for a fresh untitled notebook). One process per
// notebook keeps sessions in separate fault domains: a crash in one
// notebook never takes down another.
func OpenInNewProcess(path string, extraArgs ...string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("session: resolve executable: %w", err)
	}

	args := append([]string(nil), extraArgs...)
	if path != "" {
		args = append(args, path)
	}

	cmd := exec.Command(exe, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("session: spawn instance: %w", err)
	}
	// The child owns its own lifetime from here.
	return cmd.Process.Release()
}
