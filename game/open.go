package game

import (
	"fmt"
	"os/exec"
	"runtime"
)

// fileManagerCommand returns the command that opens dir in the platform's
// file browser.
func fileManagerCommand(goos, dir string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("explorer", dir)
	case "darwin":
		return exec.Command("open", dir)
	default:
		return exec.Command("xdg-open", dir)
	}
}

// OpenInFileManager starts the file browser on dir without waiting for it.
func OpenInFileManager(dir string) error {
	if !isDir(dir) {
		return fmt.Errorf("%s is not a directory", dir)
	}
	cmd := fileManagerCommand(runtime.GOOS, dir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
