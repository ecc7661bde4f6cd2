package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"
)

// ComputeTargetPath resolves where the updated binary should be
// written: the running executable's real location, or the same
// basename inside dir when dir is non-empty.
func ComputeTargetPath(dir string) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determine current executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = resolved
	}
	targetDir := filepath.Dir(exePath)
	if dir != "" {
		targetDir = dir
	}
	return filepath.Join(targetDir, filepath.Base(exePath)), nil
}
