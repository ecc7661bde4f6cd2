//go:build linux

package hostenv

import "os"

// IsNoExecMount reports whether destPath sits on a filesystem mounted
// noexec, in which case binaries installed there cannot be executed.
// Best effort only: anything odd reads as false.
func IsNoExecMount(destPath string) bool {
	if destPath == "" {
		return false
	}

	// mountinfo is richer and covers overlay setups.
	if data, err := os.ReadFile("/proc/self/mountinfo"); err == nil {
		if mounts := parseMountinfo(string(data)); len(mounts) > 0 {
			return detectNoExec(destPath, mounts)
		}
	}

	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return false
	}
	return detectNoExec(destPath, parseProcMounts(string(data)))
}
