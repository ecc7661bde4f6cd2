//go:build !linux

package hostenv

// IsNoExecMount only has procfs to inspect on Linux; elsewhere assume
// the destination is executable.
func IsNoExecMount(destPath string) bool {
	return false
}
