// Package platform detects the host OS/architecture pair and maps it to
// the release-asset naming conventions used by GitHub release artifacts.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// BinDirEnv overrides the default install directory when set.
const BinDirEnv = "bin_dir"

// UnsupportedError reports an OS/architecture combination with no known
// release-asset suffix.
type UnsupportedError struct {
	OS   string
	Arch string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform %s/%s", e.OS, e.Arch)
}

// Context carries everything install steps need to know about the host.
type Context struct {
	// OS is the normalized operating system name: linux, darwin or windows.
	OS string
	// Arch is the normalized architecture name: x86_64 or aarch64.
	Arch string
	// Suffix is the target-triple style asset suffix for this host,
	// e.g. "x86_64-unknown-linux-musl".
	Suffix string
	// BinDir is the directory binaries are installed into.
	BinDir string
	// AppPath is the working directory of this run, exposed to
	// templates as a scratch location for downloaded helpers.
	AppPath string
}

// Detect builds a Context for the current host. The install directory
// defaults to ~/.local/bin and can be overridden via the bin_dir
// environment variable.
func Detect() (*Context, error) {
	return detect(runtime.GOOS, runtime.GOARCH)
}

func detect(goos, goarch string) (*Context, error) {
	arch, ok := map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
	}[goarch]
	if !ok {
		return nil, &UnsupportedError{OS: goos, Arch: goarch}
	}

	var suffix string
	switch goos {
	case "linux":
		suffix = arch + "-unknown-linux-musl"
	case "darwin":
		suffix = arch + "-apple-darwin"
	case "windows":
		suffix = arch + "-pc-windows-msvc"
	default:
		return nil, &UnsupportedError{OS: goos, Arch: goarch}
	}

	binDir := os.Getenv(BinDirEnv)
	if binDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		binDir = filepath.Join(home, ".local", "bin")
	}

	appPath, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	return &Context{OS: goos, Arch: arch, Suffix: suffix, BinDir: binDir, AppPath: appPath}, nil
}

// ExeName appends the Windows executable extension when needed.
func (c *Context) ExeName(name string) string {
	if c.OS == "windows" {
		return name + ".exe"
	}
	return name
}

// BinPath returns the install path for the named binary.
func (c *Context) BinPath(name string) string {
	return filepath.Join(c.BinDir, c.ExeName(name))
}
