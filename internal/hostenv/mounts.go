// Package hostenv answers questions about the host filesystem that
// affect where installed binaries can actually run.
package hostenv

import (
	"path/filepath"
	"strings"
)

// mount is one mounted filesystem and its option flags.
type mount struct {
	point string
	flags map[string]struct{}
}

func (m mount) noexec() bool {
	_, ok := m.flags["noexec"]
	return ok
}

// parseMountinfo reads /proc/self/mountinfo lines. Format per the
// kernel docs: id parent major:minor root mountpoint options ... "-"
// fstype source superopts. Some flags only appear in the super
// options.
func parseMountinfo(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 6 {
			continue
		}
		sep := -1
		for i, f := range fields {
			if f == "-" {
				sep = i
				break
			}
		}
		if sep < 0 {
			continue
		}

		m := mount{
			point: unescapeMountPath(fields[4]),
			flags: splitFlags(fields[5]),
		}
		if sep+3 < len(fields) {
			for flag := range splitFlags(fields[sep+3]) {
				m.flags[flag] = struct{}{}
			}
		}
		out = append(out, m)
	}
	return out
}

// parseProcMounts reads the older /proc/mounts format:
// source mountpoint fstype options dump pass.
func parseProcMounts(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 4 {
			continue
		}
		out = append(out, mount{
			point: unescapeMountPath(fields[1]),
			flags: splitFlags(fields[3]),
		})
	}
	return out
}

func splitFlags(opts string) map[string]struct{} {
	flags := make(map[string]struct{})
	for _, part := range strings.Split(opts, ",") {
		if part = strings.TrimSpace(part); part != "" {
			flags[part] = struct{}{}
		}
	}
	return flags
}

// unescapeMountPath undoes the octal escapes procfs uses for spaces
// and a few special characters.
func unescapeMountPath(value string) string {
	return strings.NewReplacer(
		`\040`, " ",
		`\011`, "\t",
		`\012`, "\n",
		`\134`, `\`,
	).Replace(value)
}

// detectNoExec reports whether the mount containing destPath carries
// the noexec flag. The longest matching mount point wins, mirroring
// how the kernel resolves nested mounts.
func detectNoExec(destPath string, mounts []mount) bool {
	dest := filepath.ToSlash(filepath.Clean(destPath))
	if dest == "" || dest == "." {
		return false
	}

	best := -1
	noexec := false
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.point))
		if point == "" || point == "." || !pathHasPrefix(dest, point) {
			continue
		}
		if len(point) > best {
			best = len(point)
			noexec = m.noexec()
		}
	}
	return noexec
}

func pathHasPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
