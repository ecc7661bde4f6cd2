package config

import (
	"fmt"
	"os"
)

const sampleContents = `# gh-app configuration.
#
# Each app declares exactly one installation method:
#   - repo + template     download the latest GitHub release archive
#   - install_command     run a shell command (update_command optional)
#   - script              render and execute a command line
#
# Template variables: {name} {bin} {version} {os} {arch} {suffix}
# {bin_dir} {bin_path} {app_path}, plus {download(url, dest)}.
apps:
  - name: zoxide
    bin: zoxide
    repo: ajeetdsouza/zoxide
    template: "{bin}-{version}-{suffix}.tar.gz"

  - name: bottom
    bin: btm
    repo: ClementTsang/bottom
    template: "bottom_{suffix}.tar.gz"

  - name: uv
    bin: uv
    repo: astral-sh/uv
    script: "{download(https://astral.sh/uv/install.sh, {app_path}/uv-install.sh)} && sh {app_path}/uv-install.sh"

  - name: ripgrep
    bin: rg
    repo: BurntSushi/ripgrep
    install_command: "cargo install ripgrep"
    version_command: "rg --version"
`

// WriteSample creates a starter apps file at path. Refuses to clobber
// an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleContents), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
