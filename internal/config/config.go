// Package config loads the declarative apps file and resolves each
// application's installation method.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory and next to the
// running binary when --config is not given.
const DefaultFileName = "apps.yaml"

// ErrNotFound reports that no apps file exists at any search location.
var ErrNotFound = errors.New("no apps file found")

// Method identifies how an application is installed and updated.
type Method int

const (
	// MethodGitHubRelease downloads a templated archive from the app's
	// latest GitHub release.
	MethodGitHubRelease Method = iota
	// MethodCommands runs the configured install/update shell command.
	MethodCommands
	// MethodScript renders and executes a standalone script command.
	MethodScript
)

func (m Method) String() string {
	switch m {
	case MethodGitHubRelease:
		return "github-release"
	case MethodCommands:
		return "custom-command"
	case MethodScript:
		return "custom-script"
	}
	return "unknown"
}

// ConfigurationError reports an app whose fields select zero or more
// than one installation method.
type ConfigurationError struct {
	App    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("app %q: %s", e.App, e.Reason)
}

// App is one configured application.
type App struct {
	Name           string `yaml:"name"`
	Bin            string `yaml:"bin"`
	Repo           string `yaml:"repo,omitempty"`
	Template       string `yaml:"template,omitempty"`
	InstallCommand string `yaml:"install_command,omitempty"`
	UpdateCommand  string `yaml:"update_command,omitempty"`
	VersionCommand string `yaml:"version_command,omitempty"`
	Script         string `yaml:"script,omitempty"`
}

// Method resolves the installation method from which fields are set.
// Exactly one method must be selectable; anything else is a
// ConfigurationError. Resolution never falls through to a default.
func (a *App) Method() (Method, error) {
	github := a.Template != ""
	commands := a.InstallCommand != "" || a.UpdateCommand != ""
	script := a.Script != ""

	selected := 0
	for _, on := range []bool{github, commands, script} {
		if on {
			selected++
		}
	}
	switch {
	case selected == 0:
		return 0, &ConfigurationError{App: a.Name, Reason: "no installation method configured (need template, install_command or script)"}
	case selected > 1:
		return 0, &ConfigurationError{App: a.Name, Reason: "more than one installation method configured"}
	case github && a.Repo == "":
		return 0, &ConfigurationError{App: a.Name, Reason: "template requires repo"}
	case commands && a.InstallCommand == "":
		return 0, &ConfigurationError{App: a.Name, Reason: "update_command requires install_command"}
	}

	switch {
	case github:
		return MethodGitHubRelease, nil
	case commands:
		return MethodCommands, nil
	default:
		return MethodScript, nil
	}
}

// File is the decoded apps file.
type File struct {
	Apps []App `yaml:"apps"`
}

// Select returns the single app matching name or bin.
func (f *File) Select(selector string) (*App, error) {
	for i := range f.Apps {
		if f.Apps[i].Name == selector || f.Apps[i].Bin == selector {
			return &f.Apps[i], nil
		}
	}
	return nil, fmt.Errorf("app %q not found in configuration", selector)
}

// Locate finds the apps file. An explicit path wins; otherwise the
// working directory and then the running binary's directory are tried.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{DefaultFileName}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), DefaultFileName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", ErrNotFound
}

// Load reads, validates and decodes the apps file at path. Unknown
// fields are ignored; structural problems are caught by the schema
// before decoding.
func Load(path string) (*File, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(contents)
}

// Parse decodes and validates raw YAML apps-file contents.
func Parse(contents []byte) (*File, error) {
	if err := validateSchema(contents); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for i := range f.Apps {
		if f.Apps[i].Name == "" {
			return nil, &ConfigurationError{App: fmt.Sprintf("#%d", i+1), Reason: "name is required"}
		}
		if f.Apps[i].Bin == "" {
			return nil, &ConfigurationError{App: f.Apps[i].Name, Reason: "bin is required"}
		}
	}
	return &f, nil
}
