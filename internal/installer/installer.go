// Package installer drives the per-app install/update state machine
// and the batch orchestration over an app list.
package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mfouesneau/gh-app/internal/archive"
	"github.com/mfouesneau/gh-app/internal/config"
	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/shell"
	"github.com/mfouesneau/gh-app/internal/template"
	"github.com/mfouesneau/gh-app/internal/ui"
	"github.com/mfouesneau/gh-app/pkg/version"
)

// Mode selects how far the state machine goes for each app.
type Mode int

const (
	// ModeCheck resolves versions and reports without acting.
	ModeCheck Mode = iota
	// ModeInstall performs the install or update.
	ModeInstall
	// ModeDryRun renders every string an install would use but
	// replaces each side effect with a recorded step.
	ModeDryRun
)

// Resolver is the release-discovery and download capability consumed
// by the dispatcher. *ghrelease.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, repo string) (*ghrelease.Tag, error)
	AssetURL(repo, tag, filename string) string
	Download(ctx context.Context, url, dest string) error
}

// Installer processes one app at a time against a fixed platform
// context.
type Installer struct {
	Platform *platform.Context
	Runner   shell.Runner
	Resolver Resolver
	Reporter *ui.Reporter
}

// Process runs the state machine for one app: pixi detection, version
// resolution, update decision, then the method-specific action. Every
// failure becomes this app's outcome; nothing escapes to the caller.
func (ins *Installer) Process(ctx context.Context, app *config.App, mode Mode) Outcome {
	ins.Reporter.Step("%s", app.Name)

	method, err := app.Method()
	if err != nil {
		return failed(app, err, ErrKindConfiguration)
	}

	if pixiManaged(ctx, ins.Runner, app.Bin) {
		ins.Reporter.Warn("%s is managed by pixi, skipping", app.Name)
		return Outcome{App: app.Name, Kind: KindSkippedPixiManaged}
	}

	local := probeVersion(ctx, ins.Runner, app.Bin)

	var tag *ghrelease.Tag
	remote := ""
	switch {
	case app.Repo != "":
		tag, err = ins.Resolver.Resolve(ctx, app.Repo)
		if err != nil {
			return failed(app, err, ErrKindNetwork)
		}
		remote = tag.Version
	case app.VersionCommand != "":
		remote, err = ins.remoteFromCommand(ctx, app, local)
		if err != nil {
			return failed(app, err, ErrKindSubprocess)
		}
	}

	if local != "" && remote != "" {
		ordering, err := version.Compare(local, remote)
		if err != nil {
			return failed(app, err, ErrKindVersionParse)
		}
		// A newer local build is never downgraded.
		if ordering != version.RemoteNewer {
			return Outcome{App: app.Name, Kind: KindUpToDate, Local: local, Remote: remote}
		}
	}

	if mode == ModeCheck {
		switch {
		case local == "":
			return Outcome{App: app.Name, Kind: KindNotInstalled, Remote: remote}
		case remote == "":
			return Outcome{App: app.Name, Kind: KindUpToDate, Local: local}
		default:
			return Outcome{App: app.Name, Kind: KindUpdateAvailable, Local: local, Remote: remote}
		}
	}

	return ins.act(ctx, app, method, mode, local, remote, tag)
}

// remoteFromCommand gets the latest version for repo-less apps by
// running the configured version_command and parsing its output.
func (ins *Installer) remoteFromCommand(ctx context.Context, app *config.App, local string) (string, error) {
	command, err := ins.renderer(ctx, false).Render(app.VersionCommand, ins.renderContext(app, local))
	if err != nil {
		return "", err
	}
	code, out, err := ins.Runner.Run(ctx, command)
	if err != nil || code != 0 {
		return "", err
	}
	v := version.Extract(out)
	if v == "" {
		ins.Reporter.Detail("could not parse a version from %q output", command)
	}
	return v, nil
}

// act performs (or previews) the method-specific installation.
func (ins *Installer) act(ctx context.Context, app *config.App, method config.Method, mode Mode, local, remote string, tag *ghrelease.Tag) Outcome {
	dry := mode == ModeDryRun
	rctx := ins.renderContext(app, remote)
	renderer := ins.renderer(ctx, dry)

	var steps []string
	record := func(format string, args ...any) {
		step := fmt.Sprintf(format, args...)
		steps = append(steps, step)
		if dry {
			ins.Reporter.Detail("would %s", step)
		}
	}

	var err error
	switch method {
	case config.MethodGitHubRelease:
		err = ins.actGitHubRelease(ctx, app, renderer, rctx, tag, dry, record)
	case config.MethodCommands:
		err = ins.actCommand(ctx, app, renderer, rctx, local, dry, record)
	case config.MethodScript:
		err = ins.actScript(ctx, app, renderer, rctx, dry, record)
	}
	if err != nil {
		return failed(app, err, ErrKindSubprocess)
	}

	if dry {
		return Outcome{App: app.Name, Kind: KindDryRun, Local: local, Remote: remote, Steps: steps}
	}

	// Post-install verification: re-probe and report what answers.
	installed := probeVersion(ctx, ins.Runner, app.Bin)
	if installed != "" {
		ins.Reporter.Detail("%s reports %s", app.Bin, version.Display(installed))
	}
	if remote == "" {
		remote = installed
	}
	if local == "" {
		return Outcome{App: app.Name, Kind: KindInstalled, Remote: remote}
	}
	return Outcome{App: app.Name, Kind: KindUpdated, Local: local, Remote: remote}
}

// actGitHubRelease renders the archive name, downloads the release
// asset, extracts it and installs the binary into bin_dir. The
// temporary directory lives only for this app's action.
func (ins *Installer) actGitHubRelease(ctx context.Context, app *config.App, renderer *template.Renderer, rctx template.Context, tag *ghrelease.Tag, dry bool, record func(string, ...any)) error {
	filename, err := renderer.Render(app.Template, rctx)
	if err != nil {
		return err
	}
	assetURL := ins.Resolver.AssetURL(app.Repo, tag.Raw, filename)

	record("download %s", assetURL)
	record("extract %s", filename)
	record("install %s to %s", app.Bin, ins.Platform.BinPath(app.Bin))
	if dry {
		return nil
	}

	tmp, err := os.MkdirTemp("", "gh-app-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	archivePath := filepath.Join(tmp, filepath.Base(filename))
	if err := ins.Resolver.Download(ctx, assetURL, archivePath); err != nil {
		return wrapKind(err, ErrKindNetwork)
	}
	ins.Reporter.Detail("downloaded %s", filename)

	extractDir := filepath.Join(tmp, "extracted")
	if err := archive.Extract(archivePath, extractDir); err != nil {
		return wrapKind(err, ErrKindExtraction)
	}
	src, err := archive.LocateBinary(extractDir, app.Bin)
	if err != nil {
		return err
	}
	dest := ins.Platform.BinPath(app.Bin)
	if err := installBinary(src, dest); err != nil {
		return wrapKind(err, ErrKindExtraction)
	}
	ins.Reporter.Detail("installed %s", dest)
	return nil
}

// actCommand runs install_command on first install and update_command
// afterwards, falling back to install_command when no update_command
// is configured.
func (ins *Installer) actCommand(ctx context.Context, app *config.App, renderer *template.Renderer, rctx template.Context, local string, dry bool, record func(string, ...any)) error {
	raw := app.InstallCommand
	if local != "" && app.UpdateCommand != "" {
		raw = app.UpdateCommand
	}
	command, err := renderer.Render(raw, rctx)
	if err != nil {
		return err
	}
	return ins.runCommand(ctx, command, dry, record)
}

func (ins *Installer) actScript(ctx context.Context, app *config.App, renderer *template.Renderer, rctx template.Context, dry bool, record func(string, ...any)) error {
	command, err := renderer.Render(app.Script, rctx)
	if err != nil {
		return err
	}
	return ins.runCommand(ctx, command, dry, record)
}

func (ins *Installer) runCommand(ctx context.Context, command string, dry bool, record func(string, ...any)) error {
	record("run: %s", command)
	if dry {
		return nil
	}
	log.Debug("executing", "command", command)
	_, _, err := ins.Runner.Run(ctx, command)
	return err
}

func (ins *Installer) renderer(ctx context.Context, dry bool) *template.Renderer {
	return template.New(
		template.DryRun(dry),
		template.WithFetcher(func(url, dest string) error {
			return ins.Resolver.Download(ctx, url, dest)
		}),
	)
}

func (ins *Installer) renderContext(app *config.App, resolvedVersion string) template.Context {
	return template.Context{
		Name:    app.Name,
		Bin:     app.Bin,
		Version: resolvedVersion,
		OS:      ins.Platform.OS,
		Arch:    ins.Platform.Arch,
		Suffix:  ins.Platform.Suffix,
		BinDir:  ins.Platform.BinDir,
		BinPath: ins.Platform.BinPath(app.Bin),
		AppPath: ins.Platform.AppPath,
	}
}

// installBinary copies src into place with executable permission.
func installBinary(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return out.Close()
}
