package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfouesneau/gh-app/internal/config"
	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/shell"
	"github.com/mfouesneau/gh-app/internal/ui"
)

type fakeResp struct {
	code int
	out  string
}

// fakeRunner maps exact command lines to canned responses. Unknown
// commands behave like a missing binary (exit 127).
type fakeRunner struct {
	responses map[string]fakeResp
	commands  []string
}

func (f *fakeRunner) Run(_ context.Context, command string) (int, string, error) {
	f.commands = append(f.commands, command)
	if r, ok := f.responses[command]; ok {
		if r.code != 0 {
			return r.code, r.out, &shell.ExitError{Command: command, ExitCode: r.code, Output: r.out}
		}
		return 0, r.out, nil
	}
	return 127, "", &shell.ExitError{Command: command, ExitCode: 127}
}

type fakeResolver struct {
	tag        *ghrelease.Tag
	resolveErr error
	downloads  []string
	payload    func(dest string) error
}

func (f *fakeResolver) Resolve(context.Context, string) (*ghrelease.Tag, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.tag, nil
}

func (f *fakeResolver) AssetURL(repo, tag, filename string) string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s", repo, tag, filename)
}

func (f *fakeResolver) Download(_ context.Context, url, dest string) error {
	f.downloads = append(f.downloads, url)
	if f.payload != nil {
		return f.payload(dest)
	}
	return os.WriteFile(dest, []byte("payload"), 0o644)
}

func testPlatform(t *testing.T) *platform.Context {
	t.Helper()
	return &platform.Context{
		OS:      "linux",
		Arch:    "x86_64",
		Suffix:  "x86_64-unknown-linux-musl",
		BinDir:  t.TempDir(),
		AppPath: t.TempDir(),
	}
}

func newInstaller(t *testing.T, runner shell.Runner, resolver Resolver) *Installer {
	t.Helper()
	return &Installer{
		Platform: testPlatform(t),
		Runner:   runner,
		Resolver: resolver,
		Reporter: ui.NewWriter(io.Discard),
	}
}

// tarGzPayload returns a Download stand-in writing a real archive with
// the binary nested in a versioned directory.
func tarGzPayload(binName string) func(dest string) error {
	return func(dest string) error {
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		defer f.Close()
		gz := gzip.NewWriter(f)
		tw := tar.NewWriter(gz)
		contents := []byte("#!/bin/sh\n")
		if err := tw.WriteHeader(&tar.Header{
			Name:     binName + "-0.9.8/" + binName,
			Mode:     0o755,
			Size:     int64(len(contents)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			return err
		}
		if _, err := tw.Write(contents); err != nil {
			return err
		}
		if err := tw.Close(); err != nil {
			return err
		}
		return gz.Close()
	}
}

func zoxideApp() config.App {
	return config.App{
		Name:     "zoxide",
		Bin:      "zoxide",
		Repo:     "ajeetdsouza/zoxide",
		Template: "{bin}-{version}-{suffix}.tar.gz",
	}
}

func TestProcessInstallFromGitHubRelease(t *testing.T) {
	runner := &fakeRunner{}
	resolver := &fakeResolver{
		tag:     &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"},
		payload: tarGzPayload("zoxide"),
	}
	ins := newInstaller(t, runner, resolver)

	app := zoxideApp()
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	require.Equal(t, KindInstalled, outcome.Kind, "outcome: %+v", outcome)

	require.Len(t, resolver.downloads, 1)
	assert.Equal(t,
		"https://github.com/ajeetdsouza/zoxide/releases/download/v0.9.8/zoxide-0.9.8-x86_64-unknown-linux-musl.tar.gz",
		resolver.downloads[0])

	installed := filepath.Join(ins.Platform.BinDir, "zoxide")
	info, err := os.Stat(installed)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "installed binary must be executable")
}

func TestProcessUpToDate(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResp{
		"zoxide --version": {out: "zoxide 0.9.8"},
	}}
	resolver := &fakeResolver{tag: &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"}}
	ins := newInstaller(t, runner, resolver)

	app := zoxideApp()
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	assert.Equal(t, KindUpToDate, outcome.Kind)
	assert.Empty(t, resolver.downloads)
}

func TestProcessLocalNewerNeverDownloads(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResp{
		"zoxide --version": {out: "zoxide 1.0.0-dev"},
	}}
	resolver := &fakeResolver{tag: &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"}}
	ins := newInstaller(t, runner, resolver)

	app := zoxideApp()
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	assert.Equal(t, KindUpToDate, outcome.Kind)
	assert.Empty(t, resolver.downloads, "a newer local build must never trigger a download")
}

func TestProcessCheckMode(t *testing.T) {
	cases := []struct {
		name  string
		local string
		want  Kind
	}{
		{"not installed", "", KindNotInstalled},
		{"stale", "zoxide 0.9.0", KindUpdateAvailable},
		{"current", "zoxide 0.9.8", KindUpToDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			responses := map[string]fakeResp{}
			if tc.local != "" {
				responses["zoxide --version"] = fakeResp{out: tc.local}
			}
			runner := &fakeRunner{responses: responses}
			resolver := &fakeResolver{tag: &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"}}
			ins := newInstaller(t, runner, resolver)

			app := zoxideApp()
			outcome := ins.Process(context.Background(), &app, ModeCheck)
			assert.Equal(t, tc.want, outcome.Kind)
			assert.Empty(t, resolver.downloads, "check mode never downloads")
		})
	}
}

func TestProcessDryRunMatchesInstallStrings(t *testing.T) {
	runner := &fakeRunner{}
	resolver := &fakeResolver{tag: &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"}}
	ins := newInstaller(t, runner, resolver)

	app := zoxideApp()
	outcome := ins.Process(context.Background(), &app, ModeDryRun)
	require.Equal(t, KindDryRun, outcome.Kind)
	require.Len(t, outcome.Steps, 3)
	assert.Equal(t,
		"download https://github.com/ajeetdsouza/zoxide/releases/download/v0.9.8/zoxide-0.9.8-x86_64-unknown-linux-musl.tar.gz",
		outcome.Steps[0])
	assert.Empty(t, resolver.downloads, "dry run never downloads")
	assert.NoFileExists(t, filepath.Join(ins.Platform.BinDir, "zoxide"))
}

func TestProcessCustomCommand(t *testing.T) {
	t.Run("first install uses install_command", func(t *testing.T) {
		runner := &fakeRunner{responses: map[string]fakeResp{
			"cargo install ripgrep": {},
		}}
		ins := newInstaller(t, runner, &fakeResolver{})

		app := config.App{Name: "ripgrep", Bin: "rg", InstallCommand: "cargo install ripgrep", UpdateCommand: "cargo install --force ripgrep"}
		outcome := ins.Process(context.Background(), &app, ModeInstall)
		require.Equal(t, KindInstalled, outcome.Kind, "outcome: %+v", outcome)
		assert.Contains(t, runner.commands, "cargo install ripgrep")
		assert.NotContains(t, runner.commands, "cargo install --force ripgrep")
	})

	t.Run("installed without repo uses update_command", func(t *testing.T) {
		runner := &fakeRunner{responses: map[string]fakeResp{
			"rg --version":                  {out: "ripgrep 14.1.0"},
			"cargo install --force ripgrep": {},
		}}
		ins := newInstaller(t, runner, &fakeResolver{})

		app := config.App{Name: "ripgrep", Bin: "rg", InstallCommand: "cargo install ripgrep", UpdateCommand: "cargo install --force ripgrep"}
		outcome := ins.Process(context.Background(), &app, ModeInstall)
		require.Equal(t, KindUpdated, outcome.Kind, "outcome: %+v", outcome)
		assert.Contains(t, runner.commands, "cargo install --force ripgrep")
	})

	t.Run("failing command becomes subprocess failure", func(t *testing.T) {
		runner := &fakeRunner{responses: map[string]fakeResp{
			"false-cmd": {code: 1, out: "boom"},
		}}
		ins := newInstaller(t, runner, &fakeResolver{})

		app := config.App{Name: "x", Bin: "x", InstallCommand: "false-cmd"}
		outcome := ins.Process(context.Background(), &app, ModeInstall)
		require.Equal(t, KindFailed, outcome.Kind)
		assert.Equal(t, ErrKindSubprocess, outcome.ErrKind)
	})
}

func TestProcessVersionCommand(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResp{
		"rg --version":      {out: "ripgrep 14.1.0"},
		"latest-rg-version": {out: "14.1.0"},
	}}
	ins := newInstaller(t, runner, &fakeResolver{})

	app := config.App{Name: "ripgrep", Bin: "rg", InstallCommand: "cargo install ripgrep", VersionCommand: "latest-rg-version"}
	outcome := ins.Process(context.Background(), &app, ModeCheck)
	assert.Equal(t, KindUpToDate, outcome.Kind)
	assert.Equal(t, "14.1.0", outcome.Local)
}

func TestProcessPixiManagedSkip(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResp{
		"pixi --version":       {out: "pixi 0.30.0"},
		"pixi global list btm": {out: "Global environments:\n  btm 0.9.6"},
	}}
	ins := newInstaller(t, runner, &fakeResolver{})

	app := config.App{Name: "bottom", Bin: "btm", Repo: "ClementTsang/bottom", Template: "bottom_{suffix}.tar.gz"}
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	assert.Equal(t, KindSkippedPixiManaged, outcome.Kind)
}

func TestProcessPixiNotManaging(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResp{
		"pixi --version":          {out: "pixi 0.30.0"},
		"pixi global list zoxide": {out: "No global environments found."},
		"zoxide --version":        {out: "zoxide 0.9.8"},
	}}
	resolver := &fakeResolver{tag: &ghrelease.Tag{Raw: "v0.9.8", Version: "0.9.8"}}
	ins := newInstaller(t, runner, resolver)

	app := zoxideApp()
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	assert.Equal(t, KindUpToDate, outcome.Kind)
}

func TestProcessConfigurationError(t *testing.T) {
	ins := newInstaller(t, &fakeRunner{}, &fakeResolver{})
	app := config.App{Name: "broken", Bin: "broken"}
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	require.Equal(t, KindFailed, outcome.Kind)
	assert.Equal(t, ErrKindConfiguration, outcome.ErrKind)
}

func TestProcessBinaryMissingFromArchive(t *testing.T) {
	runner := &fakeRunner{}
	resolver := &fakeResolver{
		tag:     &ghrelease.Tag{Raw: "v1.0.0", Version: "1.0.0"},
		payload: tarGzPayload("other-tool"),
	}
	ins := newInstaller(t, runner, resolver)

	app := config.App{Name: "tool", Bin: "tool", Repo: "o/r", Template: "{bin}-{version}.tar.gz"}
	outcome := ins.Process(context.Background(), &app, ModeInstall)
	require.Equal(t, KindFailed, outcome.Kind)
	assert.Equal(t, ErrKindBinaryNotFound, outcome.ErrKind)
}

func TestBatchStopOnError(t *testing.T) {
	apps := []config.App{
		{Name: "a", Bin: "a", InstallCommand: "install-a"},
		{Name: "b", Bin: "b", InstallCommand: "failing-b"},
		{Name: "c", Bin: "c", InstallCommand: "install-c"},
	}
	newBatch := func(stop bool) (*Batch, *fakeRunner) {
		runner := &fakeRunner{responses: map[string]fakeResp{
			"install-a": {},
			"failing-b": {code: 2, out: "nope"},
			"install-c": {},
		}}
		return &Batch{Installer: newInstaller(t, runner, &fakeResolver{}), StopOnError: stop}, runner
	}

	b, _ := newBatch(true)
	outcomes, err := b.Run(context.Background(), apps, "", ModeInstall)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, KindFailed, outcomes[1].Kind)
	assert.True(t, Failed(outcomes))

	b, _ = newBatch(false)
	outcomes, err = b.Run(context.Background(), apps, "", ModeInstall)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{outcomes[0].App, outcomes[1].App, outcomes[2].App})
}

func TestBatchSelector(t *testing.T) {
	apps := []config.App{
		{Name: "ripgrep", Bin: "rg", InstallCommand: "install-rg"},
		{Name: "fd", Bin: "fd", InstallCommand: "install-fd"},
	}
	runner := &fakeRunner{responses: map[string]fakeResp{"install-rg": {}}}
	b := &Batch{Installer: newInstaller(t, runner, &fakeResolver{})}

	outcomes, err := b.Run(context.Background(), apps, "rg", ModeInstall)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "ripgrep", outcomes[0].App)

	_, err = b.Run(context.Background(), apps, "missing", ModeInstall)
	require.Error(t, err)
}
