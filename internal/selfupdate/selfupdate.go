// Package selfupdate replaces the running executable with the latest
// released build of this tool.
package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mfouesneau/gh-app/internal/archive"
	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/ui"
	"github.com/mfouesneau/gh-app/pkg/version"
)

// Resolver is the release-discovery capability the updater consumes;
// *ghrelease.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, repo string) (*ghrelease.Tag, error)
	AssetURL(repo, tag, filename string) string
	Download(ctx context.Context, url, dest string) error
}

// Updater checks this tool's own repository for a newer release and
// swaps the running binary in place, keeping a .old backup during the
// replacement.
type Updater struct {
	Repo           string // owner/name of this tool's repository
	Bin            string // released binary name
	CurrentVersion string
	Platform       *platform.Context
	Resolver       Resolver
	Reporter       *ui.Reporter
}

// Run performs the self-update. Equal or newer local versions
// short-circuit without downloading. In dry-run mode every decision is
// reported but nothing is fetched or replaced.
func (u *Updater) Run(ctx context.Context, dryRun bool) error {
	u.Reporter.Step("checking for updates to %s", u.Bin)

	tag, err := u.Resolver.Resolve(ctx, u.Repo)
	if err != nil {
		return fmt.Errorf("resolve latest release: %w", err)
	}

	ordering, err := version.Compare(u.CurrentVersion, tag.Version)
	if err != nil {
		return fmt.Errorf("compare versions: %w", err)
	}
	switch ordering {
	case version.Equal:
		u.Reporter.Success("%s is already at the latest version (%s)", u.Bin, version.Display(u.CurrentVersion))
		return nil
	case version.LocalNewer:
		u.Reporter.Info("local version (%s) is newer than the latest release (%s)",
			version.Display(u.CurrentVersion), version.Display(tag.Version))
		return nil
	}

	u.Reporter.Info("updating %s %s -> %s", u.Bin,
		version.Display(u.CurrentVersion), version.Display(tag.Version))

	filename := fmt.Sprintf("%s-%s-%s.tar.gz", u.Bin, tag.Version, u.Platform.Suffix)
	assetURL := u.Resolver.AssetURL(u.Repo, tag.Raw, filename)

	if dryRun {
		u.Reporter.Detail("would download %s", assetURL)
		u.Reporter.Detail("would replace the current binary")
		return nil
	}

	target, err := ComputeTargetPath("")
	if err != nil {
		return err
	}
	if err := checkWritable(target); err != nil {
		return fmt.Errorf("cannot update %s: %w", target, err)
	}

	tmp, err := os.MkdirTemp("", "gh-app-selfupdate-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	archivePath := filepath.Join(tmp, filename)
	u.Reporter.Detail("downloading %s", assetURL)
	if err := u.Resolver.Download(ctx, assetURL, archivePath); err != nil {
		return err
	}

	extractDir := filepath.Join(tmp, "extracted")
	if err := archive.Extract(archivePath, extractDir); err != nil {
		return err
	}
	newBinary, err := archive.LocateBinary(extractDir, u.Bin)
	if err != nil {
		return fmt.Errorf("downloaded archive: %w", err)
	}

	u.Reporter.Detail("replacing %s", target)
	if err := Replace(target, newBinary); err != nil {
		return err
	}

	u.Reporter.Success("updated %s to %s", u.Bin, version.Display(tag.Version))
	u.Reporter.Detail("run the command again to use the new version")
	return nil
}

func checkWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("binary is read-only")
	}
	return nil
}

// Replace swaps target with newBinary. The running executable is
// renamed to a .old backup first, which also keeps Windows happy about
// replacing a file that is currently executing. The backup is removed
// once the copy succeeds.
func Replace(target, newBinary string) error {
	backup := target + ".old"
	if _, err := os.Stat(backup); err == nil {
		if err := os.Remove(backup); err != nil {
			return fmt.Errorf("remove stale backup: %w", err)
		}
	}
	if err := os.Rename(target, backup); err != nil {
		return fmt.Errorf("back up current binary: %w", err)
	}
	if err := copyExecutable(newBinary, target); err != nil {
		// put the old binary back, the copy never started writing
		if restoreErr := os.Rename(backup, target); restoreErr != nil {
			log.Error("could not restore backup", "backup", backup, "err", restoreErr)
		}
		return err
	}
	if err := os.Remove(backup); err != nil {
		log.Debug("leaving backup behind", "backup", backup, "err", err)
	}
	return nil
}

func copyExecutable(src, dest string) error {
	contents, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dest, contents, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return os.Chmod(dest, 0o755)
}
