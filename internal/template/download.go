package template

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Fetcher writes the body of url to dest.
type Fetcher func(url, dest string) error

// download implements the built-in {download(url, dest)} function. The
// rendered value is always dest, so the surrounding command can refer
// to the fetched file. In dry-run mode the fetch is skipped.
func (r *Renderer) download(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("download expects 2 arguments, got %d", len(args))
	}
	url, dest := args[0], args[1]
	if r.dryRun {
		log.Debug("dry run, skipping download", "url", url, "dest", dest)
		return dest, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	if err := r.fetch(url, dest); err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	return dest, nil
}

func httpFetch(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return out.Close()
}
