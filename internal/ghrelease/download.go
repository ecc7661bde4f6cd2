package ghrelease

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Download fetches url to dest, writing bytes to disk as they arrive.
// Parent directories are created as needed. A progress bar is shown
// when stderr is a terminal.
func (r *Resolver) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		return rateLimitError(resp)
	case http.StatusNotFound:
		return fmt.Errorf("download %s: asset not found", url)
	default:
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	body, finish := progress(resp.Body, resp.ContentLength)
	defer finish()

	log.Debug("downloading asset", "url", url, "dest", dest, "size", resp.ContentLength)
	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}

// progress wraps reader with a terminal progress bar. Outside a
// terminal the reader is returned unchanged.
func progress(reader io.Reader, size int64) (io.Reader, func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return reader, func() {}
	}

	bar := pb.
		New64(size).
		SetTemplate(
			pb.ProgressBarTemplate(
				color.New(color.FgHiBlack).Sprint(
					`   └ {{counters . }} {{bar . "[" "=" ">" " " "]" }}` +
						` {{percent . }} {{speed . }}`,
				),
			),
		).
		SetRefreshRate(time.Second / 60).
		SetMaxWidth(100).
		Start()

	return bar.NewProxyReader(reader), func() { bar.Finish() }
}
