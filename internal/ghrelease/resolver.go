// Package ghrelease discovers release tags and downloads release
// assets from GitHub. Tag discovery follows the redirect of the public
// releases/latest URL, which handles every tag naming convention
// without guessing: the tag is read from the redirect target, not
// parsed from a listing.
package ghrelease

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mfouesneau/gh-app/pkg/version"
)

const userAgent = "gh-app"

// ErrTagNotFound reports a repository with no published releases.
var ErrTagNotFound = errors.New("no release tag found")

// RateLimitError reports GitHub quota exhaustion (HTTP 403/429). The
// reset time is captured at fetch time; the relative countdown is
// rendered at report time.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub rate limit exceeded, resets at %s (%s)",
		e.ResetAt.UTC().Format("15:04 UTC"), e.Countdown(time.Now()))
}

// Countdown renders how long until the limit resets, relative to now.
func (e *RateLimitError) Countdown(now time.Time) string {
	left := e.ResetAt.Sub(now)
	switch {
	case left <= 0:
		return "should reset now"
	case left < time.Minute:
		return "very soon"
	case left < time.Hour:
		return fmt.Sprintf("in %dmin", int(left.Minutes()))
	default:
		return fmt.Sprintf("in %dhrs", int(left.Hours()))
	}
}

// VersionParseError reports a release tag with no numeric content,
// e.g. a repo whose latest release is tagged "latest".
type VersionParseError struct {
	Tag string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("release tag %q contains no version number", e.Tag)
}

// Tag is one resolved release: the tag as published and the version
// with any non-numeric prefix stripped.
type Tag struct {
	Raw     string
	Version string
}

// Resolver discovers the latest release tag for a repository.
// Resolutions are cached per repo for the resolver's lifetime, so a
// batch run issues at most one request per repo. Safe for concurrent
// use.
type Resolver struct {
	client  *http.Client
	baseURL string
	token   string

	mu    sync.Mutex
	cache map[string]*Tag
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithBaseURL overrides the GitHub web base URL, primarily for tests.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) { r.baseURL = strings.TrimRight(base, "/") }
}

// WithToken sets a token for authenticated requests, raising the rate
// limit. Defaults to GITHUB_TOKEN when unset.
func WithToken(token string) ResolverOption {
	return func(r *Resolver) { r.token = token }
}

// NewResolver builds a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  http.DefaultClient,
		baseURL: "https://github.com",
		token:   os.Getenv("GITHUB_TOKEN"),
		cache:   map[string]*Tag{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the latest release tag for repo ("owner/name").
func (r *Resolver) Resolve(ctx context.Context, repo string) (*Tag, error) {
	r.mu.Lock()
	if tag, ok := r.cache[repo]; ok {
		r.mu.Unlock()
		log.Debug("release cache hit", "repo", repo, "tag", tag.Raw)
		return tag, nil
	}
	r.mu.Unlock()

	tag, err := r.resolve(ctx, repo)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[repo] = tag
	r.mu.Unlock()
	return tag, nil
}

func (r *Resolver) resolve(ctx context.Context, repo string) (*Tag, error) {
	latestURL := fmt.Sprintf("%s/%s/releases/latest", r.baseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, latestURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	// Stop at the first redirect; the tag lives in its Location.
	client := *r.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", repo, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, rateLimitError(resp)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", repo, ErrTagNotFound)
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		// fall through to Location handling
	default:
		return nil, fmt.Errorf("resolve %s: unexpected status %d", repo, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	const marker = "/releases/tag/"
	idx := strings.Index(location, marker)
	if idx < 0 {
		// Repos without releases redirect back to the repo page.
		return nil, fmt.Errorf("%s: %w", repo, ErrTagNotFound)
	}
	raw := strings.Trim(location[idx+len(marker):], "/")

	v := version.Normalize(raw)
	if v == "" {
		return nil, &VersionParseError{Tag: raw}
	}
	log.Debug("resolved release", "repo", repo, "tag", raw, "version", v)
	return &Tag{Raw: raw, Version: v}, nil
}

func rateLimitError(resp *http.Response) error {
	resetAt := time.Now().Add(time.Hour)
	if unix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		resetAt = time.Unix(unix, 0)
	}
	return &RateLimitError{ResetAt: resetAt}
}

// AssetURL builds the canonical download URL for a release asset,
// https://github.com/{repo}/releases/download/{tag}/{filename}.
func (r *Resolver) AssetURL(repo, tag, filename string) string {
	return fmt.Sprintf("%s/%s/releases/download/%s/%s", r.baseURL, repo, tag, filename)
}
