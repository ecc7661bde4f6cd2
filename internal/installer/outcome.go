package installer

import (
	"errors"
	"net/url"

	"github.com/mfouesneau/gh-app/internal/archive"
	"github.com/mfouesneau/gh-app/internal/config"
	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/shell"
	"github.com/mfouesneau/gh-app/internal/template"
	"github.com/mfouesneau/gh-app/pkg/version"
)

// Kind identifies the result of processing one app.
type Kind int

const (
	// KindUpToDate means the installed version is current (or newer;
	// a newer local build is never downgraded).
	KindUpToDate Kind = iota
	// KindUpdateAvailable is a check-mode result: installed but stale.
	KindUpdateAvailable
	// KindNotInstalled is a check-mode result: binary absent.
	KindNotInstalled
	// KindInstalled means a first install completed.
	KindInstalled
	// KindUpdated means an existing install was upgraded.
	KindUpdated
	// KindSkippedPixiManaged means the binary is managed by pixi and
	// was left alone.
	KindSkippedPixiManaged
	// KindDryRun carries the ordered preview steps of what an install
	// would have done.
	KindDryRun
	// KindFailed carries the classified error for this app.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindUpToDate:
		return "up-to-date"
	case KindUpdateAvailable:
		return "update-available"
	case KindNotInstalled:
		return "not-installed"
	case KindInstalled:
		return "installed"
	case KindUpdated:
		return "updated"
	case KindSkippedPixiManaged:
		return "skipped-pixi-managed"
	case KindDryRun:
		return "dry-run"
	case KindFailed:
		return "failed"
	}
	return "unknown"
}

// ErrorKind classifies a per-app failure.
type ErrorKind string

const (
	ErrKindConfiguration       ErrorKind = "configuration"
	ErrKindNetwork             ErrorKind = "network"
	ErrKindRateLimit           ErrorKind = "rate-limit"
	ErrKindTagNotFound         ErrorKind = "tag-not-found"
	ErrKindTemplate            ErrorKind = "template"
	ErrKindUnsupportedPlatform ErrorKind = "unsupported-platform"
	ErrKindUnsupportedArchive  ErrorKind = "unsupported-archive-format"
	ErrKindExtraction          ErrorKind = "extraction"
	ErrKindBinaryNotFound      ErrorKind = "binary-not-found-in-archive"
	ErrKindSubprocess          ErrorKind = "subprocess"
	ErrKindVersionParse        ErrorKind = "version-parse"
)

// Outcome is the immutable result of processing one app. Produced by
// the dispatcher, consumed by the batch orchestrator.
type Outcome struct {
	App    string
	Kind   Kind
	Local  string   // installed version before acting, "" if absent
	Remote string   // latest known version, "" if unknown
	Steps  []string // ordered preview, KindDryRun only

	ErrKind ErrorKind // KindFailed only
	Err     error     // KindFailed only
}

// classify maps an error to its taxonomy kind via its wrapped typed
// errors, falling back to the kind of the step that produced it.
func classify(err error, fallback ErrorKind) ErrorKind {
	var (
		cfgErr    *config.ConfigurationError
		rateErr   *ghrelease.RateLimitError
		parseErr  *ghrelease.VersionParseError
		varErr    *template.UnresolvedVariableError
		fnErr     *template.UnknownFunctionError
		platErr   *platform.UnsupportedError
		formatErr *archive.UnsupportedFormatError
		exitErr   *shell.ExitError
		urlErr    *url.Error
	)
	switch {
	case errors.As(err, &cfgErr):
		return ErrKindConfiguration
	case errors.As(err, &rateErr):
		return ErrKindRateLimit
	case errors.Is(err, ghrelease.ErrTagNotFound):
		return ErrKindTagNotFound
	case errors.As(err, &parseErr), errors.Is(err, version.ErrUnparsable):
		return ErrKindVersionParse
	case errors.As(err, &varErr), errors.As(err, &fnErr):
		return ErrKindTemplate
	case errors.As(err, &platErr):
		return ErrKindUnsupportedPlatform
	case errors.As(err, &formatErr):
		return ErrKindUnsupportedArchive
	case errors.Is(err, archive.ErrBinaryNotFound):
		return ErrKindBinaryNotFound
	case errors.As(err, &exitErr):
		return ErrKindSubprocess
	case errors.As(err, &urlErr):
		return ErrKindNetwork
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return fallback
}

// kindError pins a taxonomy kind onto an error whose type alone does
// not identify it, e.g. an I/O failure during extraction.
type kindError struct {
	kind ErrorKind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func wrapKind(err error, kind ErrorKind) error {
	return &kindError{kind: kind, err: err}
}

func failed(app *config.App, err error, fallback ErrorKind) Outcome {
	return Outcome{
		App:     app.Name,
		Kind:    KindFailed,
		ErrKind: classify(err, fallback),
		Err:     err,
	}
}
