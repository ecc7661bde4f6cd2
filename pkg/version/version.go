package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Ordering is the result of comparing a local version against a remote one.
type Ordering string

const (
	Equal       Ordering = "equal"        // same version after normalization
	RemoteNewer Ordering = "remote-newer" // update available
	LocalNewer  Ordering = "local-newer"  // local build ahead; never downgrade
)

// ErrUnparsable indicates a version string with no numeric content.
var ErrUnparsable = errors.New("version has no numeric content")

// Normalize strips any leading non-digit prefix from a tag or version
// string, up to the first digit. Tags without digits normalize to "".
func Normalize(v string) string {
	trimmed := strings.TrimSpace(v)
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			return trimmed[i:]
		}
	}
	return ""
}

type parts struct {
	nums   []int
	suffix string
}

func parse(v string) (parts, error) {
	normalized := Normalize(v)
	if normalized == "" {
		return parts{}, fmt.Errorf("%w: %q", ErrUnparsable, v)
	}

	// Split off the trailing non-numeric suffix: the numeric portion is
	// the longest prefix made of digits and dots.
	numeric := normalized
	var suffix string
	for i, r := range normalized {
		if (r < '0' || r > '9') && r != '.' {
			numeric = normalized[:i]
			suffix = normalized[i:]
			break
		}
	}

	var out parts
	out.suffix = suffix
	for _, seg := range strings.Split(numeric, ".") {
		if seg == "" {
			continue
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			return parts{}, fmt.Errorf("parse segment %q in %q: %w", seg, v, err)
		}
		out.nums = append(out.nums, n)
	}
	if len(out.nums) == 0 {
		return parts{}, fmt.Errorf("%w: %q", ErrUnparsable, v)
	}
	return out, nil
}

// Compare orders a local version against a remote one.
//
// Both inputs are normalized first, so "v1.2.3" and "1.2.3" compare Equal.
// Numeric segments compare field-wise with missing trailing segments as
// zero; suffixes only break ties and rank below the suffix-less version
// ("1.2.3-beta" < "1.2.3").
func Compare(local, remote string) (Ordering, error) {
	lv, err := parse(local)
	if err != nil {
		return Equal, fmt.Errorf("local version: %w", err)
	}
	rv, err := parse(remote)
	if err != nil {
		return Equal, fmt.Errorf("remote version: %w", err)
	}

	n := len(lv.nums)
	if len(rv.nums) > n {
		n = len(rv.nums)
	}
	for i := 0; i < n; i++ {
		l, r := 0, 0
		if i < len(lv.nums) {
			l = lv.nums[i]
		}
		if i < len(rv.nums) {
			r = rv.nums[i]
		}
		if l < r {
			return RemoteNewer, nil
		}
		if l > r {
			return LocalNewer, nil
		}
	}

	switch {
	case lv.suffix == rv.suffix:
		return Equal, nil
	case lv.suffix == "":
		// local "1.2.3" outranks remote "1.2.3-beta"
		return LocalNewer, nil
	case rv.suffix == "":
		return RemoteNewer, nil
	case lv.suffix < rv.suffix:
		return RemoteNewer, nil
	default:
		return LocalNewer, nil
	}
}

var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,5}\.\d{1,5}\.\d{1,5}(?:\.\d{1,5})?)`),
	regexp.MustCompile(`v(\d{1,5}\.\d{1,5}\.\d{1,5}(?:\.\d{1,5})?)`),
	regexp.MustCompile(`version\s+(\d{1,5}\.\d{1,5}\.\d{1,5}(?:\.\d{1,5})?)`),
	regexp.MustCompile(`(\d{1,5}\.\d{1,5})`),
}

// Extract pulls a version number out of arbitrary command output.
// Patterns are tried in order of preference: x.y.z(.w), v-prefixed,
// "version x.y.z", and finally two-part x.y. Returns "" when nothing
// version-shaped is found.
func Extract(s string) string {
	for _, re := range extractPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// Display formats a version for human output, adding the conventional
// "v" prefix when the value starts with a digit.
func Display(v string) string {
	if v == "" {
		return v
	}
	if r := v[0]; r >= '0' && r <= '9' {
		return "v" + v
	}
	return v
}
