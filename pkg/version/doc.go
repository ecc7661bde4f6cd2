// Package version provides small, dependency-free helpers for comparing
// the version strings that release tags and binary output carry.
//
// It is designed for tools that decide whether an installed executable
// should be replaced by a published release, where tags come in many
// shapes ("v1.2.3", "1.2.3", "release-1.2.3") and installed versions are
// scraped from whatever `tool --version` happens to print.
//
// Version model
//   - Normalization strips any leading non-digit prefix up to the first
//     digit, so "v1.2.3" and "release-1.2.3" both compare as "1.2.3".
//   - Comparison is field-wise numeric over dot-separated segments, with
//     missing trailing segments treated as zero; four-segment builds
//     ("2024.7.16.1") are supported.
//   - A trailing non-numeric suffix ("-beta") ranks below the same
//     version without one, and suffixes compare lexicographically.
//   - Strings with no digits at all ("latest", "dev") are not
//     comparable and surface as ErrUnparsable.
package version
