// Package archive extracts release archives and locates the expected
// binary inside the result.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrBinaryNotFound reports that extraction succeeded but the archive
// did not contain the expected binary. Distinct from extraction
// failure so naming-convention mismatches are diagnosable.
var ErrBinaryNotFound = errors.New("binary not found in archive")

// UnsupportedFormatError reports an archive suffix with no extractor.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %s", filepath.Base(e.Path))
}

// Extract unpacks archivePath into targetDir, dispatching on filename
// suffix: .tar.gz/.tgz, .tar and .zip are supported.
func Extract(archivePath, targetDir string) error {
	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTar(archivePath, targetDir, true)
	case strings.HasSuffix(name, ".tar"):
		return extractTar(archivePath, targetDir, false)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archivePath, targetDir)
	default:
		return &UnsupportedFormatError{Path: archivePath}
	}
}

func extractTar(archivePath, targetDir string, gzipped bool) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var src io.Reader = file
	if gzipped {
		decompressor, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		defer decompressor.Close()
		src = decompressor
	}

	reader := tar.NewReader(src)
	for {
		header, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read archive: %w", err)
		}

		target, err := safeJoin(targetDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, fs.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
}

func extractZip(archivePath, targetDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("create zip reader: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := safeJoin(targetDir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		contents, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s in archive: %w", file.Name, err)
		}
		err = writeFile(target, contents, file.Mode())
		contents.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, src io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(target), err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	return out.Close()
}

// safeJoin joins a member name onto root, rejecting entries that would
// escape it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes target directory: %s", name)
	}
	return target, nil
}

// LocateBinary searches rootDir recursively for the named binary.
// Archives commonly nest it inside a versioned subdirectory. A .exe
// sibling of the requested name also matches. Returns
// ErrBinaryNotFound when no entry matches.
func LocateBinary(rootDir, binaryName string) (string, error) {
	var found string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == binaryName || d.Name() == binaryName+".exe" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", rootDir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryName)
	}
	return found, nil
}
