// Package fileutil wraps the file housekeeping the facade's tools need
// (permissions, cleanup, copies, upload validation) on top of an afero.Fs so
// callers can run it against the OS or an in-memory tree.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"
)

// DefaultPerm is applied when callers do not pass an explicit mode.
const DefaultPerm os.FileMode = 0o777

// ErrNotDirectory is returned when a directory operation hits a regular file.
var ErrNotDirectory = errors.New("not a directory")

// TempFileIdentifier derives a hex sha256 identifier from seed and the current
// unix second.
func TempFileIdentifier(seed string) string {
	return TempFileIdentifierAt(clock.New(), seed)
}

// TempFileIdentifierAt is TempFileIdentifier on an explicit clock.
func TempFileIdentifierAt(c clock.Clock, seed string) string {
	sum := sha256.Sum256([]byte(seed + strconv.FormatInt(c.Now().Unix(), 10)))
	return hex.EncodeToString(sum[:])
}

// EnsurePermissions chmods a single path.
func EnsurePermissions(fs afero.Fs, path string, mode os.FileMode) error {
	if err := fs.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// EnsurePermissionsRecursive chmods root and everything below it.
func EnsurePermissionsRecursive(fs afero.Fs, root string, mode os.FileMode) error {
	return afero.Walk(fs, root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return EnsurePermissions(fs, path, mode)
	})
}

// DeleteMatching removes every file matching the glob pattern and returns how
// many were removed. Directories that match are skipped.
func DeleteMatching(fs afero.Fs, pattern string) (int, error) {
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return 0, fmt.Errorf("glob %q: %w", pattern, err)
	}

	removed := 0
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return removed, err
		}
		if info.IsDir() {
			continue
		}
		if err := fs.Remove(m); err != nil {
			return removed, fmt.Errorf("remove %s: %w", m, err)
		}
		removed++
	}
	return removed, nil
}

// RemovePath deletes a file, or a directory with everything in it. It reports
// false without error when nothing exists at path.
func RemovePath(fs afero.Fs, path string) (bool, error) {
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := fs.RemoveAll(path); err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

// RemoveDir deletes dir and its contents.
func RemoveDir(fs afero.Fs, dir string) error {
	if err := ClearDir(fs, dir); err != nil {
		return err
	}
	if err := fs.Remove(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// ClearDir deletes everything inside dir but keeps dir itself.
func ClearDir(fs afero.Fs, dir string) error {
	if err := requireDir(fs, dir); err != nil {
		return err
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := fs.RemoveAll(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// CopyFile copies src to dst, creating or truncating dst with src's mode.
func CopyFile(fs afero.Fs, src, dst string) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("copy %s: is a directory", src)
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// EnsureDir creates path (and parents) when it is missing, then applies mode
// to the whole tree. An existing directory is left alone.
func EnsureDir(fs afero.Fs, path string, mode os.FileMode) error {
	info, err := fs.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("ensure %s: %w", path, ErrNotDirectory)
	case !os.IsNotExist(err):
		return err
	}

	if err := fs.MkdirAll(path, mode); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return EnsurePermissionsRecursive(fs, path, mode)
}

// DirSize sums the sizes of the regular files under root. A file root
// returns its own size.
func DirSize(fs afero.Fs, root string) (int64, error) {
	var total int64
	err := afero.Walk(fs, root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Extension returns the final extension of path without the dot.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// IsValidExtension reports whether ext is one of valid. Matching is exact.
func IsValidExtension(ext string, valid []string) bool {
	return slices.Contains(valid, ext)
}

// IsValidMimeType reports whether mimeType is one of valid.
func IsValidMimeType(mimeType string, valid []string) bool {
	return slices.Contains(valid, mimeType)
}

// IsValidSize reports whether size fits within maxSize bytes.
func IsValidSize(size, maxSize int64) bool {
	return size <= maxSize
}

func requireDir(fs afero.Fs, dir string) error {
	ok, err := afero.IsDir(fs, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}
