// Package files implements the CLI's filesystem cleanup.
package files

import (
	"fmt"
	"os"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/redbco/redb-facade/pkg/fileutil"
	"github.com/spf13/afero"
)

// CleanOptions selects what Clean removes.
type CleanOptions struct {
	// ContentsOnly keeps the directory itself
	ContentsOnly bool
	// Match treats the path as a glob and removes matching files
	Match bool
}

// Clean removes path according to opts and reports how much was freed.
func Clean(fs afero.Fs, s *session.Session, path string, opts CleanOptions) error {
	if opts.Match {
		return cleanMatching(fs, s, path)
	}

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.Printf("ℹ️  Nothing to clean at %s\n", path)
			return nil
		}
		return err
	}

	size, err := fileutil.DirSize(fs, path)
	if err != nil {
		return fmt.Errorf("failed to measure %s: %w", path, err)
	}

	switch {
	case opts.ContentsOnly:
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", path, fileutil.ErrNotDirectory)
		}
		err = fileutil.ClearDir(fs, path)
	case info.IsDir():
		err = fileutil.RemoveDir(fs, path)
	default:
		_, err = fileutil.RemovePath(fs, path)
	}
	if err != nil {
		return err
	}

	s.Log.Infof("cleaned %s (%d bytes)", path, size)
	s.Printf("🧹 Cleaned %s, freed %s\n", path, fileutil.HumanSize(size))
	return nil
}

func cleanMatching(fs afero.Fs, s *session.Session, pattern string) error {
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var size int64
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			size += info.Size()
		}
	}

	n, err := fileutil.DeleteMatching(fs, pattern)
	if err != nil {
		return err
	}
	s.Printf("🧹 Removed %d files matching %s, freed %s\n", n, pattern, fileutil.HumanSize(size))
	return nil
}
