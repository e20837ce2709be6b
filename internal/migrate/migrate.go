// Package migrate moves a library kept next to the executable, where early
// versions stored it, into the per-user data directory.
package migrate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yuanying/pdflib/internal/catalog"
)

// ErrSameDirectory is returned when the old and new library locations are
// the same directory.
var ErrSameDirectory = errors.New("source and destination are the same directory")

// SameDir reports whether a and b name the same directory.
func SameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

// LegacyDir returns the directory of the running executable.
func LegacyDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Detect reports whether oldDir holds a catalog file or a covers directory.
func Detect(oldDir string) bool {
	return exists(filepath.Join(oldDir, catalog.DefaultFileName)) ||
		exists(filepath.Join(oldDir, catalog.CoversDirName))
}

// Copy copies the catalog file and the covers tree from oldDir to newDir.
// Nothing at the destination is overwritten. Covers the copied catalog keeps
// in oldDir/covers are re-pointed to newDir/covers. It returns the items that
// were copied: the catalog file name and, when at least one cover was copied,
// the covers directory name.
func Copy(oldDir, newDir string) ([]string, error) {
	if SameDir(oldDir, newDir) {
		return nil, fmt.Errorf("%w: %s", ErrSameDirectory, oldDir)
	}
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var items []string

	src := filepath.Join(oldDir, catalog.DefaultFileName)
	dst := filepath.Join(newDir, catalog.DefaultFileName)
	if exists(src) && !exists(dst) {
		if err := copyFile(src, dst); err != nil {
			return items, fmt.Errorf("copy %s: %w", catalog.DefaultFileName, err)
		}
		items = append(items, catalog.DefaultFileName)
		if err := relocateCovers(oldDir, newDir); err != nil {
			return items, err
		}
	}

	n, err := copyTree(filepath.Join(oldDir, catalog.CoversDirName), filepath.Join(newDir, catalog.CoversDirName))
	if n > 0 {
		items = append(items, catalog.CoversDirName)
	}
	if err != nil {
		return items, fmt.Errorf("copy %s: %w", catalog.CoversDirName, err)
	}
	return items, nil
}

// Cleanup deletes the catalog file and the covers tree from oldDir.
func Cleanup(oldDir string) error {
	var errs []error
	if err := os.Remove(filepath.Join(oldDir, catalog.DefaultFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	if err := os.RemoveAll(filepath.Join(oldDir, catalog.CoversDirName)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// relocateCovers rewrites the copied catalog so its covers point into newDir.
func relocateCovers(oldDir, newDir string) error {
	store, err := catalog.New(catalog.Options{Dir: newDir})
	if err != nil {
		return err
	}
	if _, err := store.RelocateCovers(filepath.Join(oldDir, catalog.CoversDirName)); err != nil {
		return fmt.Errorf("relocate covers: %w", err)
	}
	return nil
}

// copyTree copies every regular file under src that is missing under dst and
// returns how many were copied. A missing src copies nothing.
func copyTree(src, dst string) (int, error) {
	if !exists(src) {
		return 0, nil
	}
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() || exists(target) {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

// copyFile copies src to dst through a temp file in dst's directory and keeps
// the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".migrate-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmpPath, dst)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
