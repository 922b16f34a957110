// Package util - File system helpers for dataset preparation.
package util

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MoveFiles moves every entry of sourceDir into targetDir, creating targetDir if needed.
func MoveFiles(sourceDir, targetDir string) error {
	return moveEntries(sourceDir, targetDir, func(fs.DirEntry) bool { return true })
}

// MoveFolders moves every sub-directory of sourceDir into targetDir, creating
// targetDir if needed.
func MoveFolders(sourceDir, targetDir string) error {
	return moveEntries(sourceDir, targetDir, fs.DirEntry.IsDir)
}

func moveEntries(sourceDir, targetDir string, keep func(fs.DirEntry) bool) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create target directory")
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return errors.Wrap(err, "failed to read source directory")
	}

	for _, entry := range entries {
		if !keep(entry) {
			continue
		}
		src := filepath.Join(sourceDir, entry.Name())
		dst := filepath.Join(targetDir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return errors.Wrapf(err, "failed to move %s", src)
		}
	}

	return nil
}

// ListFiles returns the paths of all regular files directly inside dir, sorted.
func ListFiles(dir string) ([]string, error) {
	return listEntries(dir, func(e fs.DirEntry) bool { return e.Type().IsRegular() })
}

// ListFolders returns the paths of all directories directly inside dir, sorted.
func ListFolders(dir string) ([]string, error) {
	return listEntries(dir, fs.DirEntry.IsDir)
}

// ListFilesWithExt returns the regular files of dir whose name ends with one of
// the given suffixes (e.g. ".jpg", ".png").
func ListFilesWithExt(dir string, exts ...string) ([]string, error) {
	return listEntries(dir, func(e fs.DirEntry) bool {
		if !e.Type().IsRegular() {
			return false
		}
		for _, ext := range exts {
			if strings.HasSuffix(e.Name(), ext) {
				return true
			}
		}
		return false
	})
}

func listEntries(dir string, keep func(fs.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read directory")
	}

	var out []string
	for _, entry := range entries {
		if keep(entry) {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether a file or folder exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFolder creates a folder and any missing parents.
func CreateFolder(path string) error {
	return errors.Wrap(os.MkdirAll(path, 0o755), "failed to create folder")
}

// CreateFile creates an empty file, truncating an existing one.
func CreateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	return f.Close()
}

// CopyFile copies src to dst, preserving the permission bits and modification time.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open source file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat source file")
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrap(err, "failed to create target file")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "failed to close target file")
	}

	return errors.Wrap(os.Chtimes(dst, info.ModTime(), info.ModTime()), "failed to preserve modification time")
}

// CopyFileIfAbsent copies src to dst unless dst already exists, in which case it
// logs a warning and returns nil.
func CopyFileIfAbsent(src, dst string) error {
	if Exists(dst) {
		log.Warn().Str("path", dst).Msg("file already exists, skipping copy")
		return nil
	}
	return CopyFile(src, dst)
}

// CopyFolder recursively copies sourceDir to targetDir. An existing targetDir is
// left untouched with a warning.
func CopyFolder(sourceDir, targetDir string) error {
	if Exists(targetDir) {
		log.Warn().Str("path", targetDir).Msg("folder already exists, skipping copy")
		return nil
	}

	return filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(targetDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return CopyFile(path, dst)
	})
}
