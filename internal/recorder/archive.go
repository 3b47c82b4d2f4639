package recorder

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ArchiveExt is the suffix of the archive written next to the screenshot
// directory.
const ArchiveExt = ".zip"

// ArchiveMode is the permission of a written archive, readable by the group
// like the screenshot directory.
const ArchiveMode = 0640

// PackageRecordedScreenshots zips the screenshot directory, recursively, into
// a sibling file named after the directory with ArchiveExt appended, and
// returns that path. It returns "" and no error when no screenshot was ever
// taken. The archive is built in a temporary file and renamed into place, so
// a failure never leaves a partial archive at the final path.
func (r *Recorder) PackageRecordedScreenshots() (string, error) {
	if _, err := os.Stat(r.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat screenshot directory: %w", err)
	}

	archivePath := r.ArchivePath()
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeZip(tmp, r.dir); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Chmod(ArchiveMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp archive: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, archivePath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}

	r.log.Debug("Packaged screenshots", zapPath(archivePath))
	return archivePath, nil
}

// writeZip writes every file and directory below root to w. Entry names are
// relative to root and use forward slashes.
func writeZip(w io.Writer, root string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			header.Name += "/"
			_, err = zw.CreateHeader(header)
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		header.Method = zip.Deflate

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFile(entry, path)
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from walking the screenshot directory
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only file close

	_, err = io.Copy(dst, f)
	return err
}
