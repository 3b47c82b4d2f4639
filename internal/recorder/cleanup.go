package recorder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// removeFile deletes a single screenshot. Tests replace it to inject failures.
var removeFile = os.Remove

// DeleteRecordedScreenshots removes every screenshot file in the directory
// and then the directory itself if nothing else is left in it. It reports
// whether the directory is gone afterwards; a directory that never existed
// counts as gone.
//
// The first file that cannot be removed stops the cleanup and is returned as
// an error, leaving the remaining files in place.
func (r *Recorder) DeleteRecordedScreenshots() (bool, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read screenshot directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ScreenshotExt) {
			continue
		}
		if err := removeFile(filepath.Join(r.dir, e.Name())); err != nil {
			return false, fmt.Errorf("failed to delete screenshot: %w", err)
		}
	}

	if err := os.Remove(r.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		// Non-screenshot files keep the directory alive.
		r.log.Debug("Screenshot directory kept", zapPath(r.dir), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func zapPath(path string) zap.Field {
	return zap.String("path", path)
}
