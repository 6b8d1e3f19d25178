package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
)

// stampLayout suffixes an archive name when an earlier archive would be
// overwritten.
const stampLayout = "20060102-150405"

// WriteArchive writes res.Archive into dir and returns the path written. When
// overwrite is false and the file already exists, the run timestamp is added
// to the name.
func WriteArchive(dir string, res *Result, at time.Time, overwrite bool) (string, error) {
	if res == nil || len(res.Archive) == 0 {
		return "", fmt.Errorf("%w: no archive to write", ErrNothingGenerated)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, res.ArchiveName)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			ext := filepath.Ext(res.ArchiveName)
			base := strings.TrimSuffix(res.ArchiveName, ext)
			path = filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, at.Format(stampLayout), ext))
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, res.Archive, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	logging.Export("wrote %s (%d bytes)", path, len(res.Archive))
	return path, nil
}
