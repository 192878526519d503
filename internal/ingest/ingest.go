// Package ingest computes the stat/hash/metadata snapshot the scanner and
// archiver both need to persist for a file, factoring that logic into
// one shared collaborator instead of duplicating it in both callers.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akgrant43/storagemgr/internal/fingerprint"
	"github.com/akgrant43/storagemgr/internal/metadata"
)

// VideoExtensions are the recognized video container extensions.
var VideoExtensions = map[string]bool{
	".mov": true, ".mpg": true, ".mp4": true, ".m4v": true, ".mpeg": true, ".3gp": true,
}

// Snapshot is everything recomputed for a file at stat/hash/metadata time.
type Snapshot struct {
	Digest    string
	Size      int64
	MTime     time.Time
	IsSymlink bool
	DateTaken *time.Time
	DateField string
	AllDates  map[string]time.Time // every recognized date tag found, for FileDate
	Keywords  []string

	// MetadataErr, if set, means the image/video metadata read failed
	// (parse/IO-transient): DateTaken, DateField, AllDates, and Keywords
	// are left at their zero values and the caller must not treat that
	// as "no metadata on this file" — it should log a warning and leave
	// any previously cataloged date/keywords untouched.
	MetadataErr error
}

// Inspect stats path, fingerprints it, and — for recognized image or
// video extensions — reads date and keyword metadata. Uses os.Lstat so a
// symlink's own mtime/size is observed rather than its target's.
func Inspect(path string, md *metadata.Reader) (*Snapshot, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	digest, err := fingerprint.Digest(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", path, err)
	}

	snap := &Snapshot{
		Digest:    digest,
		Size:      info.Size(),
		MTime:     info.ModTime(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case fingerprint.ImageExtensions[ext]:
		if md == nil {
			break
		}
		m, err := md.ReadImage(path)
		if err != nil {
			snap.MetadataErr = fmt.Errorf("reading image metadata for %s: %w", path, err)
			break
		}
		snap.DateTaken = m.DateTaken
		snap.DateField = m.DateField
		snap.AllDates = m.Dates
		snap.Keywords = m.Keywords
	case VideoExtensions[ext]:
		if md == nil {
			break
		}
		t, field, dates, err := md.VideoCreationDate(path)
		if err != nil {
			snap.MetadataErr = fmt.Errorf("reading video metadata for %s: %w", path, err)
			break
		}
		snap.DateTaken = t
		snap.DateField = field
		snap.AllDates = dates
	}

	return snap, nil
}

// NeedsRehash decides whether a file's stat signature differs from the
// catalog's stored size/mtime, the quick-scan rehash trigger. Full scans
// always rehash and never call this.
func NeedsRehash(path string, storedSize int64, storedMTime time.Time) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() != storedSize {
		return true, nil
	}
	// Stored mtimes are truncated to whole seconds, so compare at that
	// granularity rather than with sub-second precision.
	return info.ModTime().Unix() != storedMTime.Unix(), nil
}
