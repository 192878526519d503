package archiver

import (
	"fmt"
	"time"

	"github.com/akgrant43/storagemgr/internal/ingest"
)

// Policy is the archiver's injected strategy: what to accept, how to
// decide a file's date, and how to name it once archived. This replaces
// a class hierarchy per media kind with one Archiver parameterized by a
// Policy value.
type Policy struct {
	// Name identifies the policy for logging ("image", "video", "any").
	Name string
	// Accepts decides, by lowercased extension (including the leading
	// dot), whether a candidate file belongs to this policy.
	Accepts func(ext string) bool
	// DateOf resolves a candidate's archive date from its inspected
	// snapshot, falling back to fallbackMTime when no metadata date was
	// found.
	DateOf func(snap *ingest.Snapshot, fallbackMTime time.Time) time.Time
	// Rename formats the canonical basename (without collision suffix)
	// for date at microsecond precision and lowercased extension ext.
	Rename func(date time.Time, ext string) string
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".raw": true, ".png": true, ".crw": true, ".cr2": true,
}

var videoExtensions = map[string]bool{
	".mov": true, ".mpg": true, ".mp4": true, ".m4v": true, ".mpeg": true, ".3gp": true,
}

// NewImagePolicy builds the policy for `archive --images`.
func NewImagePolicy() *Policy {
	return &Policy{
		Name:    "image",
		Accepts: func(ext string) bool { return imageExtensions[ext] },
		DateOf:  dateOfOrMTime,
		Rename: func(date time.Time, ext string) string {
			return fmt.Sprintf("IMG-%s%s", stamp(date), ext)
		},
	}
}

// NewVideoPolicy builds the policy for `archive --videos`.
func NewVideoPolicy() *Policy {
	return &Policy{
		Name:    "video",
		Accepts: func(ext string) bool { return videoExtensions[ext] },
		DateOf:  dateOfOrMTime,
		Rename: func(date time.Time, ext string) string {
			return fmt.Sprintf("VID-%s%s", stamp(date), ext)
		},
	}
}

// NewAnyPolicy builds the generic policy for `archive --files`: accepts
// every extension and keeps the original basename rather than renaming.
func NewAnyPolicy() *Policy {
	return &Policy{
		Name:    "any",
		Accepts: func(ext string) bool { return true },
		DateOf:  dateOfOrMTime,
		Rename: func(date time.Time, ext string) string {
			return "" // signals "keep the original basename" to the archiver
		},
	}
}

// NewMediaPolicy builds the policy for `archive --media`: images and
// videos, each renamed by its own convention.
func NewMediaPolicy() *Policy {
	img, vid := NewImagePolicy(), NewVideoPolicy()
	return &Policy{
		Name:    "media",
		Accepts: func(ext string) bool { return imageExtensions[ext] || videoExtensions[ext] },
		DateOf:  dateOfOrMTime,
		Rename: func(date time.Time, ext string) string {
			if imageExtensions[ext] {
				return img.Rename(date, ext)
			}
			return vid.Rename(date, ext)
		},
	}
}

func dateOfOrMTime(snap *ingest.Snapshot, fallbackMTime time.Time) time.Time {
	if snap.DateTaken != nil {
		return *snap.DateTaken
	}
	return fallbackMTime
}

// stamp formats "YYYYMMDD-HHMMSS-<microsecond>", the timestamp component
// shared by the image and video naming conventions.
func stamp(date time.Time) string {
	return fmt.Sprintf("%s-%06d", date.Format("20060102-150405"), date.Nanosecond()/1000)
}
