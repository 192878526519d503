// Package metadata reads and writes image/video tag metadata: EXIF/IPTC/
// XMP dates and keywords for images, the creation date for videos, and
// atomic keyword writes back to a file.
//
// Reads and writes go through a single long-lived exiftool process,
// following the worker-reuse pattern in bleemesser/photosort's
// util/import.go (one *exiftool.Exiftool per worker, never spawned
// per-file) rather than shelling out fresh for every call.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/google/uuid"
)

// dateTagOrder is the order image date tags are processed in: each
// present, parseable tag overwrites the previous one, so the last tag in
// this list that is present wins — CreateDate (EXIF DateTimeDigitized),
// then DateTimeOriginal, then ModifyDate (EXIF DateTime) last.
var dateTagOrder = []string{"CreateDate", "DateTimeOriginal", "ModifyDate"}

// videoDateTagPriority is consulted for container formats exiftool reads
// as "video" rather than "image".
var videoDateTagPriority = []string{"CreateDate", "MediaCreateDate", "TrackCreateDate"}

// minValidYear discards timestamps at or before this year: exiftool (like
// many metadata libraries) emits a zero/epoch sentinel for absent dates
// rather than an error. See DESIGN.md's note on this cutoff.
const minValidYear = 1904

// exifTimeLayout is the "%Y:%m:%d %H:%M:%S" format exiftool emits for
// date/time tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// Reader wraps a long-lived exiftool process. A Reader is not safe for
// concurrent use from multiple goroutines; callers running a worker pool
// should construct one Reader per worker, as bleemesser/photosort's
// worker() does.
type Reader struct {
	et *exiftool.Exiftool
}

// NewReader starts the underlying exiftool process.
func NewReader() (*Reader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("starting exiftool: %w", err)
	}
	return &Reader{et: et}, nil
}

// Close stops the underlying exiftool process.
func (r *Reader) Close() error {
	return r.et.Close()
}

// ImageMetadata is the subset of tag data the catalog cares about: a
// resolved "date taken", every recognized date tag found (for per-tag
// FileDate persistence), and the raw keyword list for merging.
type ImageMetadata struct {
	DateTaken *time.Time
	DateField string // which tag DateTaken came from, for FileDate.field
	Dates     map[string]time.Time
	Keywords  []string
}

// ReadImage extracts date and keyword metadata from an image file.
//
// Every tag in dateTagOrder that is present and parseable is recorded in
// Dates; DateTaken/DateField track the last one processed, so a later tag
// overwrites an earlier one's resolution rather than the first match
// winning.
func (r *Reader) ReadImage(path string) (*ImageMetadata, error) {
	fields, err := r.extract(path)
	if err != nil {
		return nil, err
	}

	meta := &ImageMetadata{Dates: map[string]time.Time{}}
	for _, tag := range dateTagOrder {
		if t, ok := parseDateField(fields, tag); ok {
			meta.Dates[tag] = t
			meta.DateTaken = &t
			meta.DateField = tag
		}
	}
	meta.Keywords = parseKeywords(fields)
	return meta, nil
}

// VideoCreationDate extracts a video's creation date, if exiftool can
// find one and it survives the minValidYear sanity filter. Unlike image
// tags, the first tag present in videoDateTagPriority wins; dates holds
// every recognized tag found, for per-tag FileDate persistence.
func (r *Reader) VideoCreationDate(path string) (dateTaken *time.Time, dateField string, dates map[string]time.Time, err error) {
	fields, err := r.extract(path)
	if err != nil {
		return nil, "", nil, err
	}
	dates = map[string]time.Time{}
	for _, tag := range videoDateTagPriority {
		if t, ok := parseDateField(fields, tag); ok {
			dates[tag] = t
		}
	}
	for _, tag := range videoDateTagPriority {
		if t, ok := dates[tag]; ok {
			dateTaken, dateField = &t, tag
			break
		}
	}
	return dateTaken, dateField, dates, nil
}

// CameraModel answers the Make and Model tags exiftool reports for path,
// used by the `filter-images --model` report.
func (r *Reader) CameraModel(path string) (make_, model string, err error) {
	fields, err := r.extract(path)
	if err != nil {
		return "", "", err
	}
	if v, ok := fields["Make"].(string); ok {
		make_ = v
	}
	if v, ok := fields["Model"].(string); ok {
		model = v
	}
	return make_, model, nil
}

func (r *Reader) extract(path string) (map[string]any, error) {
	results := r.et.ExtractMetadata(path)
	if len(results) == 0 {
		return nil, fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("extracting metadata from %s: %w", path, results[0].Err)
	}
	return results[0].Fields, nil
}

func parseDateField(fields map[string]any, tag string) (time.Time, bool) {
	raw, ok := fields[tag].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	// exiftool sometimes appends a timezone offset; keep only the part
	// our fixed layout understands.
	raw = strings.TrimSpace(raw)
	if len(raw) > len(exifTimeLayout) {
		raw = raw[:len(exifTimeLayout)]
	}
	t, err := time.Parse(exifTimeLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() <= minValidYear {
		return time.Time{}, false
	}
	return t, true
}

func parseKeywords(fields map[string]any) []string {
	raw, ok := fields["Keywords"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// WriteKeywords rewrites path's Keywords tag to exactly keywords, applied
// atomically: exiftool is asked to write a sibling temp copy, which is
// then renamed over the original, so a crash mid-write never leaves a
// half-written file.
func (r *Reader) WriteKeywords(path string, keywords []string) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+uuid.NewString()+filepath.Ext(path)+".tmp")

	if err := copyFile(path, tmp); err != nil {
		return fmt.Errorf("staging temp copy for keyword write: %w", err)
	}
	defer os.Remove(tmp)

	fms := r.et.ExtractMetadata(tmp)
	if len(fms) == 0 {
		return fmt.Errorf("exiftool returned no metadata for temp copy of %s", path)
	}
	fm := fms[0]
	if fm.Err != nil {
		return fmt.Errorf("reading temp copy before keyword write: %w", fm.Err)
	}

	fm.SetStrings("Keywords", keywords)
	written := []exiftool.FileMetadata{fm}
	r.et.WriteMetadata(written)
	if written[0].Err != nil {
		return fmt.Errorf("writing keywords to %s: %w", path, written[0].Err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming keyword-updated temp file over %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
