// Package archiver ingests an external tree into the canonical
// chronological archive layout, deduplicating on content at ingest and
// merging keywords into existing matches.
package archiver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/ingest"
	"github.com/akgrant43/storagemgr/internal/logger"
	"github.com/akgrant43/storagemgr/internal/metadata"
)

// Archiver copies candidate files from a source tree into a managed
// destination root, one Archiver parameterized by an injected Policy
// instead of a separate type per media kind.
type Archiver struct {
	Catalog    *catalog.Catalog
	Metadata   *metadata.Reader
	Logger     *logger.Logger
	Policy     *Policy
	BreakOnAdd bool
	// DryRun, when set, reports what archiveOne would do without copying
	// any file or mutating the catalog.
	DryRun bool

	// Progress, if set, is called once per candidate file before it is
	// inspected, so a caller can drive a progress indicator. Optional.
	Progress func(path string)
}

// New builds an Archiver.
func New(cat *catalog.Catalog, md *metadata.Reader, log *logger.Logger, policy *Policy) *Archiver {
	return &Archiver{Catalog: cat, Metadata: md, Logger: log, Policy: policy}
}

// Archive walks src recursively and archives every file the Policy
// accepts into dst, which must lie under a RootPath already registered
// with the catalog.
func (a *Archiver) Archive(ctx context.Context, src, dst string) error {
	if _, err := a.Catalog.FindOwningRoot(ctx, dst); err != nil {
		return fmt.Errorf("destination %q does not lie under a registered root: %w", dst, err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.Logger.Error("walking %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !a.Policy.Accepts(ext) {
			return nil
		}
		if a.Progress != nil {
			a.Progress(path)
		}
		if err := a.archiveOne(ctx, path, dst, ext); err != nil {
			a.Logger.Error("archiving %s: %v", path, err)
		}
		return nil
	})
}

// archiveOne inspects, matches, and copies or merges a single candidate
// file into the archive. No RelPath is created for the candidate's source
// directory (ingest.Inspect never touches the catalog), since the archive
// source tree is not itself managed; only the destination's is persisted.
func (a *Archiver) archiveOne(ctx context.Context, path, dst, ext string) error {
	snap, err := ingest.Inspect(path, a.Metadata)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", path, err)
	}
	if snap.MetadataErr != nil {
		a.Logger.Warn("%v", snap.MetadataErr)
	}

	matches, err := a.Catalog.FilesWithHash(ctx, snap.Digest)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		return a.branchA(ctx, path, dst, ext, snap)
	}
	return a.branchB(ctx, path, matches, snap)
}

// branchA archives genuinely new content: resolve date, compute the
// canonical basename with collision avoidance, copy with validation, and
// catalog the result.
func (a *Archiver) branchA(ctx context.Context, path, dst, ext string, snap *ingest.Snapshot) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	date := a.Policy.DateOf(snap, info.ModTime())

	destDir := filepath.Join(dst, fmt.Sprintf("%04d", date.Year()), monthDir(date))
	base := a.Policy.Rename(date, ext)
	if base == "" {
		base = filepath.Base(path) // generic policy: keep the original basename
	}

	if a.DryRun {
		// destDir may not exist yet, so avoidCollision can't see files a
		// real run would have already created there; good enough for a
		// preview, not a guarantee of the eventual name.
		destPath, err := avoidCollision(destDir, base)
		if err != nil {
			return err
		}
		a.Logger.Info("dry-run: would add %s -> %s (%s)", path, destPath, snap.Digest)
		return nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating archive directory %s: %w", destDir, err)
	}

	destPath, err := avoidCollision(destDir, base)
	if err != nil {
		return err
	}

	if a.BreakOnAdd {
		a.Logger.Info("break-on-add: about to archive %s -> %s", path, destPath)
	}

	if err := copyWithValidation(ctx, path, destPath); err != nil {
		return err
	}

	relPath, err := a.Catalog.GetOrCreateRelPath(ctx, destDir)
	if err != nil {
		return err
	}
	h, err := a.Catalog.GetOrCreateHash(ctx, snap.Digest)
	if err != nil {
		return err
	}
	var fieldID *int64
	if snap.DateField != "" {
		f, err := a.Catalog.GetOrCreateMetadataField(ctx, snap.DateField)
		if err != nil {
			return err
		}
		fieldID = &f.ID
	}

	created, err := a.Catalog.CreateFile(ctx, &catalog.File{
		RelPathID:      relPath.ID,
		Name:           filepath.Base(destPath),
		HashID:         h.ID,
		OriginalHashID: h.ID,
		Size:           snap.Size,
		MTime:          snap.MTime,
		DateTaken:      &date,
		DateFieldID:    fieldID,
	})
	if err != nil {
		return err
	}
	if err := a.Catalog.SetFileKeywords(ctx, created.ID, snap.Keywords); err != nil {
		return err
	}
	for tag, value := range snap.AllDates {
		tagField, err := a.Catalog.GetOrCreateMetadataField(ctx, tag)
		if err != nil {
			return err
		}
		if err := a.Catalog.AddFileDate(ctx, created.ID, tagField.ID, value); err != nil {
			return err
		}
	}

	a.Logger.OK("added %s -> %s (%s)", path, destPath, snap.Digest)
	return nil
}

// branchB merges the candidate's keywords into every existing match
// instead of copying: new = candidate ∖ existing, written back to each
// match's keyword set and its on-disk IPTC Keywords tag.
func (a *Archiver) branchB(ctx context.Context, path string, matches []*catalog.File, snap *ingest.Snapshot) error {
	for _, match := range matches {
		current, err := a.Catalog.KeywordsForFile(ctx, match.ID)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(current))
		for _, k := range current {
			have[k.Name] = true
		}

		var fresh bool
		union := make([]string, 0, len(current)+len(snap.Keywords))
		for _, k := range current {
			union = append(union, k.Name)
		}
		for _, kw := range snap.Keywords {
			if !have[kw] {
				union = append(union, kw)
				fresh = true
			}
		}
		if !fresh {
			continue
		}
		if a.DryRun {
			a.Logger.Info("dry-run: would merge keywords from %s into existing file %d", path, match.ID)
			continue
		}

		if err := a.Catalog.MergeFileKeywords(ctx, match.ID, union); err != nil {
			return err
		}

		if a.Metadata != nil {
			abs, err := a.Catalog.FileAbsPath(ctx, match)
			if err != nil {
				return err
			}
			if err := a.Metadata.WriteKeywords(abs, union); err != nil {
				return fmt.Errorf("rewriting keywords on %s: %w", abs, err)
			}
		}
	}
	a.Logger.Info("merged keywords from %s into %d existing file(s)", path, len(matches))
	return nil
}

// monthDir formats the "MMmmm" archive subdirectory component, e.g.
// "12Dec".
func monthDir(t time.Time) string {
	return fmt.Sprintf("%02d%s", int(t.Month()), t.Month().String()[:3])
}

// avoidCollision answers a path in dir for base that does not currently
// exist, inserting "-1", "-2", ... before the extension as needed.
func avoidCollision(dir, base string) (string, error) {
	candidate := filepath.Join(dir, base)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", fmt.Errorf("checking collision for %s: %w", candidate, err)
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("checking collision for %s: %w", candidate, err)
		}
	}
}
