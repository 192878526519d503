// Package scanner walks a managed root subtree and reconciles the catalog
// with what is actually on disk: discovering additions, modifications,
// and deletions, and deciding when a file needs re-fingerprinting.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/ingest"
	"github.com/akgrant43/storagemgr/internal/logger"
	"github.com/akgrant43/storagemgr/internal/metadata"
)

// Mode selects the scanner's rehash policy: quick and full passes are one
// injected field on Scanner rather than separate implementations.
type Mode int

const (
	// ModeQuick re-fingerprints a file only when its stat signature
	// (size or mtime) has changed since the last scan.
	ModeQuick Mode = iota
	// ModeFull re-fingerprints every live file unconditionally.
	ModeFull
)

// Scanner reconciles a RootPath's on-disk state with the catalog.
type Scanner struct {
	Catalog  *catalog.Catalog
	Metadata *metadata.Reader
	Logger   *logger.Logger
	Mode     Mode
	// DryRun, when set, reports the files a scan would add, update, or
	// mark deleted without writing file, hash, or metadata-field rows. The
	// RelPath rows for visited directories are still created.
	DryRun bool

	// Progress, if set, is called once per file visited during a walk, so
	// a caller can drive a progress indicator. Optional.
	Progress func(path string)
}

// New builds a Scanner. md may be nil, in which case date/keyword
// metadata is skipped and only stat/hash reconciliation happens.
func New(cat *catalog.Catalog, md *metadata.Reader, log *logger.Logger, mode Mode) *Scanner {
	return &Scanner{Catalog: cat, Metadata: md, Logger: log, Mode: mode}
}

// ScanRoot reconciles one root end to end.
func (s *Scanner) ScanRoot(ctx context.Context, root *catalog.RootPath) error {
	excludes, err := s.Catalog.CompiledExcludesFor(ctx, root.ID)
	if err != nil {
		return fmt.Errorf("compiling exclude patterns for root %q: %w", root.Path, err)
	}
	return s.walk(ctx, root.Path, excludes)
}

// walk visits one directory, reconciles its live files against the
// catalog, then recurses into subdirectories not pruned by an exclude
// pattern. Mirrors Scan.scan's depth-first traversal in the Python
// original.
func (s *Scanner) walk(ctx context.Context, dir string, excludes []*regexp.Regexp) error {
	for _, re := range excludes {
		if re.MatchString(dir) {
			return nil
		}
	}

	relPath, err := s.Catalog.GetOrCreateRelPath(ctx, dir)
	if err != nil {
		return fmt.Errorf("resolving rel_path for %q: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.Logger.Error("reading directory %s: %v", dir, err)
		return nil // missing/unreadable directory: log and continue with siblings
	}

	known, err := s.Catalog.LiveFilesAt(ctx, relPath.ID)
	if err != nil {
		return fmt.Errorf("listing known files at %q: %w", dir, err)
	}
	knownByName := make(map[string]*catalog.File, len(known))
	for _, f := range known {
		knownByName[f.Name] = f
	}

	var subdirs []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, full)
			continue
		}
		delete(knownByName, entry.Name())
		if s.Progress != nil {
			s.Progress(full)
		}
		if err := s.reconcileFile(ctx, relPath.ID, entry.Name(), full); err != nil {
			s.Logger.Error("scanning %s: %v", full, err)
		}
	}

	now := time.Now()
	for _, f := range knownByName {
		if s.DryRun {
			s.Logger.Info("dry-run: would mark %s deleted", filepath.Join(dir, f.Name))
			continue
		}
		if err := s.Catalog.MarkDeleted(ctx, f.ID, now); err != nil {
			return fmt.Errorf("marking %s deleted: %w", f.Name, err)
		}
	}

	for _, sub := range subdirs {
		if err := s.walk(ctx, sub, excludes); err != nil {
			return err
		}
	}
	return nil
}

// reconcileFile handles one on-disk filename: create its File row if new,
// or re-fingerprint it if needsRehash says so.
func (s *Scanner) reconcileFile(ctx context.Context, relPathID int64, name, full string) error {
	existing, err := s.Catalog.LiveFileByName(ctx, relPathID, name)
	if err != nil && !catalog.ErrNotFound(err) {
		return err
	}

	if existing == nil {
		return s.updateDetails(ctx, relPathID, name, full, nil)
	}

	stale, err := s.needsRehash(full, existing)
	if err != nil {
		s.Logger.Error("stat %s: %v", full, err)
		return nil
	}
	if !stale {
		return nil
	}
	return s.updateDetails(ctx, relPathID, name, full, existing)
}

func (s *Scanner) needsRehash(path string, f *catalog.File) (bool, error) {
	if s.Mode == ModeFull {
		return true, nil
	}
	return ingest.NeedsRehash(path, f.Size, f.MTime)
}

// updateDetails recomputes a file's stat/hash/metadata snapshot and
// persists it — create a new File row when existing is nil, otherwise
// update in place, including the symmetric keyword delta (additions and
// removals). A transient metadata read failure (snap.MetadataErr) is
// logged and otherwise ignored: the stat/hash update still happens, but
// an existing file's date and keywords are left untouched rather than
// overwritten with the empty snapshot that a failed read produces.
func (s *Scanner) updateDetails(ctx context.Context, relPathID int64, name, path string, existing *catalog.File) error {
	snap, err := ingest.Inspect(path, s.Metadata)
	if err != nil {
		return err // IO-transient: caller logs and moves to the next file
	}
	if snap.MetadataErr != nil {
		s.Logger.Warn("%v", snap.MetadataErr)
	}

	if s.DryRun {
		if existing == nil {
			s.Logger.Info("dry-run: would add %s", path)
		} else {
			s.Logger.Info("dry-run: would update %s", path)
		}
		return nil
	}

	h, err := s.Catalog.GetOrCreateHash(ctx, snap.Digest)
	if err != nil {
		return err
	}

	var fieldID *int64
	if snap.DateField != "" {
		f, err := s.Catalog.GetOrCreateMetadataField(ctx, snap.DateField)
		if err != nil {
			return err
		}
		fieldID = &f.ID
	}

	var fileID int64
	if existing == nil {
		f := &catalog.File{
			RelPathID:      relPathID,
			Name:           name,
			HashID:         h.ID,
			OriginalHashID: h.ID,
			Size:           snap.Size,
			MTime:          snap.MTime,
			SymbolicLink:   snap.IsSymlink,
			DateTaken:      snap.DateTaken,
			DateFieldID:    fieldID,
		}
		created, err := s.Catalog.CreateFile(ctx, f)
		if err != nil {
			return err
		}
		fileID = created.ID
		if snap.MetadataErr == nil {
			if err := s.Catalog.SetFileKeywords(ctx, fileID, snap.Keywords); err != nil {
				return err
			}
		}
		s.Logger.Debug("added %s", path)
	} else {
		existing.HashID = h.ID
		existing.Size = snap.Size
		existing.MTime = snap.MTime
		existing.SymbolicLink = snap.IsSymlink
		if snap.MetadataErr == nil {
			existing.DateTaken = snap.DateTaken
			existing.DateFieldID = fieldID
		}
		if err := s.Catalog.SaveFile(ctx, existing); err != nil {
			return err
		}
		fileID = existing.ID
		if snap.MetadataErr == nil {
			if err := s.Catalog.SetFileKeywords(ctx, fileID, snap.Keywords); err != nil {
				return err
			}
		}
		s.Logger.Debug("updated %s", path)
	}

	for tag, value := range snap.AllDates {
		field, err := s.Catalog.GetOrCreateMetadataField(ctx, tag)
		if err != nil {
			return err
		}
		if err := s.Catalog.AddFileDate(ctx, fileID, field.ID, value); err != nil {
			return err
		}
	}
	return nil
}
