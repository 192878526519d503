// Package dedup reduces a set of files sharing a content fingerprint to
// one canonical survivor, replacing the others with symbolic links and
// learning directory-pair priorities for future passes.
package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/constraints"
	"golang.org/x/sys/unix"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/logger"
)

// abs is the small generic helper earmarked from
// shaankhosla-immich-go/internal/groups/series/series.go's abs[T
// constraints.Integer], reused here to compare a stash copy's size with
// its source's.
func abs[T constraints.Integer](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// KeepCallback asks the caller (typically the CLI's interactive prompt)
// to pick a survivor among files, by index, when the auto-resolve pass
// cannot decide on its own.
type KeepCallback func(files []*catalog.File) (int, error)

// Deduplicator carries the catalog, a temp drive for safety-stash copies,
// and the minimum free space (in MB) that drive must retain.
type Deduplicator struct {
	Catalog       *catalog.Catalog
	Logger        *logger.Logger
	TmpPath       string
	TmpMinSpaceMB int64
	// DryRun, when set, reports what link would do without stashing,
	// removing, symlinking, or recording a priority/deduplication.
	DryRun bool
}

// New builds a Deduplicator.
func New(cat *catalog.Catalog, log *logger.Logger, tmpPath string, tmpMinSpaceMB int64) *Deduplicator {
	return &Deduplicator{Catalog: cat, Logger: log, TmpPath: tmpPath, TmpMinSpaceMB: tmpMinSpaceMB}
}

// Resolve reduces every live, non-symlinked file sharing digest to one
// survivor: an auto-resolve pass using learned PathPriority decisions,
// then (if more than one candidate remains) a manual pass via keep.
func (d *Deduplicator) Resolve(ctx context.Context, digest string, keep KeepCallback) error {
	all, err := d.Catalog.FilesWithHash(ctx, digest)
	if err != nil {
		return err
	}
	set := liveNonSymlinks(all)
	if len(set) <= 1 {
		return nil
	}

	set, err = d.autoResolve(ctx, set)
	if err != nil {
		return err
	}
	if len(set) <= 1 {
		return nil
	}

	return d.manualResolve(ctx, set, keep)
}

func liveNonSymlinks(files []*catalog.File) []*catalog.File {
	var out []*catalog.File
	for _, f := range files {
		if f.Live() && !f.SymbolicLink {
			out = append(out, f)
		}
	}
	return out
}

// autoResolve repeatedly scans ordered pairs in set, consulting
// PathPriority.Prioritise; whenever a decision is found the loser is
// linked to the winner and removed. It restarts the outer scan on any
// change and stops at a fixed point — "repeat until no change",
// implemented as an explicit changed watermark rather than recursion.
func (d *Deduplicator) autoResolve(ctx context.Context, set []*catalog.File) ([]*catalog.File, error) {
	for {
		changed := false
		for i := 0; i < len(set) && !changed; i++ {
			for j := 0; j < len(set) && !changed; j++ {
				if i == j {
					continue
				}
				fi, fj := set[i], set[j]
				direction, err := d.Catalog.Prioritise(ctx, fi.RelPathID, fj.RelPathID)
				if err != nil {
					return nil, err
				}
				if direction <= 0 {
					continue
				}
				// fi wins over fj: stash+link fj -> fi, drop fj from set.
				if err := d.link(ctx, fj, fi); err != nil {
					return nil, err
				}
				set = removeAt(set, j)
				changed = true
			}
		}
		if !changed {
			return set, nil
		}
	}
}

func removeAt(set []*catalog.File, i int) []*catalog.File {
	out := make([]*catalog.File, 0, len(set)-1)
	out = append(out, set[:i]...)
	out = append(out, set[i+1:]...)
	return out
}

// manualResolve invokes keep to pick a survivor among set, records the
// learned preference for every loser, and links each loser to the
// survivor.
func (d *Deduplicator) manualResolve(ctx context.Context, set []*catalog.File, keep KeepCallback) error {
	idx, err := keep(set)
	if err != nil {
		return fmt.Errorf("resolving duplicate set: %w", err)
	}
	if idx < 0 || idx >= len(set) {
		return fmt.Errorf("keep callback returned out-of-range index %d for %d candidates", idx, len(set))
	}
	survivor := set[idx]

	for i, f := range set {
		if i == idx {
			continue
		}
		if !d.DryRun {
			if err := d.Catalog.UpdatePriorities(ctx, survivor.RelPathID, f.RelPathID, survivor.RelPathID); err != nil {
				return err
			}
		}
		if err := d.link(ctx, f, survivor); err != nil {
			return err
		}
	}
	return nil
}

// link replaces from's on-disk file with a symlink to to, after stashing
// a safety copy on the configured temp drive.
func (d *Deduplicator) link(ctx context.Context, from, to *catalog.File) error {
	fromAbs, err := d.Catalog.FileAbsPath(ctx, from)
	if err != nil {
		return err
	}
	toAbs, err := d.Catalog.FileAbsPath(ctx, to)
	if err != nil {
		return err
	}

	if d.DryRun {
		d.Logger.Info("dry-run: would deduplicate %s -> %s", fromAbs, toAbs)
		return nil
	}

	if err := d.checkFreeSpace(); err != nil {
		return err
	}

	stashPath := filepath.Join(d.TmpPath, "storagemgr", fromAbs)
	if err := os.MkdirAll(filepath.Dir(stashPath), 0o755); err != nil {
		return fmt.Errorf("creating stash directory for %s: %w", fromAbs, err)
	}
	if err := stashCopy(fromAbs, stashPath); err != nil {
		return fmt.Errorf("stashing %s before dedup: %w", fromAbs, err)
	}

	if err := os.Remove(fromAbs); err != nil {
		return fmt.Errorf("removing %s before symlinking: %w", fromAbs, err)
	}
	if err := os.Symlink(toAbs, fromAbs); err != nil {
		return fmt.Errorf("symlinking %s -> %s: %w", fromAbs, toAbs, err)
	}

	if err := d.Catalog.MarkDeduplicated(ctx, from.ID, to.HashID); err != nil {
		return err
	}
	d.Logger.OK("deduplicated %s -> %s", fromAbs, toAbs)
	return nil
}

// checkFreeSpace aborts the dedup operation before any filesystem
// mutation if the temp drive doesn't have more than TmpMinSpaceMB free.
func (d *Deduplicator) checkFreeSpace() error {
	var st unix.Statfs_t
	if err := unix.Statfs(d.TmpPath, &st); err != nil {
		return fmt.Errorf("statfs %s: %w", d.TmpPath, err)
	}
	freeMB := int64(st.Bavail) * int64(st.Bsize) / (1024 * 1024)
	if freeMB <= d.TmpMinSpaceMB {
		return fmt.Errorf("refusing to deduplicate: %s has %d MB free, need more than %d MB", d.TmpPath, freeMB, d.TmpMinSpaceMB)
	}
	return nil
}

func stashCopy(src, dst string) error {
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
	if err := out.Sync(); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if abs(dstInfo.Size()-srcInfo.Size()) != 0 {
		return fmt.Errorf("stash copy size mismatch for %s: wrote %d bytes, source is %d", src, dstInfo.Size(), srcInfo.Size())
	}
	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
