package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/logger"
)

func openTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	ctx := context.Background()
	c, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestScanDiscoversNewFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := openTestCatalog(t)
	rp, err := cat.AddRoot(ctx, root)
	if err != nil {
		t.Fatal(err)
	}

	s := New(cat, nil, logger.NewLogger(logger.ERROR, true, false), ModeQuick)
	if err := s.ScanRoot(ctx, rp); err != nil {
		t.Fatal(err)
	}

	relPath, err := cat.GetOrCreateRelPath(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	files, err := cat.LiveFilesAt(ctx, relPath.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 live files after scan, got %d", len(files))
	}
}

func TestScanSoftDeletesRemovedFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	if err := os.WriteFile(path, []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := openTestCatalog(t)
	rootRow, err := cat.AddRoot(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	s := New(cat, nil, logger.NewLogger(logger.ERROR, true, false), ModeQuick)
	if err := s.ScanRoot(ctx, rootRow); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := s.ScanRoot(ctx, rootRow); err != nil {
		t.Fatal(err)
	}

	relPath, err := cat.GetOrCreateRelPath(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	live, err := cat.LiveFilesAt(ctx, relPath.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 0 {
		t.Errorf("expected the removed file to be soft-deleted, got %d live files", len(live))
	}
}

func TestScanReconcileAfterDeleteAndRestore(t *testing.T) {
	// delete, scan (soft-deleted), restore, scan again — exactly one row
	// for the name should be live.
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "image2.png")
	content := []byte("original pixel bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cat := openTestCatalog(t)
	rootRow, err := cat.AddRoot(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	s := New(cat, nil, logger.NewLogger(logger.ERROR, true, false), ModeQuick)
	if err := s.ScanRoot(ctx, rootRow); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := s.ScanRoot(ctx, rootRow); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.ScanRoot(ctx, rootRow); err != nil {
		t.Fatal(err)
	}

	relPath, err := cat.GetOrCreateRelPath(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	live, err := cat.LiveFilesAt(ctx, relPath.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 {
		t.Fatalf("expected exactly one live row for image2.png, got %d", len(live))
	}
	if live[0].Name != "image2.png" {
		t.Errorf("expected the live row to be named image2.png, got %q", live[0].Name)
	}
}

func TestFullModeAlwaysRehashes(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	if err := os.WriteFile(path, []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := openTestCatalog(t)
	rootRow, err := cat.AddRoot(ctx, root)
	if err != nil {
		t.Fatal(err)
	}

	s := New(cat, nil, logger.NewLogger(logger.ERROR, true, false), ModeFull)
	relPath, err := cat.GetOrCreateRelPath(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	stale, err := s.needsRehash(path, &catalog.File{Size: 3, RelPathID: relPath.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("expected ModeFull to always report stale")
	}
}
