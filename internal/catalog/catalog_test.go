package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	c, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetOrCreateHashIsIdempotent(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	h1, err := c.GetOrCreateHash(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := c.GetOrCreateHash(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if h1.ID != h2.ID {
		t.Errorf("expected the same hash row, got ids %d and %d", h1.ID, h2.ID)
	}

	h3, err := c.GetOrCreateHash(ctx, "def456")
	if err != nil {
		t.Fatal(err)
	}
	if h3.ID == h1.ID {
		t.Error("expected a distinct digest to get a distinct row")
	}
}

func TestAddRootIsIdempotent(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	r1, err := c.AddRoot(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := c.AddRoot(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != r2.ID {
		t.Errorf("expected re-adding a root to return the existing row, got %d and %d", r1.ID, r2.ID)
	}
}

func TestFindOwningRootPicksFirstMatchNotLongest(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddRoot(ctx, "/photos/2013"); err != nil {
		t.Fatal(err)
	}

	// ListRoots orders by path, so "/photos" is visited before the more
	// specific "/photos/2013" — FindOwningRoot stops on that first match
	// rather than preferring the longer, more specific one.
	got, err := c.FindOwningRoot(ctx, "/photos/2013/12Dec/img.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "/photos" {
		t.Errorf("expected the first root in iteration order to win, got %q", got.Path)
	}
}

func TestFindOwningRootNoMatch(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	_, err := c.FindOwningRoot(ctx, "/videos/clip.mp4")
	if !ErrNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateRelPathStripsOwningRoot(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	root, err := c.AddRoot(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}

	rp, err := c.GetOrCreateRelPath(ctx, "/photos/2013/12Dec")
	if err != nil {
		t.Fatal(err)
	}
	if rp.Path != "2013/12Dec" {
		t.Errorf("expected relative path %q, got %q", "2013/12Dec", rp.Path)
	}
	if rp.RootID != root.ID {
		t.Errorf("expected rel_path to reference root %d, got %d", root.ID, rp.RootID)
	}

	abs, err := c.AbsPath(ctx, rp)
	if err != nil {
		t.Fatal(err)
	}
	if abs != "/photos/2013/12Dec" {
		t.Errorf("expected round-tripped abs path %q, got %q", "/photos/2013/12Dec", abs)
	}
}

func TestAbsPathAtRootItself(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	if rp.Path != "" {
		t.Errorf("expected an empty relative path at the root itself, got %q", rp.Path)
	}
	abs, err := c.AbsPath(ctx, rp)
	if err != nil {
		t.Fatal(err)
	}
	if abs != "/photos" {
		t.Errorf("expected no double slash, got %q", abs)
	}
}

func TestLiveFileUniquePerNameAtRelPath(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	h, err := c.GetOrCreateHash(ctx, "digest-1")
	if err != nil {
		t.Fatal(err)
	}

	f := &File{RelPathID: rp.ID, Name: "img.png", HashID: h.ID, OriginalHashID: h.ID, Size: 100, MTime: time.Now()}
	created, err := c.CreateFile(ctx, f)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.MarkDeleted(ctx, created.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	// Re-creating a file with the same (rel_path, name) must succeed once
	// the prior row is soft-deleted: the partial unique index only
	// constrains live rows.
	recreated, err := c.CreateFile(ctx, f)
	if err != nil {
		t.Fatalf("expected re-creating %q after soft-delete to succeed: %v", f.Name, err)
	}
	if recreated.ID == created.ID {
		t.Error("expected a new row, not the soft-deleted one")
	}

	live, err := c.LiveFileByName(ctx, rp.ID, "img.png")
	if err != nil {
		t.Fatal(err)
	}
	if live.ID != recreated.ID {
		t.Errorf("expected the live row to be the re-created one, got id %d", live.ID)
	}
}

func TestFilesWithHashMatchesOriginalOrCurrent(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	original, err := c.GetOrCreateHash(ctx, "digest-original")
	if err != nil {
		t.Fatal(err)
	}
	current, err := c.GetOrCreateHash(ctx, "digest-current")
	if err != nil {
		t.Fatal(err)
	}

	f, err := c.CreateFile(ctx, &File{
		RelPathID: rp.ID, Name: "img.png",
		HashID: original.ID, OriginalHashID: original.ID,
		Size: 10, MTime: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	f.HashID = current.ID
	if err := c.SaveFile(ctx, f); err != nil {
		t.Fatal(err)
	}

	byOriginal, err := c.FilesWithHash(ctx, "digest-original")
	if err != nil {
		t.Fatal(err)
	}
	if len(byOriginal) != 1 || byOriginal[0].ID != f.ID {
		t.Errorf("expected lookup by original_hash to find the file, got %+v", byOriginal)
	}

	byCurrent, err := c.FilesWithHash(ctx, "digest-current")
	if err != nil {
		t.Fatal(err)
	}
	if len(byCurrent) != 1 || byCurrent[0].ID != f.ID {
		t.Errorf("expected lookup by current hash to find the file, got %+v", byCurrent)
	}
}

func TestSetFileKeywordsSymmetricDelta(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	h, err := c.GetOrCreateHash(ctx, "digest-1")
	if err != nil {
		t.Fatal(err)
	}
	f, err := c.CreateFile(ctx, &File{RelPathID: rp.ID, Name: "img.png", HashID: h.ID, OriginalHashID: h.ID, Size: 1, MTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SetFileKeywords(ctx, f.ID, []string{"beach", "family"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetFileKeywords(ctx, f.ID, []string{"family", "sunset"}); err != nil {
		t.Fatal(err)
	}

	kws, err := c.KeywordsForFile(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, k := range kws {
		got[k.Name] = true
	}
	if len(got) != 2 || !got["family"] || !got["sunset"] || got["beach"] {
		t.Errorf("expected exactly {family, sunset} after the delta, got %+v", got)
	}
}

func TestMergeFileKeywordsIsAdditiveOnly(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	h, err := c.GetOrCreateHash(ctx, "digest-1")
	if err != nil {
		t.Fatal(err)
	}
	f, err := c.CreateFile(ctx, &File{RelPathID: rp.ID, Name: "img.png", HashID: h.ID, OriginalHashID: h.ID, Size: 1, MTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.MergeFileKeywords(ctx, f.ID, []string{"beach"}); err != nil {
		t.Fatal(err)
	}
	if err := c.MergeFileKeywords(ctx, f.ID, []string{"sunset"}); err != nil {
		t.Fatal(err)
	}

	kws, err := c.KeywordsForFile(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 2 {
		t.Errorf("expected the keyword set to only grow, got %+v", kws)
	}
}

func TestPathPriorityIsOrderIndependent(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.UpdatePriorities(ctx, 5, 9, 5); err != nil {
		t.Fatal(err)
	}

	dir1, err := c.Prioritise(ctx, 5, 9)
	if err != nil {
		t.Fatal(err)
	}
	if dir1 != 1 {
		t.Errorf("expected +1 for the remembered winner, got %d", dir1)
	}

	dir2, err := c.Prioritise(ctx, 9, 5)
	if err != nil {
		t.Fatal(err)
	}
	if dir2 != -1 {
		t.Errorf("expected -1 when arguments are reversed, got %d", dir2)
	}
}

func TestPrioritiseUnknownPairReturnsZero(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	dir, err := c.Prioritise(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if dir != 0 {
		t.Errorf("expected 0 for a never-compared pair, got %d", dir)
	}
}

func TestDuplicateDigests(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	h, err := c.GetOrCreateHash(ctx, "shared-digest")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.png", "b.png"} {
		if _, err := c.CreateFile(ctx, &File{RelPathID: rp.ID, Name: name, HashID: h.ID, OriginalHashID: h.ID, Size: 1, MTime: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	unique, err := c.GetOrCreateHash(ctx, "unique-digest")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateFile(ctx, &File{RelPathID: rp.ID, Name: "c.png", HashID: unique.ID, OriginalHashID: unique.ID, Size: 1, MTime: time.Now()}); err != nil {
		t.Fatal(err)
	}

	digests, err := c.DuplicateDigests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(digests) != 1 || digests[0] != "shared-digest" {
		t.Errorf("expected only the shared digest to be reported, got %+v", digests)
	}
}
