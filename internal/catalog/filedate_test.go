package catalog

import (
	"context"
	"testing"
	"time"
)

func TestAddFileDateUpsertsPerField(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if _, err := c.AddRoot(ctx, "/photos"); err != nil {
		t.Fatal(err)
	}
	rp, err := c.GetOrCreateRelPath(ctx, "/photos")
	if err != nil {
		t.Fatal(err)
	}
	h, err := c.GetOrCreateHash(ctx, "digest")
	if err != nil {
		t.Fatal(err)
	}
	f, err := c.CreateFile(ctx, &File{RelPathID: rp.ID, Name: "img.jpg", HashID: h.ID, OriginalHashID: h.ID, Size: 1, MTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	createDate, err := c.GetOrCreateMetadataField(ctx, "CreateDate")
	if err != nil {
		t.Fatal(err)
	}
	modifyDate, err := c.GetOrCreateMetadataField(ctx, "ModifyDate")
	if err != nil {
		t.Fatal(err)
	}

	earlier := time.Unix(1000, 0).UTC()
	later := time.Unix(2000, 0).UTC()
	if err := c.AddFileDate(ctx, f.ID, createDate.ID, earlier); err != nil {
		t.Fatal(err)
	}
	if err := c.AddFileDate(ctx, f.ID, modifyDate.ID, later); err != nil {
		t.Fatal(err)
	}

	dates, err := c.FileDatesFor(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected 2 recorded dates, got %d", len(dates))
	}
	if !dates[createDate.ID].Equal(earlier) {
		t.Errorf("expected CreateDate %v, got %v", earlier, dates[createDate.ID])
	}
	if !dates[modifyDate.ID].Equal(later) {
		t.Errorf("expected ModifyDate %v, got %v", later, dates[modifyDate.ID])
	}

	// Re-recording the same field replaces its value rather than adding a
	// second row.
	replaced := time.Unix(3000, 0).UTC()
	if err := c.AddFileDate(ctx, f.ID, createDate.ID, replaced); err != nil {
		t.Fatal(err)
	}
	dates, err = c.FileDatesFor(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected re-recording a field to replace, not add, got %d dates", len(dates))
	}
	if !dates[createDate.ID].Equal(replaced) {
		t.Errorf("expected CreateDate replaced with %v, got %v", replaced, dates[createDate.ID])
	}
}
