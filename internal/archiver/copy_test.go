package archiver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyWithValidation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	if err := os.WriteFile(src, []byte("pixel data"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "dst.png")

	if err := copyWithValidation(context.Background(), src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pixel data" {
		t.Errorf("expected copied content to match, got %q", got)
	}

	srcInfo, _ := os.Stat(src)
	dstInfo, _ := os.Stat(dst)
	if dstInfo.ModTime().Unix() != srcInfo.ModTime().Unix() {
		t.Error("expected mtime to be preserved on the destination")
	}

	if _, err := os.Stat(dst + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected the temp file to be renamed away, not left behind")
	}
}

func TestAvoidCollisionAppendsSuffix(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "IMG-1.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := avoidCollision(dir, "IMG-1.png")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "IMG-1-1.png")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAvoidCollisionNoClash(t *testing.T) {
	dir := t.TempDir()
	got, err := avoidCollision(dir, "IMG-1.png")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "IMG-1.png")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMonthDirFormat(t *testing.T) {
	got := monthDir(time.Date(2013, 12, 14, 0, 0, 0, 0, time.UTC))
	if got != "12Dec" {
		t.Errorf("got %q, want %q", got, "12Dec")
	}
}
