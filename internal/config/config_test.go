package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORAGEMGR_DB_PATH", "IMAGES_ARCHIVE", "VIDEO_ARCHIVE", "TMP_PATH", "TMP_MIN_SPACE"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.TmpMinSpaceMB != defaultTmpMinSpaceMB {
		t.Errorf("expected default TmpMinSpaceMB %d, got %d", defaultTmpMinSpaceMB, c.TmpMinSpaceMB)
	}
	if c.DBPath == "" {
		t.Error("expected a non-empty default DBPath")
	}
	if filepath.Base(c.DBPath) != defaultDBFileName {
		t.Errorf("expected default DB filename %q, got %q", defaultDBFileName, filepath.Base(c.DBPath))
	}
	if c.TmpPath == "" {
		t.Error("expected TmpPath to default to os.TempDir()")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGEMGR_DB_PATH", "/tmp/custom.db")
	t.Setenv("IMAGES_ARCHIVE", "/archive/images")
	t.Setenv("VIDEO_ARCHIVE", "/archive/video")
	t.Setenv("TMP_PATH", "/tmp/dedupe")
	t.Setenv("TMP_MIN_SPACE", "500")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q", c.DBPath)
	}
	if c.ImagesArchive != "/archive/images" {
		t.Errorf("ImagesArchive = %q", c.ImagesArchive)
	}
	if c.VideoArchive != "/archive/video" {
		t.Errorf("VideoArchive = %q", c.VideoArchive)
	}
	if c.TmpPath != "/tmp/dedupe" {
		t.Errorf("TmpPath = %q", c.TmpPath)
	}
	if c.TmpMinSpaceMB != 500 {
		t.Errorf("TmpMinSpaceMB = %d", c.TmpMinSpaceMB)
	}
}

func TestLoadInvalidTmpMinSpace(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMP_MIN_SPACE", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("expected an error for invalid TMP_MIN_SPACE")
	}
}
