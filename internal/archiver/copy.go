package archiver

import (
	"context"
	"fmt"
	"io"
	"os"
)

// copyWithValidation copies src to dst atomically (temp-file-then-rename)
// and validates the result, grounded on whatsoevan-backupbozo's
// copyFileWithHash: write through an io.MultiWriter isn't needed here
// (the content digest was already computed during fingerprinting), but
// the temp-then-rename shape and mtime preservation are reused directly.
//
// Validation: destination size must be > 0, must equal the source size,
// and mtime (rounded to seconds) must match. Any mismatch is a fatal
// error — the temp file is removed and dst is left untouched.
func copyWithValidation(ctx context.Context, src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", src, err)
	}

	tmp := dst + ".tmp"
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp destination %s: %w", tmp, err)
	}

	cleanup := func() {
		out.Close()
		os.Remove(tmp)
	}

	buf := make([]byte, 1024*1024)
	for {
		select {
		case <-ctx.Done():
			cleanup()
			return ctx.Err()
		default:
		}
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				cleanup()
				return fmt.Errorf("writing temp destination %s: %w", tmp, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cleanup()
			return fmt.Errorf("reading source %s: %w", src, readErr)
		}
	}

	if err := out.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp destination %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp destination %s: %w", tmp, err)
	}

	if err := os.Chtimes(tmp, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("preserving mtime on %s: %w", tmp, err)
	}

	dstInfo, err := os.Stat(tmp)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stat temp destination %s: %w", tmp, err)
	}
	if dstInfo.Size() == 0 || dstInfo.Size() != srcInfo.Size() {
		os.Remove(tmp)
		return fmt.Errorf("copy validation failed for %s: size %d != source size %d", dst, dstInfo.Size(), srcInfo.Size())
	}
	if dstInfo.ModTime().Unix() != srcInfo.ModTime().Unix() {
		os.Remove(tmp)
		return fmt.Errorf("copy validation failed for %s: mtime %v != source mtime %v", dst, dstInfo.ModTime(), srcInfo.ModTime())
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp destination into place at %s: %w", dst, err)
	}
	return nil
}
