// Package fingerprint computes the content digest used to identify a file
// across renames, re-archiving, and metadata edits.
//
// For recognized image formats the digest is taken over the decoded pixel
// buffer, so that rewriting EXIF/IPTC/XMP tags (in particular keyword
// writes performed by the archiver) never changes a file's fingerprint.
// Every other file is digested over its raw bytes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZeroLengthDigest is the reserved digest for zero-length files.
const ZeroLengthDigest = "0"

// readBlockSize is the chunk size used when streaming raw bytes through
// the hash; it only affects I/O pattern, not the resulting digest.
const readBlockSize = 64 * 1024

// ImageExtensions are the extensions considered for pixel-based fingerprinting.
// This mirrors the image extension set used by the archiver, since only
// those files are worth attempting to decode.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".raw": true, ".png": true, ".crw": true, ".cr2": true,
}

// Digest answers the content fingerprint for the file at path.
//
// Zero-length files map to ZeroLengthDigest without being opened for
// reading. Recognized images are digested over their decoded pixel bytes;
// decode failure (including formats the standard library cannot decode,
// such as .raw/.crw/.cr2) falls back to the raw byte digest.
func Digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return ZeroLengthDigest, nil
	}

	if ImageExtensions[strings.ToLower(filepath.Ext(path))] {
		if pixels, err := decodePixels(path); err == nil {
			return sha256Hex(pixels), nil
		}
	}
	return digestRawFile(path)
}

// decodePixels decodes the image at path and answers its raw pixel byte
// buffer in a stable, deterministic order (row-major, RGBA).
func decodePixels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	buf := make([]byte, 0, bounds.Dx()*bounds.Dy()*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
		}
	}
	return buf, nil
}

func digestRawFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, readBlockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
