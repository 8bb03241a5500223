// Package metadata extracts everything C4 needs to decide whether a
// candidate file is an image worth ingesting, and what date to associate
// with it: MIME sniffing by magic bytes, EXIF fields, and filename/path date
// parsing (§4.1).
package metadata

import (
	"bytes"
	"io"
	"os"
)

// magicSignature is one content-sniffing rule: a byte prefix (at a fixed
// offset) that identifies a MIME type. No content-sniffing library appears
// anywhere in the retrieved example pack, so this table is implemented
// directly rather than via net/http.DetectContentType, whose supported type
// set is narrower than the closed list below and would misclassify
// heic/heif/webp/tiff as "application/octet-stream" (§4.1, SPEC_FULL.md
// DOMAIN STACK).
type magicSignature struct {
	mime   string
	offset int
	prefix []byte
}

var magicTable = []magicSignature{
	{"image/jpeg", 0, []byte{0xFF, 0xD8, 0xFF}},
	{"image/png", 0, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{"image/gif", 0, []byte("GIF87a")},
	{"image/gif", 0, []byte("GIF89a")},
	{"image/bmp", 0, []byte("BM")},
	{"image/tiff", 0, []byte{0x49, 0x49, 0x2A, 0x00}}, // little-endian TIFF
	{"image/tiff", 0, []byte{0x4D, 0x4D, 0x00, 0x2A}}, // big-endian TIFF
	{"image/webp", 8, []byte("WEBP")},                 // RIFF....WEBP
	{"image/heic", 4, []byte("ftypheic")},
	{"image/heic", 4, []byte("ftypheix")},
	{"image/heif", 4, []byte("ftypmif1")},
	{"image/heif", 4, []byte("ftypheim")},
}

// maxMagicRead covers the longest offset+prefix combination above.
const maxMagicRead = 32

// SniffMIME inspects a file's magic bytes and returns a MIME type from the
// closed accepted set (§4.1), or "" if no signature matches.
func SniffMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, maxMagicRead)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	buf = buf[:n]
	return sniffBytes(buf), nil
}

func sniffBytes(buf []byte) string {
	for _, sig := range magicTable {
		end := sig.offset + len(sig.prefix)
		if end > len(buf) {
			continue
		}
		if bytes.Equal(buf[sig.offset:end], sig.prefix) {
			return sig.mime
		}
	}
	return ""
}
