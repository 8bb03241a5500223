// Package hashing computes the content and perceptual fingerprints the
// pipeline identifies and clusters photos by: streaming SHA-256, pHash,
// dHash, pHash-16, and a coarse color histogram ("colorhash").
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize matches the streaming read size used throughout the pipeline so
// memory stays flat regardless of file size (§4.2).
const chunkSize = 8192

// SHA256File streams a file's bytes through SHA-256 and returns the lowercase
// hex digest used as the Photo id (§3: "All hash fields ... are lowercase
// hex of fixed length").
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()
	return SHA256Reader(f)
}

// SHA256Reader streams r through SHA-256 in fixed-size chunks.
func SHA256Reader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("streaming content for hashing: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
