package hashing

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHammingDistance(t *testing.T) {
	d, err := HammingDistance("0000000000000000", "0000000000000000")
	require.NoError(t, err)
	require.Equal(t, 0, d)

	d, err = HammingDistance("0000000000000000", "0000000000000001")
	require.NoError(t, err)
	require.Equal(t, 1, d)

	d, err = HammingDistance("ffffffffffffffff", "0000000000000000")
	require.NoError(t, err)
	require.Equal(t, 64, d)

	_, err = HammingDistance("ff", "ffff")
	require.Error(t, err)
}

func TestSHA256FileMatchesKnownDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	sum, err := SHA256File(path)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", sum)
}

func TestColorhashFixedLength(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0, A: 255})
		}
	}
	h := Colorhash(img)
	require.Len(t, h, ColorhashHexLen)
}

func TestColorhashEmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	require.Equal(t, "", Colorhash(img))
}
