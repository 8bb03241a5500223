package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSniffMIMEJpeg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	mime, err := SniffMIME(path)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mime)
}

func TestSniffMIMENotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))
	mime, err := SniffMIME(path)
	require.NoError(t, err)
	require.Equal(t, "", mime)
}

func TestParseFilenameDateCompactDateTime(t *testing.T) {
	dt, ok := ParseFilenameDate("IMG_20040615_143000.jpg")
	require.True(t, ok)
	require.Equal(t, 2004, dt.Year())
	require.Equal(t, 6, int(dt.Month()))
	require.Equal(t, 15, dt.Day())
	require.Equal(t, 14, dt.Hour())
}

func TestParseFilenameDateDashOnly(t *testing.T) {
	dt, ok := ParseFilenameDate("scan-2010-04-02.png")
	require.True(t, ok)
	require.Equal(t, 2010, dt.Year())
	require.Equal(t, 4, int(dt.Month()))
}

func TestParseFilenameDateOutOfRangeRejected(t *testing.T) {
	_, ok := ParseFilenameDate("file_19500101.jpg")
	require.False(t, ok)
}

func TestParseFilenameDateNoMatch(t *testing.T) {
	_, ok := ParseFilenameDate("random_name.jpg")
	require.False(t, ok)
}

func TestParsePathDateXmas(t *testing.T) {
	c := ParsePathDate("/archive/Xmas 2004/IMG_01.jpg")
	require.NotEmpty(t, c)
	require.Equal(t, "2004-12-25", c[0].Value)
	require.Equal(t, "high", c[0].Confidence)
}

func TestParsePathDateMonthYear(t *testing.T) {
	c := ParsePathDate("/archive/April 2010/pic.jpg")
	found := false
	for _, cand := range c {
		if cand.Value == "2010-04" && cand.Confidence == "medium" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParsePathDateBareYear(t *testing.T) {
	c := ParsePathDate("/archive/2004/summer/IMG_01.jpg")
	found := false
	for _, cand := range c {
		if cand.Value == "2004" && cand.Confidence == "low" {
			found = true
		}
	}
	require.True(t, found)
}
