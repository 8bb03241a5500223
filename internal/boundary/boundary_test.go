package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threshold_boundaries.json")
	b := Boundaries{Complete: []string{"5,0", "3,1"}, Single: []string{"2,0"}}
	require.NoError(t, Save(path, b))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNewCellMaskLastIncludedCell(t *testing.T) {
	mask, err := NewCellMask([]string{"5,0", "3,0", "2,1"})
	require.NoError(t, err)
	require.True(t, mask.Admits(5, 0))
	require.True(t, mask.Admits(3, 0))
	require.False(t, mask.Admits(6, 0))
	require.True(t, mask.Admits(2, 1))
	require.False(t, mask.Admits(2, 2))
}

func TestNewCellMaskEmptyAdmitsNothing(t *testing.T) {
	mask, err := NewCellMask(nil)
	require.NoError(t, err)
	require.False(t, mask.Admits(0, 0))
}

func TestNewCellMaskMalformedCell(t *testing.T) {
	_, err := NewCellMask([]string{"not-a-cell"})
	require.Error(t, err)
}

func TestSaveCreatesReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threshold_boundaries.json")
	require.NoError(t, Save(path, Boundaries{Complete: []string{"1,0"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "complete")
}
