package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "photos.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	n, err := GetPhotoCount(s.DB())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestUpsertPhotoAndPathIdempotent(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.DB().Begin()
	require.NoError(t, err)

	p := Photo{ID: "abc123", MimeType: "image/jpeg", FileSize: 42}
	require.NoError(t, UpsertPhoto(tx, p))
	require.NoError(t, UpsertPhoto(tx, p)) // second insert is a no-op, not an error

	inserted, err := InsertPhotoPath(tx, p.ID, "/src/a.jpg", "a.jpg")
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = InsertPhotoPath(tx, p.ID, "/src/a.jpg", "a.jpg")
	require.NoError(t, err)
	require.False(t, inserted, "re-inserting the same path must be a no-op")

	require.NoError(t, tx.Commit())

	count, err := GetPhotoCount(s.DB())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	paths, err := PhotoPathsFor(s.DB(), p.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"/src/a.jpg"}, paths)
}

func TestStageLifecycle(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := GetStageStatus(s.DB(), "1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, RecordStageCompletion(s.DB(), "1", 10, "ok"))
	status, ok, err := GetStageStatus(s.DB(), "1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10, status.PhotoCount)

	require.NoError(t, ClearStage(s.DB(), "1"))
	_, ok, err = GetStageStatus(s.DB(), "1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAggregatedPathsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.DB().Begin()
	require.NoError(t, err)
	require.NoError(t, UpsertPhoto(tx, Photo{ID: "keep", MimeType: "image/jpeg", FileSize: 1}))
	require.NoError(t, UpsertPhoto(tx, Photo{ID: "loser", MimeType: "image/jpeg", FileSize: 1}))
	_, err = InsertPhotoPath(tx, "keep", "/src/keep.jpg", "keep.jpg")
	require.NoError(t, err)
	_, err = InsertPhotoPath(tx, "loser", "/src/loser.jpg", "loser.jpg")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, err = s.DB().Begin()
	require.NoError(t, err)
	require.NoError(t, InsertAggregatedPath(tx, AggregatedPath{KeptPhotoID: "keep", SourcePath: "/src/loser.jpg", FromPhotoID: "loser"}))
	require.NoError(t, tx.Commit())

	all, err := AllPathsForPhoto(s.DB(), "keep")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/src/keep.jpg", "/src/loser.jpg"}, all)
}
