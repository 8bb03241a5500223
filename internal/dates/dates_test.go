package dates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDateSortKeyOrdersPartialBeforeSpecific(t *testing.T) {
	keys := []string{
		dateSortKey("2004-06-15T10:00:00"),
		dateSortKey("2004-06-15"),
		dateSortKey("2004-06"),
		dateSortKey("2004"),
	}
	require.True(t, keys[3] < keys[2], "2004 should sort before 2004-06")
	require.True(t, keys[2] < keys[1], "2004-06 should sort before 2004-06-15")
	require.True(t, keys[1] < keys[0], "2004-06-15 should sort before the full timestamp")
}

func TestDateSortKeyEmptySortsLast(t *testing.T) {
	require.True(t, dateSortKey("2099") < dateSortKey(""))
}

func TestPreferSpecificDatesDropsDominatedPrefix(t *testing.T) {
	in := []candidate{{Value: "2004", SourceType: "mtime"}, {Value: "2004-06-15", SourceType: "exif"}}
	out := preferSpecificDates(in)
	require.Len(t, out, 1)
	require.Equal(t, "2004-06-15", out[0].Value)
}

func TestPreferSpecificDatesKeepsDifferentYears(t *testing.T) {
	in := []candidate{{Value: "2004", SourceType: "mtime"}, {Value: "2005-03-10", SourceType: "exif"}}
	out := preferSpecificDates(in)
	require.Len(t, out, 2)
}

// TestDeriveFromSourcesMatchesWorkedExample is spec.md §8's worked example:
// {("2004", medium), ("2004-06-15", medium), ("2011-03-02", low)} should
// yield ("2004-06-15", medium), no conflict.
func TestDeriveFromSourcesMatchesWorkedExample(t *testing.T) {
	sources := Sources{
		Medium: []candidate{
			{Value: "2004", SourceType: "filename"},
			{Value: "2004-06-15", SourceType: "filename"},
		},
		Low: []candidate{
			{Value: "2011-03-02", SourceType: "mtime"},
		},
	}
	result := deriveFromSources(sources)
	require.Equal(t, "2004-06-15", result.Value)
	require.Equal(t, "medium", result.Confidence)
	require.False(t, result.HasConflict)
}

func TestDeriveFromSourcesPicksEarliestInHighestTier(t *testing.T) {
	sources := Sources{
		Medium: []candidate{
			{Value: "2010-05-01T00:00:00", SourceType: "exif"},
			{Value: "2009-01-01T00:00:00", SourceType: "filename"},
		},
	}
	result := deriveFromSources(sources)
	require.Equal(t, "2009-01-01T00:00:00", result.Value)
	require.Equal(t, "filename", result.SourceType)
}

func TestDeriveFromSourcesNoUsableDates(t *testing.T) {
	result := deriveFromSources(Sources{})
	require.Empty(t, result.Value)
	require.Empty(t, result.Confidence)
	require.False(t, result.HasConflict)
}

func TestDeriveFromSourcesFlagsConflictOverOneYearSpan(t *testing.T) {
	sources := Sources{
		High: []candidate{
			{Value: "2004-12-25", SourceType: "path_semantic"},
			{Value: "2009-04", SourceType: "path_semantic"},
		},
	}
	result := deriveFromSources(sources)
	require.True(t, result.HasConflict)
	require.ElementsMatch(t, []string{"2004-12-25", "2009-04"}, result.ConflictDates)
	require.Equal(t, "high", result.Confidence)
}

func TestDeriveFromSourcesNoConflictWithinOneYear(t *testing.T) {
	sources := Sources{
		High: []candidate{
			{Value: "2004-01-01", SourceType: "path_semantic"},
			{Value: "2004-12-25", SourceType: "path_semantic"},
		},
	}
	result := deriveFromSources(sources)
	require.False(t, result.HasConflict)
}

func TestDeriveFromSourcesFallsThroughEmptyHighTier(t *testing.T) {
	sources := Sources{
		Low: []candidate{{Value: "2012-01-01T00:00:00", SourceType: "mtime"}},
	}
	result := deriveFromSources(sources)
	require.Equal(t, "low", result.Confidence)
	require.Equal(t, "2012-01-01T00:00:00", result.Value)
}
