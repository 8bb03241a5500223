package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benbc/recovery/internal/store"
)

func TestApplyIndividualRulesThumbPrefix(t *testing.T) {
	photo := store.Photo{ID: "a", Width: 800, Height: 600}
	d, ok := ApplyIndividualRules(photo, []string{"/home/user/thumb_IMG_0001.jpg"})
	require.True(t, ok)
	require.Equal(t, "thumb_prefix", d.RuleName)
}

func TestApplyIndividualRulesTinyIcon(t *testing.T) {
	photo := store.Photo{ID: "a", Width: 20, Height: 20}
	d, ok := ApplyIndividualRules(photo, []string{"/home/user/icon.png"})
	require.True(t, ok)
	require.Equal(t, "tiny_icon", d.RuleName)
}

func TestApplyIndividualRulesFaceThumbnail(t *testing.T) {
	photo := store.Photo{ID: "a", Width: 100, Height: 100}
	d, ok := ApplyIndividualRules(photo, []string{"/home/user/IMG_0001_face3.jpg"})
	require.True(t, ok)
	require.Equal(t, "face_thumbnail", d.RuleName)
}

func TestApplyIndividualRulesClean(t *testing.T) {
	photo := store.Photo{ID: "a", Width: 4000, Height: 3000}
	_, ok := ApplyIndividualRules(photo, []string{"/home/user/Vacation/IMG_0001.jpg"})
	require.False(t, ok)
}

func TestApplyGroupRulesThumbnailRejectedAgainstMaster(t *testing.T) {
	members := []GroupMember{
		{PhotoID: "thumb", Width: 100, Height: 100, AllPaths: []string{"/lib/Thumbnails/IMG_0001.jpg"}},
		{PhotoID: "master", Width: 4000, Height: 3000, AllPaths: []string{"/lib/Masters/IMG_0001.jpg"}},
	}
	rej := ApplyGroupRules(members)
	require.Len(t, rej, 1)
	require.Equal(t, "thumb", rej[0].PhotoID)
	require.Equal(t, "THUMBNAIL", rej[0].RuleName)
}

func TestApplyGroupRulesThumbnailKeptWhenOnlyThumbnailsOfEqualResolution(t *testing.T) {
	members := []GroupMember{
		{PhotoID: "a", Width: 100, Height: 100, AllPaths: []string{"/lib/Thumbnails/a.jpg"}},
		{PhotoID: "b", Width: 100, Height: 100, AllPaths: []string{"/lib/Thumbnails/b.jpg"}},
	}
	rej := ApplyGroupRules(members)
	require.Empty(t, rej)
}

func TestApplyGroupRulesDerivativeRejectsLowerResolution(t *testing.T) {
	members := []GroupMember{
		{PhotoID: "small", Width: 800, Height: 600, AllPaths: []string{"/a/IMG_0001_small.jpg"}},
		{PhotoID: "big", Width: 4000, Height: 3000, AllPaths: []string{"/a/IMG_0001.jpg"}},
	}
	rej := ApplyGroupRules(members)
	require.Len(t, rej, 1)
	require.Equal(t, "small", rej[0].PhotoID)
	require.Equal(t, "DERIVATIVE", rej[0].RuleName)
}

func TestApplyGroupRulesIdempotent(t *testing.T) {
	members := []GroupMember{
		{PhotoID: "thumb", Width: 100, Height: 100, AllPaths: []string{"/lib/Thumbnails/IMG_0001.jpg"}},
		{PhotoID: "master", Width: 4000, Height: 3000, HasExif: true, AllPaths: []string{"/lib/Masters/IMG_0001.jpg"}},
	}
	first := ApplyGroupRules(members)
	second := ApplyGroupRules(members)
	require.Equal(t, first, second)
}
