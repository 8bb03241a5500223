// Package rules implements C6 (individual-rule engine) and C9 (group-rule
// engine): ordered, pure `(photo, paths) -> decision` predicates evaluated
// against the store's photo and path records.
package rules

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/benbc/recovery/internal/store"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Decision is the verdict an individual rule reaches for a photo.
type Decision struct {
	Kind     string // "reject" or "separate"
	RuleName string
}

// IndividualRule is a pure function over a photo and all of its known paths.
// matched is false if the rule doesn't apply.
type IndividualRule func(photo store.Photo, paths []string) (Decision, bool)

// pathKeywordRules reject any photo with a path containing one of these
// substrings — junk/filtered assets identified by path shape alone (§4.6).
// The set is closed and is the contract; do not extend it speculatively.
var pathKeywordRules = []struct {
	name    string
	keyword string
}{
	{"thumbnails_dir", "/thumbnails/"},
	{"minecraft", "minecraft"},
	{"hue_animation", "HUE Animation"},
	{"ichat_icons", "/iChat Icons/"},
	{"flip_video_prefs", "/My Flip Video Prefs/"},
	{"flipshare_previews", "/FlipShare Data/Previews/"},
	{"modelresources", "/modelresources/"},
	{"trash", "/.Trash"},
	{"photo_booth_filtered", "/photo booth library/pictures/"},
}

var faceThumbPattern = regexp.MustCompile(`(?i)_face\d{1,2}\.jpg$`)

// IndividualRules is the ordered list C6 evaluates; the first match wins
// (§4.6). Order matters and is part of the contract.
var IndividualRules = []IndividualRule{
	ruleThumbStartsWith,
	rulePathKeyword,
	ruleBrowserSavedAsset,
	ruleFaceThumbnail,
	ruleTinyIcon,
	ruleModelResourcesSquare,
}

func ruleThumbStartsWith(_ store.Photo, paths []string) (Decision, bool) {
	for _, p := range paths {
		if strings.HasPrefix(filepath.Base(p), "thumb_") {
			return Decision{Kind: "reject", RuleName: "thumb_prefix"}, true
		}
	}
	return Decision{}, false
}

func rulePathKeyword(_ store.Photo, paths []string) (Decision, bool) {
	for _, p := range paths {
		for _, r := range pathKeywordRules {
			if strings.Contains(p, r.keyword) {
				return Decision{Kind: "reject", RuleName: r.name}, true
			}
		}
	}
	return Decision{}, false
}

// ruleBrowserSavedAsset rejects a path living inside a "..._files/" directory
// when a sibling "....htm"/"....html" exists next to it — the Chrome/Firefox
// "save page as" layout, never a real photo (§4.6).
func ruleBrowserSavedAsset(_ store.Photo, paths []string) (Decision, bool) {
	for _, p := range paths {
		dir := filepath.Dir(p)
		base := filepath.Base(dir)
		if !strings.HasSuffix(base, "_files") {
			continue
		}
		pageBase := strings.TrimSuffix(base, "_files")
		parent := filepath.Dir(dir)
		htm := filepath.Join(parent, pageBase+".htm")
		html := filepath.Join(parent, pageBase+".html")
		if fileExists(htm) || fileExists(html) {
			return Decision{Kind: "reject", RuleName: "browser_saved_asset"}, true
		}
	}
	return Decision{}, false
}

// ruleFaceThumbnail rejects face-detection thumbnails: filenames matching
// `*_face<N>.jpg` for N in [0,99] with at most 250,000 pixels (§4.6).
func ruleFaceThumbnail(photo store.Photo, paths []string) (Decision, bool) {
	if photo.Width*photo.Height > 250000 {
		return Decision{}, false
	}
	for _, p := range paths {
		if faceThumbPattern.MatchString(filepath.Base(p)) {
			return Decision{Kind: "reject", RuleName: "face_thumbnail"}, true
		}
	}
	return Decision{}, false
}

// ruleTinyIcon rejects anything at or below 5000 total pixels (§4.6).
func ruleTinyIcon(photo store.Photo, _ []string) (Decision, bool) {
	if photo.Width > 0 && photo.Height > 0 && photo.Width*photo.Height <= 5000 {
		return Decision{Kind: "reject", RuleName: "tiny_icon"}, true
	}
	return Decision{}, false
}

// ruleModelResourcesSquare rejects icons of at most 200x200, whatever their
// aspect ratio, that live
// under a modelresources subtree — distinct from the broader path-keyword
// rejection above because this one is resolution-gated (§4.6).
func ruleModelResourcesSquare(photo store.Photo, paths []string) (Decision, bool) {
	if photo.Width == 0 || photo.Height == 0 || photo.Width > 200 || photo.Height > 200 {
		return Decision{}, false
	}
	for _, p := range paths {
		if strings.Contains(p, "modelresources") {
			return Decision{Kind: "reject", RuleName: "modelresources_square"}, true
		}
	}
	return Decision{}, false
}

// ApplyIndividualRules evaluates the ordered rule list and returns the first
// match, or ok=false if the photo is clean (§4.6).
func ApplyIndividualRules(photo store.Photo, paths []string) (Decision, bool) {
	for _, rule := range IndividualRules {
		if d, ok := rule(photo, paths); ok {
			return d, true
		}
	}
	return Decision{}, false
}
