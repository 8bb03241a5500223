package rules

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/benbc/recovery/internal/store"
)

// GroupMember is the view of a duplicate-group member the group-rule engine
// needs: its own record plus every path ever attributed to it, including
// paths aggregated from photos already rejected in an earlier pass (§4.9).
type GroupMember struct {
	PhotoID  string
	Width    int
	Height   int
	FileSize int64
	HasExif  bool
	AllPaths []string
}

// GroupRejection is one verdict the group-rule engine reached.
type GroupRejection struct {
	PhotoID  string
	RuleName string
}

func (m GroupMember) resolution() int { return m.Width * m.Height }

var cameraGeneratedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^IMG_\d+$`),
	regexp.MustCompile(`^IMG_E\d+$`),
	regexp.MustCompile(`^DSC_?\d+$`),
	regexp.MustCompile(`^DSCN?\d+$`),
	regexp.MustCompile(`^P\d{7}$`),
	regexp.MustCompile(`^\d{8}_\d+$`),
	regexp.MustCompile(`^\d{8}-\d+$`),
	regexp.MustCompile(`^PHOTO-\d{4}-\d{2}-\d{2}`),
}

func isCameraGeneratedName(filename string) bool {
	stem := strings.ToUpper(strings.TrimSuffix(filename, filepath.Ext(filename)))
	for _, p := range cameraGeneratedPatterns {
		if p.MatchString(stem) {
			return true
		}
	}
	return false
}

func hasSemanticName(m GroupMember) bool {
	if len(m.AllPaths) == 0 {
		return false
	}
	return !isCameraGeneratedName(filepath.Base(m.AllPaths[0]))
}

func isThumbnailMember(m GroupMember) bool {
	for _, p := range m.AllPaths {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "/thumbnails/") || strings.HasPrefix(filepath.Base(lower), "thumb_") {
			return true
		}
	}
	return false
}

func isPreviewMember(m GroupMember) bool {
	for _, p := range m.AllPaths {
		if strings.Contains(strings.ToLower(p), "/previews/") {
			return true
		}
	}
	return false
}

func isIPhotoLibraryMember(m GroupMember) bool {
	for _, p := range m.AllPaths {
		if strings.Contains(strings.ToLower(p), ".photolibrary/") {
			return true
		}
	}
	return false
}

func isPhotosLibraryMember(m GroupMember) bool {
	for _, p := range m.AllPaths {
		if strings.Contains(strings.ToLower(p), ".photoslibrary/") {
			return true
		}
	}
	return false
}

func aspectRatio(m GroupMember) float64 {
	if m.Height == 0 {
		return 0
	}
	return float64(m.Width) / float64(m.Height)
}

func parentFolder(path string) string {
	return filepath.Dir(path)
}

// modalParentFolder returns the most common parent folder across every
// member's every path, and how many paths share it.
func modalParentFolder(members []GroupMember) (string, int) {
	counts := map[string]int{}
	for _, m := range members {
		for _, p := range m.AllPaths {
			counts[parentFolder(p)]++
		}
	}
	best, bestCount := "", 0
	for folder, n := range counts {
		if n > bestCount {
			best, bestCount = folder, n
		}
	}
	return best, bestCount
}

func isCropOfOthers(m GroupMember, others []GroupMember) bool {
	myRatio := aspectRatio(m)
	myPixels := m.resolution()
	if myRatio == 0 || myPixels == 0 {
		return false
	}
	var otherRatios []float64
	maxPixels := myPixels
	for _, o := range others {
		if r := aspectRatio(o); r > 0 {
			otherRatios = append(otherRatios, r)
		}
		if p := o.resolution(); p > maxPixels {
			maxPixels = p
		}
	}
	if len(otherRatios) == 0 {
		return false
	}
	sort.Float64s(otherRatios)
	median := otherRatios[len(otherRatios)/2]
	if median == 0 {
		return false
	}
	diff := (myRatio - median) / median
	if diff < 0 {
		diff = -diff
	}
	return diff > 0.05 && myPixels < maxPixels
}

// rankTuple orders photos for the fallback tie-break: resolution, file size,
// has_exif, descending (§4.9).
func rankTuple(m GroupMember) [3]int64 {
	exif := int64(0)
	if m.HasExif {
		exif = 1
	}
	return [3]int64{int64(m.resolution()), m.FileSize, exif}
}

func rankLess(a, b [3]int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ApplyGroupRules runs the ordered group-rejection rules against one group's
// members (§4.9) and returns the rejections found. Members not mentioned in
// the result are kept.
func ApplyGroupRules(members []GroupMember) []GroupRejection {
	rejected := map[string]string{}

	applyThumbnailLike := func(ruleName string, isKind func(GroupMember) bool) {
		maxNonKind := 0
		hasNonKind := false
		for _, m := range members {
			if _, done := rejected[m.PhotoID]; done {
				continue
			}
			if isKind(m) {
				continue
			}
			hasNonKind = true
			if r := m.resolution(); r > maxNonKind {
				maxNonKind = r
			}
		}
		if !hasNonKind {
			return
		}
		for _, m := range members {
			if _, done := rejected[m.PhotoID]; done {
				continue
			}
			if isKind(m) && m.resolution() < maxNonKind {
				rejected[m.PhotoID] = ruleName
			}
		}
	}

	// 1. THUMBNAIL
	applyThumbnailLike("THUMBNAIL", isThumbnailMember)
	// 2. PREVIEW
	applyThumbnailLike("PREVIEW", isPreviewMember)

	// 3. IPHOTO_COPY: reject an iPhoto-library member if a Photos-library
	// member of equal resolution survives.
	for _, m := range members {
		if _, done := rejected[m.PhotoID]; done {
			continue
		}
		if !isIPhotoLibraryMember(m) {
			continue
		}
		for _, other := range members {
			if other.PhotoID == m.PhotoID {
				continue
			}
			if _, done := rejected[other.PhotoID]; done {
				continue
			}
			if isPhotosLibraryMember(other) && other.resolution() == m.resolution() {
				rejected[m.PhotoID] = "IPHOTO_COPY"
				break
			}
		}
	}

	// 4. DERIVATIVE: reject anything strictly below the best surviving
	// resolution.
	best := 0
	for _, m := range members {
		if _, done := rejected[m.PhotoID]; done {
			continue
		}
		if r := m.resolution(); r > best {
			best = r
		}
	}
	for _, m := range members {
		if _, done := rejected[m.PhotoID]; done {
			continue
		}
		if m.resolution() < best {
			rejected[m.PhotoID] = "DERIVATIVE"
		}
	}

	// 5. SAME_RES_DUPLICATE / HUMAN_SELECTED: among the survivors tied at
	// the best resolution, keep semantically-named photos, photos in the
	// group's modal directory, and apparent intentional crops, and reject the
	// rest as HUMAN_SELECTED; if none qualifies, keep only the best by the
	// fallback rank tuple and reject the rest as SAME_RES_DUPLICATE.
	var survivors []GroupMember
	for _, m := range members {
		if _, done := rejected[m.PhotoID]; !done {
			survivors = append(survivors, m)
		}
	}
	if len(survivors) > 1 {
		modalDir, modalCount := modalParentFolder(survivors)
		keep := map[string]bool{}
		for _, m := range survivors {
			if hasSemanticName(m) {
				keep[m.PhotoID] = true
				continue
			}
			if modalCount >= 2 {
				for _, p := range m.AllPaths {
					if parentFolder(p) == modalDir {
						keep[m.PhotoID] = true
						break
					}
				}
			}
			if !keep[m.PhotoID] {
				var others []GroupMember
				for _, o := range survivors {
					if o.PhotoID != m.PhotoID {
						others = append(others, o)
					}
				}
				if isCropOfOthers(m, others) {
					keep[m.PhotoID] = true
				}
			}
		}
		if len(keep) == 0 {
			// Nothing distinguishes the survivors semantically; fall back
			// to the rank tuple and keep only the single best.
			sort.Slice(survivors, func(i, j int) bool {
				return rankLess(rankTuple(survivors[j]), rankTuple(survivors[i]))
			})
			for _, m := range survivors[1:] {
				rejected[m.PhotoID] = "SAME_RES_DUPLICATE"
			}
		} else {
			for _, m := range survivors {
				if !keep[m.PhotoID] {
					rejected[m.PhotoID] = "HUMAN_SELECTED"
				}
			}
		}
	}

	out := make([]GroupRejection, 0, len(rejected))
	for id, rule := range rejected {
		out = append(out, GroupRejection{PhotoID: id, RuleName: rule})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhotoID < out[j].PhotoID })
	return out
}

// MemberFromStore adapts a store row into the engine's view, joining its own
// and aggregated paths (§4.9's "operates on each group's members with their
// aggregated paths").
func MemberFromStore(photo store.Photo, fileSize int64, paths []string) GroupMember {
	return GroupMember{
		PhotoID:  photo.ID,
		Width:    photo.Width,
		Height:   photo.Height,
		FileSize: fileSize,
		HasExif:  photo.HasExif,
		AllPaths: paths,
	}
}

// Keeper picks the single best-ranked member of a (non-empty) member set by
// the same rank tuple the SAME_RES_DUPLICATE fallback uses: resolution,
// file size, has_exif, descending. Used to pick an aggregation target when a
// rejection doesn't already name one.
func Keeper(members []GroupMember) GroupMember {
	best := members[0]
	for _, m := range members[1:] {
		if rankLess(rankTuple(best), rankTuple(m)) {
			best = m
		}
	}
	return best
}
