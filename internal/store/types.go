package store

import "time"

// Photo is one row per unique SHA-256 content hash (§3).
type Photo struct {
	ID             string // 64-hex SHA-256
	MimeType       string
	FileSize       int64
	Width          int // 0 if unknown
	Height         int
	DateTaken      string // possibly partial ISO ("2004", "2004-06", ...), empty if unknown
	DateSource     string // "exif", "filename", "mtime", or a path-semantic tag
	HasExif        bool
	Orientation    int    // EXIF Orientation tag (1-8), 0 if absent
	PerceptualHash string // 16-hex pHash, empty if not computed
	Dhash          string // 16-hex dHash, empty if not computed
	CreatedAt      time.Time
}

// PhotoPath is one row per observed source path for a Photo (§3).
type PhotoPath struct {
	ID         int64
	PhotoID    string
	SourcePath string
	Filename   string
}

// IndividualDecision is at most one row per Photo (§3).
type IndividualDecision struct {
	PhotoID  string
	Decision string // "reject" or "separate"
	RuleName string
}

// DuplicateGroup assigns a Photo to a primary cluster (§3).
type DuplicateGroup struct {
	PhotoID string
	GroupID int64
}

// GroupRejection marks a Photo as rejected within its primary group (§3).
type GroupRejection struct {
	PhotoID  string
	GroupID  int64
	RuleName string
}

// AggregatedPath is an append-only provenance record copied from a rejected
// duplicate onto the photo that survived in its place (§3).
type AggregatedPath struct {
	ID          int64
	KeptPhotoID string
	SourcePath  string
	FromPhotoID string
}

// ExtendedHash holds the P2 hashes computed for a kept photo (§3).
type ExtendedHash struct {
	PhotoID   string
	Phash16   string
	Colorhash string
}

// PhotoPair is a materialized pairwise distance row (§3, C7).
type PhotoPair struct {
	PhotoID1         string
	PhotoID2         string
	SamePrimaryGroup bool
	PhashDist        int
	DhashDist        int
	Phash16Dist      int
	ColorhashDist    int
}

// StageStatus reports the completion record of one pipeline stage (§3).
type StageStatus struct {
	Stage       string
	CompletedAt time.Time
	PhotoCount  int
	Notes       string
}
