// Package config holds the constants that drive the recovery pipeline:
// hamming-distance thresholds, the accepted MIME set, exclusion lists, and
// batch sizes. These mirror the tunables a production run would otherwise
// scatter across stage scripts.
package config

const (
	// DBFileName is the SQLite database file created under the output root.
	DBFileName = "photos.db"
	// FilesDirName is the content-addressed hardlink tree under the output root.
	FilesDirName = "files"
	// ExportDirName is the default flat export destination under the output root.
	ExportDirName = "exported"
	// BoundaryFileName is the P2 threshold-cell-mask file read by the cluster engine.
	BoundaryFileName = "threshold_boundaries.json"
	// RatingsFileName is written by an external tuning tool; read-only here.
	RatingsFileName = "threshold_ratings.json"
)

// Perceptual hash hamming distance thresholds, tuned by visual sampling of
// pHash/dHash combinations on a real archive.
const (
	// PhashSamePhoto: pHash distance at or below this means "same photo" with
	// no further check needed.
	PhashSamePhoto = 2
	// PhashSamePhotoWithDhash: pHash distance at or below this, combined with
	// DhashSamePhoto, also means "same photo".
	PhashSamePhotoWithDhash = 6
	DhashSamePhoto          = 0

	// Grouping thresholds (should_group predicate, §4.8).
	PhashSafeGroup    = 10
	PhashBorderline12 = 12
	PhashBorderline14 = 14
	DhashExcludeAt12  = 22 // dHash >= this at pHash 12 -> exclude
	DhashIncludeAt14  = 17 // dHash <= this at pHash 14 -> include

	// BridgeMergeMinCount is the default minimum number of cross-group
	// should_group-satisfying pairs required before stage 4b merges two
	// primary groups together.
	BridgeMergeMinCount = 50
)

// MIMEToExt maps the closed set of accepted image MIME types to the file
// extension used in the content-addressed tree and the flat export.
var MIMEToExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// ExcludeFilenames lists base names that are never considered candidate
// images regardless of content.
var ExcludeFilenames = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
	".picasa.ini": true,
}

// BatchSize bounds the number of rows accumulated before a stage commits a
// transaction, keeping memory and lock duration flat regardless of corpus size.
const BatchSize = 1000

// PairBatchSize bounds the number of photo_pairs rows accumulated before a
// bulk insert during materialized pair computation (C7).
const PairBatchSize = 500000

// MinYear and MaxYear sanity-bound a year parsed out of a filename or path.
const (
	MinYear = 1990
	MaxYear = 2030
)
