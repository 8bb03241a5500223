package hashing

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
)

// PerceptualHashes holds the three DCT/gradient-based fingerprints computed
// from a single decoded image (§4.2).
type PerceptualHashes struct {
	Phash   string // 16-hex, 8x8 DCT
	Dhash   string // 16-hex, 8x8 gradient
	Phash16 string // 64-hex, 16x16 DCT (P2 stage only)
}

// Compute decodes the image at path, normalizes orientation from its EXIF
// tag, and computes pHash/dHash/pHash-16 over the result. It returns
// ok=false (no error) for any image that fails to decode, is zero-
// dimensional, or otherwise can't be hashed — callers skip such photos from
// clustering rather than treat this as a fatal error (§4.2 "partial-image
// failures ... yield None").
func Compute(path string, orientation int) (PerceptualHashes, bool) {
	f, err := os.Open(path)
	if err != nil {
		return PerceptualHashes{}, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return PerceptualHashes{}, false
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return PerceptualHashes{}, false
	}
	img = applyOrientation(img, orientation)

	p, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return PerceptualHashes{}, false
	}
	d, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return PerceptualHashes{}, false
	}
	phash := fmt.Sprintf("%016x", p.GetHash())
	dhash := fmt.Sprintf("%016x", d.GetHash())

	p16, err := goimagehash.ExtPerceptionHash(img, 16, 16)
	if err != nil {
		// pHash-16 is only needed for the optional P2 stage; a failure there
		// doesn't invalidate the primary pHash/dHash this photo already has.
		return PerceptualHashes{Phash: phash, Dhash: dhash}, true
	}

	return PerceptualHashes{Phash: phash, Dhash: dhash, Phash16: fmt.Sprintf("%064x", p16.GetHash())}, true
}

// applyOrientation rotates/flips img according to an EXIF Orientation tag
// value (1-8, per the EXIF spec), so pHash/dHash are computed on the
// upright image regardless of how the camera stored it (§4.2 "EXIF-rotation
// normalized"). orientation of 0 or 1 is a no-op.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return flipH(img)
	case 3:
		return rotate180(img)
	case 4:
		return flipV(img)
	case 5:
		return flipH(rotate90(img))
	case 6:
		return rotate90(img)
	case 7:
		return flipH(rotate270(img))
	case 8:
		return rotate270(img)
	default:
		return img
	}
}
