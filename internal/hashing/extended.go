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

// ComputeExtended decodes the image once and computes the pair of hashes the
// P2 stage needs (pHash-16 and colorhash), applying the same orientation
// normalization as Compute. It is kept separate from Compute because the P2
// stage only runs over the (much smaller) kept set, after C6/C9 rejections —
// recomputing pHash/dHash there would be wasted work.
func ComputeExtended(path string, orientation int) (phash16, colorhash string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", "", false
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return "", "", false
	}
	img = applyOrientation(img, orientation)

	p16, err := goimagehash.ExtPerceptionHash(img, 16, 16)
	if err != nil {
		return "", "", false
	}
	return fmt.Sprintf("%064x", p16.GetHash()), Colorhash(img), true
}
