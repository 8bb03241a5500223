package hashing

import (
	"fmt"
	"image"
)

// ColorhashBits is the fixed bit length of a colorhash value, rendered as 8
// hex chars. Only the low 17 bits carry information: one red-vs-green
// dominance bit for each cell of a 4x4 grid plus one average-brightness bit;
// the top 15 bits are always zero.
const ColorhashBits = 32

// ColorhashHexLen is the fixed hex string length every colorhash must have.
const ColorhashHexLen = ColorhashBits / 4

// Colorhash computes a coarse color-histogram signature over the decoded
// image: the grid is divided into a 4x4 cell layout, each cell contributes
// one dominant-channel bit, and a final bit records whether the image's
// average brightness is above or below the midpoint. This is not grounded
// in any pack library — no example repo exposes a color hash — so it is
// implemented directly against the standard library's image decode output.
func Colorhash(img image.Image) string {
	const grid = 4
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return ""
	}

	var bits uint32
	bitIdx := 0
	var totalLum uint64
	var pixelCount uint64

	cellW := w / grid
	cellH := h / grid
	if cellW == 0 {
		cellW = 1
	}
	if cellH == 0 {
		cellH = 1
	}

	for cy := 0; cy < grid; cy++ {
		for cx := 0; cx < grid; cx++ {
			x0 := b.Min.X + cx*cellW
			y0 := b.Min.Y + cy*cellH
			x1 := x0 + cellW
			y1 := y0 + cellH
			if cx == grid-1 {
				x1 = b.Max.X
			}
			if cy == grid-1 {
				y1 = b.Max.Y
			}
			var rSum, gSum uint64
			var n uint64
			for y := y0; y < y1 && y < b.Max.Y; y++ {
				for x := x0; x < x1 && x < b.Max.X; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					rSum += uint64(r >> 8)
					gSum += uint64(g >> 8)
					totalLum += luminance(r, g, bl)
					n++
					pixelCount++
				}
			}
			// One bit per cell: does red dominate green on average?
			bit := uint32(0)
			if n > 0 && rSum > gSum {
				bit = 1
			}
			bits |= bit << uint(bitIdx)
			bitIdx++
		}
	}

	if bitIdx != grid*grid {
		// defensive: grid size changed without updating ColorhashBits
		panic(fmt.Sprintf("colorhash: expected %d cell bits, computed %d", grid*grid, bitIdx))
	}

	avgLum := uint64(0)
	if pixelCount > 0 {
		avgLum = totalLum / pixelCount
	}
	brightBit := uint32(0)
	if avgLum > 127 {
		brightBit = 1
	}

	// Bit grid*grid holds the brightness bit, just above the low grid*grid
	// per-cell dominance bits computed above; the bits above it stay zero.
	full := bits | (brightBit << uint(grid*grid))
	return fmt.Sprintf("%0*x", ColorhashHexLen, full)
}

func luminance(r, g, b uint32) uint64 {
	// Rec. 601 luma, operating on the 8-bit-scaled channel values.
	rr, gg, bb := r>>8, g>>8, b>>8
	return uint64((299*rr + 587*gg + 114*bb) / 1000)
}
