// Package imagehash computes perceptual fingerprints for raster images and
// groups near-identical repeats. The fingerprint is a standard average hash:
// invariant to mild resampling and compression, sensitive to crops and
// recolors. It targets exact-repeat artifacts (logos, stamps, header art),
// not general visual similarity.
package imagehash

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Registered decoders for the formats PDFs embed in practice.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultGridSize is the side length of the downsampled grid. 8 yields a
// 64-bit fingerprint, which is plenty for the repeated-asset use case;
// raise to 16 (256 bits) for stricter matching.
const DefaultGridSize = 8

// Fingerprint is a fixed-length bit string ('0'/'1' runes) in raster order.
// The empty fingerprint means hashing failed and the image must be treated
// as unique.
type Fingerprint string

// Average decodes the payload, reduces it to a size×size grayscale grid,
// and emits one bit per cell: 1 if the cell is brighter than the grid mean.
func Average(data []byte, size int) (Fingerprint, error) {
	if size <= 0 {
		size = DefaultGridSize
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	gray := image.NewGray(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := gray.Pix
	var sum int
	for _, p := range pixels {
		sum += int(p)
	}
	mean := float64(sum) / float64(len(pixels))

	var b strings.Builder
	b.Grow(len(pixels))
	for _, p := range pixels {
		if float64(p) > mean {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return Fingerprint(b.String()), nil
}

// Distance returns the Hamming distance between two fingerprints, or -1 if
// either is empty or their lengths differ (incomparable).
func Distance(a, b Fingerprint) int {
	if a == "" || b == "" || len(a) != len(b) {
		return -1
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// Similar reports whether two fingerprints are within threshold bits of
// each other. Incomparable fingerprints are never similar.
func Similar(a, b Fingerprint, threshold int) bool {
	d := Distance(a, b)
	return d >= 0 && d <= threshold
}
