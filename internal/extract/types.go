// Package extract runs the image-extraction pipeline for one document:
// section detection, per-page image collection, perceptual-hash duplicate
// filtering, and page-to-section assignment with deterministic naming.
package extract

import (
	"github.com/Orsso/DocuLens/internal/sections"
)

// RawImage is one embedded raster image as enumerated from a page. Index is
// the image's position in page-native enumeration order and is load-bearing:
// round-robin assignment keys off it. Width and Height are pixel dimensions
// known before full decode.
type RawImage struct {
	Data   []byte
	Page   int // 1-indexed
	Index  int // position on the page, 0-indexed
	Width  int
	Height int
	Format string // file extension without dot, e.g. "png"
}

// Document is the read side of a paginated source. Implementations must
// return pages' content in stable, page-native order; extraction determinism
// depends on it.
type Document interface {
	// PageCount returns the number of pages. Always >= 1 for an open
	// document.
	PageCount() int

	// Lines returns the document's visual text lines in reading order
	// (pages ascending, top to bottom within a page).
	Lines() ([]sections.Line, error)

	// Images returns the embedded raster images of one page in
	// enumeration order. Per-image failures are skipped inside the
	// implementation; only whole-page failures surface as errors.
	Images(page int) ([]RawImage, error)
}

// OutputImage is one surviving image with its section assignment and
// deterministic identity.
type OutputImage struct {
	Identity     string `json:"identity"`
	SectionNum   string `json:"section"`
	SectionTitle string `json:"section_title"`
	Page         int    `json:"page"`
	Sequence     int    `json:"image_number"` // per-section, starts at 1
	Data         []byte `json:"-"`
}

// Result is the complete outcome of one extraction run.
type Result struct {
	Sections          []sections.Section `json:"sections"`
	Images            []OutputImage      `json:"images"`
	RemovedDuplicates int                `json:"removed_duplicates"`
}
