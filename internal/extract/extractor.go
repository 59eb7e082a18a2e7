package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Orsso/DocuLens/internal/imagehash"
	"github.com/Orsso/DocuLens/internal/sections"
)

// Config holds the pipeline tunables. All of them materially change which
// images survive or how they are named, so they flow in from configuration
// rather than being hardcoded.
type Config struct {
	// HashSize is the fingerprint grid side length (8 → 64 bits).
	HashSize int
	// SimilarityThreshold is the max Hamming distance for "same image".
	SimilarityThreshold int
	// MinOccurrences is the group size at which repeats become noise.
	MinOccurrences int
	// MinImageDim discards images narrower or shorter than this many
	// pixels as decorative artifacts, before deduplication.
	MinImageDim int
	// FlatPagesDivisor and FlatMinPages shape the partition used when
	// hierarchy detection is turned off: chunks of
	// max(FlatMinPages, totalPages/FlatPagesDivisor) pages.
	FlatPagesDivisor int
	FlatMinPages     int

	// HeadingDenylist replaces the scanner's default boilerplate-prefix
	// denylist when non-empty.
	HeadingDenylist []string

	Naming NamingConfig
}

// DefaultConfig returns the tuning used by the original tool: 64-bit
// fingerprints, 6-bit tolerance, 3 repeats to count as noise, 50px floor.
func DefaultConfig() Config {
	return Config{
		HashSize:            imagehash.DefaultGridSize,
		SimilarityThreshold: 6,
		MinOccurrences:      3,
		MinImageDim:         50,
		FlatPagesDivisor:    3,
		FlatMinPages:        5,
		Naming:              DefaultNamingConfig(),
	}
}

// Options are per-run caller choices.
type Options struct {
	// DocumentName feeds the nomenclature identity; already sanitized.
	DocumentName string
	// FilterDuplicates enables perceptual-hash noise filtering.
	FilterDuplicates bool
	// DetectHierarchy enables typographic section detection; off means a
	// flat page partition.
	DetectHierarchy bool
}

// Extractor runs the pipeline. It is stateless across runs; every run owns
// its own counters.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HashSize <= 0 {
		cfg.HashSize = imagehash.DefaultGridSize
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// ErrNoPages is returned for documents with zero pages; this is one of the
// two fatal conditions (the other being an unopenable source, surfaced by
// the document layer).
var ErrNoPages = errors.New("document has no pages")

// Run executes the pipeline over an open document. Section detection
// completes first, then images are collected page by page, hashed and
// filtered as one set, and finally assigned to sections in original
// enumeration order.
func (e *Extractor) Run(ctx context.Context, doc Document, opts Options) (*Result, error) {
	totalPages := doc.PageCount()
	if totalPages < 1 {
		return nil, ErrNoPages
	}

	secs, err := e.detectSections(doc, totalPages, opts)
	if err != nil {
		return nil, err
	}

	collected := e.collectImages(ctx, doc, totalPages)

	var removed int
	survivors := collected
	if opts.FilterDuplicates {
		survivors, removed = e.filterDuplicates(collected)
	}

	out := e.assign(survivors, secs, opts.DocumentName)

	e.logger.Info("extraction complete",
		"document", opts.DocumentName,
		"pages", totalPages,
		"sections", len(secs),
		"images", len(out),
		"removed_duplicates", removed)

	return &Result{Sections: secs, Images: out, RemovedDuplicates: removed}, nil
}

// detectSections produces the section list once per document. It never
// fails structurally: an empty detection degrades to the fallback partition
// inside the consolidator.
func (e *Extractor) detectSections(doc Document, totalPages int, opts Options) ([]sections.Section, error) {
	if !opts.DetectHierarchy {
		per := totalPages / e.cfg.FlatPagesDivisor
		if per < e.cfg.FlatMinPages {
			per = e.cfg.FlatMinPages
		}
		return sections.FlatPartition(totalPages, per), nil
	}

	lines, err := doc.Lines()
	if err != nil {
		// Text-layer trouble is not fatal; the fallback partition still
		// gives every image a home.
		e.logger.Warn("text extraction failed, using fallback partition", "error", err)
		return sections.FallbackSections(totalPages), nil
	}

	cands := sections.NewScanner(sections.WithDenylist(e.cfg.HeadingDenylist)).Scan(lines)
	e.logger.Debug("section candidates found", "count", len(cands))
	return sections.NewConsolidator(e.logger).Consolidate(cands, totalPages), nil
}

// collectImages walks pages in increasing order and keeps every image that
// clears the minimum pixel dimension. Page-level extraction failures are
// logged and skipped; they never abort the run.
func (e *Extractor) collectImages(ctx context.Context, doc Document, totalPages int) []RawImage {
	var collected []RawImage
	for page := 1; page <= totalPages; page++ {
		if ctx.Err() != nil {
			return collected
		}
		imgs, err := doc.Images(page)
		if err != nil {
			e.logger.Warn("image enumeration failed for page", "page", page, "error", err)
			continue
		}
		for _, img := range imgs {
			// Zero dimensions mean the codec was not recognized; those
			// images pass through rather than being judged tiny.
			if img.Width > 0 && img.Height > 0 &&
				(img.Width < e.cfg.MinImageDim || img.Height < e.cfg.MinImageDim) {
				e.logger.Debug("skipping tiny image",
					"page", img.Page, "index", img.Index,
					"width", img.Width, "height", img.Height)
				continue
			}
			collected = append(collected, img)
		}
	}
	return collected
}

// filterDuplicates hashes the whole collected set and drops over-represented
// groups down to their largest member. Images whose fingerprint cannot be
// computed are conservatively treated as unique and never dropped.
func (e *Extractor) filterDuplicates(collected []RawImage) ([]RawImage, int) {
	items := make([]imagehash.Item, len(collected))
	for i, img := range collected {
		fp, err := imagehash.Average(img.Data, e.cfg.HashSize)
		if err != nil {
			e.logger.Warn("fingerprint failed, keeping image as unique",
				"page", img.Page, "index", img.Index, "error", err)
			fp = ""
		}
		items[i] = imagehash.Item{Fingerprint: fp, Size: len(img.Data)}
	}

	keep, removed := imagehash.Filter(items, imagehash.GrouperConfig{
		SimilarityThreshold: e.cfg.SimilarityThreshold,
		MinOccurrences:      e.cfg.MinOccurrences,
	})

	survivors := make([]RawImage, 0, len(collected))
	for i, img := range collected {
		if keep[i] {
			survivors = append(survivors, img)
		}
	}
	if removed > 0 {
		e.logger.Info("duplicate images filtered", "removed", removed, "kept", len(survivors))
	}
	return survivors, removed
}

// assign walks the surviving images in original order, resolves each one's
// section, and stamps the per-section sequence number and identity.
func (e *Extractor) assign(survivors []RawImage, secs []sections.Section, docName string) []OutputImage {
	a := newAssigner(secs)
	seq := make(map[string]int, len(secs))

	out := make([]OutputImage, 0, len(survivors))
	for _, img := range survivors {
		sec := a.sectionFor(img.Page, img.Index)
		seq[sec.Number]++
		n := seq[sec.Number]
		out = append(out, OutputImage{
			Identity:     e.cfg.Naming.Identity(docName, sec.Number, n),
			SectionNum:   sec.Number,
			SectionTitle: sec.Title,
			Page:         img.Page,
			Sequence:     n,
			Data:         img.Data,
		})
	}
	return out
}

// Validate checks a Config for values that would silently break filtering.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 {
		return fmt.Errorf("similarity threshold must be >= 0, got %d", c.SimilarityThreshold)
	}
	if c.MinOccurrences < 2 {
		return fmt.Errorf("min occurrences must be >= 2, got %d", c.MinOccurrences)
	}
	if c.HashSize != 8 && c.HashSize != 16 {
		return fmt.Errorf("hash size must be 8 or 16, got %d", c.HashSize)
	}
	return nil
}
