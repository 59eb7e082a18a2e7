package sections

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// qualityThreshold keeps only convincing candidates; relaxed to
	// relaxedThreshold when fewer than two survive.
	qualityThreshold = 2
	relaxedThreshold = 1

	// subsectionKeepScore preserves a subsection outright during
	// hierarchical consolidation.
	subsectionKeepScore = 3

	// maxTitleLen caps the stored section title.
	maxTitleLen = 100

	// fallback partition parameters for documents with no usable headings.
	smallDocPages    = 5
	minPagesPerChunk = 3
)

// Consolidator reduces raw candidates to the final ordered section list.
type Consolidator struct {
	logger *slog.Logger
}

// NewConsolidator creates a Consolidator. A nil logger falls back to
// slog.Default.
func NewConsolidator(logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{logger: logger}
}

// Consolidate produces the final Section list for a document of totalPages
// pages. The result is never empty and every page in [1, totalPages] falls
// inside at least one section's range.
func (c *Consolidator) Consolidate(candidates []Candidate, totalPages int) []Section {
	kept := c.selectCandidates(candidates)

	if len(kept) == 0 {
		c.logger.Warn("no usable section headings detected, using fallback partition",
			"total_pages", totalPages)
		return FallbackSections(totalPages)
	}

	out := make([]Section, 0, len(kept))
	for i, cand := range kept {
		start := cand.Page
		end := totalPages
		// The section ends where the next section of equal or shallower
		// level begins.
		for j := i + 1; j < len(kept); j++ {
			if kept[j].Level <= cand.Level {
				end = kept[j].Page - 1
				break
			}
		}
		if end < start {
			end = start
		}
		out = append(out, Section{
			Number:    cand.Number,
			Title:     truncate(fmt.Sprintf("%s. %s", cand.Number, cand.Title), maxTitleLen),
			StartPage: start,
			EndPage:   end,
			Level:     cand.Level,
		})
	}
	return out
}

// selectCandidates runs quality filtering, deduplication, natural sort, and
// hierarchical consolidation, returning candidates in natural order.
func (c *Consolidator) selectCandidates(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	// Highest quality first; ties broken by earliest page. The first
	// occurrence of each number under this order is the one kept.
	byQuality := make([]Candidate, len(candidates))
	copy(byQuality, candidates)
	sort.SliceStable(byQuality, func(i, j int) bool {
		if byQuality[i].Score != byQuality[j].Score {
			return byQuality[i].Score > byQuality[j].Score
		}
		return byQuality[i].Page < byQuality[j].Page
	})

	filtered := filterByScore(byQuality, qualityThreshold)
	if len(filtered) < 2 {
		filtered = filterByScore(byQuality, relaxedThreshold)
		c.logger.Debug("relaxed quality threshold", "kept", len(filtered))
	}

	seen := make(map[string]bool, len(filtered))
	var unique []Candidate
	for _, cand := range filtered {
		if seen[cand.Number] {
			continue
		}
		seen[cand.Number] = true
		unique = append(unique, cand)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return NatLess(unique[i].Number, unique[j].Number)
	})

	consolidated := c.consolidateHierarchy(unique)

	sort.SliceStable(consolidated, func(i, j int) bool {
		return NatLess(consolidated[i].Number, consolidated[j].Number)
	})
	return consolidated
}

// consolidateHierarchy drops weak subsections when a real main-section
// skeleton exists, merging them into their parent's range. With fewer than
// two main sections the deduplicated set is kept whole.
func (c *Consolidator) consolidateHierarchy(unique []Candidate) []Candidate {
	var mains, subs []Candidate
	for _, cand := range unique {
		if cand.Level == 1 {
			mains = append(mains, cand)
		} else {
			subs = append(subs, cand)
		}
	}

	if len(mains) < 2 {
		return unique
	}

	kept := make([]Candidate, 0, len(unique))
	kept = append(kept, mains...)
	for _, sub := range subs {
		if c.preserveSubsection(sub, mains) {
			kept = append(kept, sub)
		} else {
			c.logger.Debug("subsection merged into parent", "number", sub.Number)
		}
	}
	return kept
}

// preserveSubsection keeps a subsection when it scores well, starts on a
// different page than its parent, or is typographically prominent.
func (c *Consolidator) preserveSubsection(sub Candidate, mains []Candidate) bool {
	if sub.Score >= subsectionKeepScore {
		return true
	}

	parentNumber := strings.SplitN(sub.Number, ".", 2)[0]
	for _, main := range mains {
		if main.Number == parentNumber {
			if sub.Page != main.Page {
				return true
			}
			break
		}
	}

	return sub.FontSize >= 12.0 && sub.Bold
}

// FallbackSections synthesizes a default partition for documents where no
// heading survived: one section for short documents, otherwise a flat split
// into chunks of max(minPagesPerChunk, totalPages/4) pages.
func FallbackSections(totalPages int) []Section {
	if totalPages <= smallDocPages {
		return []Section{{
			Number:    "1",
			Title:     "1. Document",
			StartPage: 1,
			EndPage:   totalPages,
			Level:     1,
		}}
	}

	perChunk := totalPages / 4
	if perChunk < minPagesPerChunk {
		perChunk = minPagesPerChunk
	}
	return FlatPartition(totalPages, perChunk)
}

// FlatPartition splits a document into sequential level-1 sections of
// pagesPerSection pages each (the last chunk may be shorter).
func FlatPartition(totalPages, pagesPerSection int) []Section {
	if pagesPerSection < 1 {
		pagesPerSection = 1
	}
	var out []Section
	num := 1
	for start := 1; start <= totalPages; start += pagesPerSection {
		end := start + pagesPerSection - 1
		if end > totalPages {
			end = totalPages
		}
		out = append(out, Section{
			Number:    fmt.Sprintf("%d", num),
			Title:     fmt.Sprintf("%d. Section %d", num, num),
			StartPage: start,
			EndPage:   end,
			Level:     1,
		})
		num++
	}
	return out
}

func filterByScore(sorted []Candidate, threshold int) []Candidate {
	var out []Candidate
	for _, cand := range sorted {
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
