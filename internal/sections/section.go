// Package sections detects the hierarchical section structure of a paginated
// document from typographic cues alone. It scans per-page text lines for
// numbered heading patterns, scores each match, and consolidates the
// candidates into an ordered section list with resolved page ranges.
package sections

// TextRun is a fragment of text sharing one font within a visual line.
type TextRun struct {
	Text     string
	FontSize float64
	Bold     bool
}

// Line is one visual row of text on a page, the unit the scanner inspects.
type Line struct {
	Page int // 1-indexed
	Runs []TextRun
}

// Text concatenates the runs of the line.
func (l Line) Text() string {
	var s string
	for _, r := range l.Runs {
		s += r.Text
	}
	return s
}

// MaxFontSize returns the largest font size across the line's runs.
func (l Line) MaxFontSize() float64 {
	var max float64
	for _, r := range l.Runs {
		if r.FontSize > max {
			max = r.FontSize
		}
	}
	return max
}

// Bold reports whether any run in the line carries a bold face.
func (l Line) Bold() bool {
	for _, r := range l.Runs {
		if r.Bold {
			return true
		}
	}
	return false
}

// Candidate is a scored heading match produced by the Scanner. Several
// candidates may share a Number (the same heading repeated across pages or
// picked up in different fonts); the Consolidator resolves those.
type Candidate struct {
	Number   string // dot-separated digits, e.g. "1.2"
	Title    string
	Page     int
	FontSize float64
	Bold     bool
	Level    int // 1 for "3", 2 for "3.1", ...
	Score    int
}

// Section is the canonical, deduplicated structural unit with a resolved
// contiguous page range. Sections are ordered by the natural numeric order
// of Number; StartPage <= EndPage always holds.
type Section struct {
	Number    string `json:"number"`
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Level     int    `json:"level"`
}
