package sections

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// headingPatterns is the ordered matcher table. Each pattern is anchored to
// the whole line and case-insensitive; the first match wins and later
// patterns are not tried for that line. Group 1 captures the section number,
// group 2 the title.
var headingPatterns = []*regexp.Regexp{
	// Numbered headings with a trailing period: "1. TITLE", "1.1. TITLE", ...
	regexp.MustCompile(`(?i)^(\d+)\.\s+(.{3,100})$`),
	regexp.MustCompile(`(?i)^(\d+\.\d+)\.\s+(.{3,100})$`),
	regexp.MustCompile(`(?i)^(\d+\.\d+\.\d+)\.\s+(.{3,100})$`),

	// The same three without the trailing period.
	regexp.MustCompile(`(?i)^(\d+)\s+(.{3,100})$`),
	regexp.MustCompile(`(?i)^(\d+\.\d+)\s+(.{3,100})$`),
	regexp.MustCompile(`(?i)^(\d+\.\d+\.\d+)\s+(.{3,100})$`),

	// Keyword-prefixed headings.
	regexp.MustCompile(`(?i)^SECTION\s+(\d+)\s*[:\-]?\s*(.{3,100})$`),
	regexp.MustCompile(`(?i)^CHAPITRE\s+(\d+)\s*[:\-]?\s*(.{3,100})$`),
	regexp.MustCompile(`(?i)^PARTIE\s+(\d+)\s*[:\-]?\s*(.{3,100})$`),
}

var (
	pureIntRe     = regexp.MustCompile(`^\d+$`)
	dateRe        = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)
	symbolOnlyRe  = regexp.MustCompile(`^[\d\s.\-)(\[\]]+$`)
	yearInTitleRe = regexp.MustCompile(`\d{4}`)
)

// defaultDenylist holds boilerplate line prefixes that are never headings:
// page markers, figure/table captions, credential form labels.
var defaultDenylist = []string{
	"page ", "figure ", "table ", "annexe", "login", "mot de passe",
}

// titleDenylist rejects titles that are form-field noise rather than headings.
var titleDenylist = []string{"login", "mot de passe", "password", "user"}

const (
	minLineLen  = 3
	maxLineLen  = 120
	minFontSize = 10.0
)

// Scanner turns per-page text lines into scored section candidates.
type Scanner struct {
	denylist []string
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithDenylist replaces the default boilerplate-prefix denylist.
func WithDenylist(prefixes []string) ScannerOption {
	return func(s *Scanner) {
		if len(prefixes) > 0 {
			s.denylist = prefixes
		}
	}
}

// NewScanner creates a Scanner with the default noise denylist.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{denylist: defaultDenylist}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan inspects every line and returns all heading candidates found.
// Lines must arrive in document order (pages ascending, top to bottom).
func (s *Scanner) Scan(lines []Line) []Candidate {
	var found []Candidate
	for _, line := range lines {
		if c, ok := s.scanLine(line); ok {
			found = append(found, c)
		}
	}
	return found
}

func (s *Scanner) scanLine(line Line) (Candidate, bool) {
	text := strings.TrimSpace(line.Text())
	fontSize := line.MaxFontSize()
	bold := line.Bold()

	if !s.lineEligible(text, fontSize) {
		return Candidate{}, false
	}

	for _, re := range headingPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		number := m[1]
		title := strings.TrimSpace(m[2])
		if !titleValid(title) {
			// First-match-wins applies to the pattern cascade, so a
			// rejected title ends the scan for this line.
			return Candidate{}, false
		}
		return Candidate{
			Number:   number,
			Title:    title,
			Page:     line.Page,
			FontSize: fontSize,
			Bold:     bold,
			Level:    levelOf(number),
			Score:    score(number, title, fontSize, bold),
		}, true
	}
	return Candidate{}, false
}

// lineEligible applies the cheap noise gates before any pattern matching.
func (s *Scanner) lineEligible(text string, fontSize float64) bool {
	if n := utf8.RuneCountInString(text); n < minLineLen || n > maxLineLen {
		return false
	}
	if fontSize < minFontSize {
		return false
	}
	if pureIntRe.MatchString(text) {
		return false
	}
	if dateRe.MatchString(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, prefix := range s.denylist {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// titleValid rejects titles that are too short, purely numeric/punctuation,
// boilerplate-prefixed, or carry fewer than 3 alphabetic characters.
func titleValid(title string) bool {
	if utf8.RuneCountInString(title) < 3 {
		return false
	}
	if symbolOnlyRe.MatchString(title) {
		return false
	}
	lower := strings.ToLower(title)
	for _, prefix := range titleDenylist {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	letters := 0
	for _, r := range title {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}

// score ranks how likely the match is a genuine heading versus noise.
func score(number, title string, fontSize float64, bold bool) int {
	q := 0

	switch {
	case fontSize >= 16.0:
		q += 3
	case fontSize >= 12.0:
		q += 2
	case fontSize >= 10.0:
		q += 1
	}

	if bold {
		q += 2
	}

	if title == strings.ToUpper(title) && utf8.RuneCountInString(title) > 5 {
		q++
	}

	// Numbering-depth bonus: shallower numbering ranks higher.
	switch strings.Count(number, ".") {
	case 0:
		q += 3
	case 1:
		q += 2
	case 2:
		q += 1
	}

	// Well-formed subsections in a legible font get an extra point.
	if strings.Contains(number, ".") && fontSize >= 11.0 {
		q++
	}

	// A 4-digit run is usually a year, not a heading.
	if yearInTitleRe.MatchString(title) {
		q -= 2
	}
	if utf8.RuneCountInString(title) > 80 {
		q--
	}

	return q
}

// levelOf derives the nesting depth from the numbering: "3" is level 1,
// "3.1" level 2, "3.1.4" level 3.
func levelOf(number string) int {
	if !strings.Contains(number, ".") {
		return 1
	}
	return strings.Count(number, ".") + 1
}
