package extract

import (
	"sort"

	"github.com/Orsso/DocuLens/internal/sections"
)

// assigner maps page numbers to their covering sections. It is built once
// per run from the read-only section list.
type assigner struct {
	sections []sections.Section
}

func newAssigner(secs []sections.Section) *assigner {
	return &assigner{sections: secs}
}

// covering returns the sections whose page range includes the page, deepest
// level first and in natural number order within a level. Pages outside
// every range (which the consolidator's coverage invariant rules out) fall
// back to the document's first section.
func (a *assigner) covering(page int) []sections.Section {
	var out []sections.Section
	for _, s := range a.sections {
		if s.StartPage <= page && page <= s.EndPage {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return a.sections[:1]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return sections.NatLess(out[i].Number, out[j].Number)
	})
	return out
}

// sectionFor picks the section an image belongs to. With several covering
// subsections the images of a page are distributed round-robin by their
// enumeration index; otherwise the single covering section wins, preferring
// a main section when no subsection covers the page.
func (a *assigner) sectionFor(page, imgIndex int) sections.Section {
	cov := a.covering(page)
	if len(cov) == 1 {
		return cov[0]
	}

	var subs, mains []sections.Section
	for _, s := range cov {
		if s.Level > 1 {
			subs = append(subs, s)
		} else {
			mains = append(mains, s)
		}
	}

	if len(subs) > 0 {
		return subs[imgIndex%len(subs)]
	}
	if len(mains) > 0 {
		return mains[0]
	}
	return cov[0]
}
