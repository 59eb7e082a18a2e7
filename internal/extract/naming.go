package extract

import (
	"fmt"

	"github.com/google/uuid"
)

// Scheme selects how output identities are produced.
type Scheme string

const (
	// SchemeNomenclature yields the human-readable deterministic form
	// "<prefix>-<docName>-<sectionNumber> n_<sequence>.jpg".
	SchemeNomenclature Scheme = "nomenclature"

	// SchemeOpaque yields a random identifier with no embedded meaning;
	// section, page, and sequence travel in the OutputImage record.
	SchemeOpaque Scheme = "opaque"
)

// NamingConfig controls output identities.
type NamingConfig struct {
	Scheme Scheme
	Prefix string // nomenclature prefix, e.g. "CRL"
}

// DefaultNamingConfig matches the historical deterministic nomenclature.
func DefaultNamingConfig() NamingConfig {
	return NamingConfig{Scheme: SchemeNomenclature, Prefix: "CRL"}
}

// Identity builds the output identity for one assigned image. The
// nomenclature form is fully determined by the assignment data; the opaque
// form is unique within any output set by construction.
func (n NamingConfig) Identity(docName, sectionNumber string, sequence int) string {
	switch n.Scheme {
	case SchemeOpaque:
		return uuid.NewString() + ".jpg"
	default:
		return fmt.Sprintf("%s-%s-%s n_%d.jpg", n.Prefix, docName, sectionNumber, sequence)
	}
}
