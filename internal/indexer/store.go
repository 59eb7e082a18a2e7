package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Orsso/DocuLens/internal/providers"
)

// recordsFileName is the per-document caption bookkeeping file.
const recordsFileName = "captions.json"

// Records maps an image filename to its accepted caption. Persisted next to
// the document's images so re-runs can keep title numbering global.
type Records map[string]providers.Caption

// LoadRecords reads the caption records of a document directory. A missing
// file yields an empty map.
func LoadRecords(dir string) (Records, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Records{}, nil
		}
		return nil, fmt.Errorf("reading caption records: %w", err)
	}

	var recs Records
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing caption records: %w", err)
	}
	if recs == nil {
		recs = Records{}
	}
	return recs, nil
}

// Save writes the records back to the document directory.
func (r Records) Save(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding caption records: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, recordsFileName), data, 0o644)
}

// Titles returns every assigned caption title, in no particular order.
func (r Records) Titles() []string {
	titles := make([]string, 0, len(r))
	for _, c := range r {
		titles = append(titles, c.Title)
	}
	return titles
}

// Merge applies successful suggestions on top of the existing records.
func (r Records) Merge(suggestions []Suggestion) {
	for _, s := range suggestions {
		if s.Caption != nil {
			r[s.File] = *s.Caption
		}
	}
}
