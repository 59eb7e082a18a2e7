package endpoints

import (
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/svcctx"
)

// docNameRe matches characters allowed in a document name. Everything else
// is replaced by '_' so names stay safe as directory components.
var docNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitizeDocName normalizes an uploaded document name.
func sanitizeDocName(name string) string {
	name = strings.TrimSpace(name)
	name = docNameRe.ReplaceAllString(name, "_")
	return name
}

// documentStore opens the image store for a named document's output
// directory. When mustExist is true a missing document yields 404 instead of
// an empty directory being created. It writes an HTTP error and returns nil
// on failure.
func documentStore(w http.ResponseWriter, r *http.Request, docName string, mustExist bool) *extract.Store {
	if docName == "" || docName != sanitizeDocName(docName) {
		writeError(w, http.StatusBadRequest, "invalid document name")
		return nil
	}

	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return nil
	}

	dir := homeDir.DocumentDir(docName)
	if mustExist {
		if _, err := os.Stat(dir); err != nil {
			writeError(w, http.StatusNotFound, "document not found: "+docName)
			return nil
		}
	}

	store, err := extract.NewStore(dir, svcctx.LoggerFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open document store: "+err.Error())
		return nil
	}
	return store
}
