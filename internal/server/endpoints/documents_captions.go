package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
	"github.com/Orsso/DocuLens/internal/indexer"
	"github.com/Orsso/DocuLens/internal/svcctx"
)

// CaptionsRequest selects the images to analyze. An empty list means every
// stored image.
type CaptionsRequest struct {
	Files []string `json:"files"`
}

// CaptionsResponse carries the per-image suggestions.
type CaptionsResponse struct {
	Document    string               `json:"document"`
	Provider    string               `json:"provider"`
	Suggestions []indexer.Suggestion `json:"suggestions"`
}

// CaptionsEndpoint handles POST /api/documents/{name}/captions. It runs the
// configured AI captioning provider over the selected images and records the
// accepted titles so numbering stays unique across runs.
type CaptionsEndpoint struct{}

var _ api.Endpoint = (*CaptionsEndpoint)(nil)

func (e *CaptionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{name}/captions", e.handler
}

func (e *CaptionsEndpoint) RequiresInit() bool { return true }

func (e *CaptionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	captioner := svcctx.CaptionerFrom(r.Context())
	if captioner == nil {
		writeError(w, http.StatusServiceUnavailable, "no captioning provider configured")
		return
	}

	docName := r.PathValue("name")
	store := documentStore(w, r, docName, true)
	if store == nil {
		return
	}

	var req CaptionsRequest
	if r.Body != nil {
		// An empty body is fine and means "all images".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	files := req.Files
	if len(files) == 0 {
		all, err := store.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list images: %v", err))
			return
		}
		files = all
	}
	if len(files) == 0 {
		writeError(w, http.StatusNotFound, "document has no images to caption")
		return
	}

	images := make([]indexer.Image, 0, len(files))
	for _, name := range files {
		data, err := store.Read(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "image not found: "+name)
			return
		}
		images = append(images, indexer.Image{Name: name, Data: data})
	}

	ix := indexer.New(captioner, svcctx.LoggerFrom(r.Context()))
	suggestions, err := ix.Analyze(r.Context(), images)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("caption analysis failed: %v", err))
		return
	}

	records, err := indexer.LoadRecords(store.Dir())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load caption records: %v", err))
		return
	}

	suggestions = indexer.EnsureUniqueTitles(suggestions, records.Titles())
	records.Merge(suggestions)
	if err := records.Save(store.Dir()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save caption records: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, CaptionsResponse{
		Document:    docName,
		Provider:    captioner.Name(),
		Suggestions: suggestions,
	})
}

func (e *CaptionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "captions <document> [file...]",
		Short: "Run AI captioning over a document's images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			req := CaptionsRequest{Files: args[1:]}
			var resp CaptionsResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/captions", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
