package endpoints

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
)

// SaveImageRequest carries an edited image payload.
type SaveImageRequest struct {
	// Data is the base64-encoded image, with or without a data URI prefix.
	Data string `json:"data"`
	// Replace overwrites the stored file (backing up the first original);
	// otherwise an _edited sibling is created.
	Replace bool `json:"replace"`
}

// SaveImageResponse reports where the edited image landed.
type SaveImageResponse struct {
	Document string `json:"document"`
	Saved    string `json:"saved"`
	Replaced bool   `json:"replaced"`
}

// SaveImageEndpoint handles PUT /api/documents/{name}/images/{file}.
type SaveImageEndpoint struct{}

var _ api.Endpoint = (*SaveImageEndpoint)(nil)

func (e *SaveImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/documents/{name}/images/{file}", e.handler
}

func (e *SaveImageEndpoint) RequiresInit() bool { return true }

func (e *SaveImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docName := r.PathValue("name")
	file := r.PathValue("file")

	store := documentStore(w, r, docName, true)
	if store == nil {
		return
	}

	var req SaveImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	payload := req.Data
	// Browsers send canvas exports as data URIs.
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image data")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty image data")
		return
	}

	saved, err := store.SaveEdited(file, data, req.Replace)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "image not found: "+file)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save image: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SaveImageResponse{
		Document: docName,
		Saved:    saved,
		Replaced: req.Replace,
	})
}

func (e *SaveImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "save-image <document> <file> <edited-image>",
		Short: "Save an edited copy of an extracted image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			req := SaveImageRequest{
				Data:    base64.StdEncoding.EncodeToString(data),
				Replace: replace,
			}
			var resp SaveImageResponse
			path := "/api/documents/" + args[0] + "/images/" + args[1]
			if err := client.Put(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite the stored image (the first original is backed up)")
	return cmd
}
