package endpoints

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
)

// ImagesResponse lists a document's extracted images.
type ImagesResponse struct {
	Document string   `json:"document"`
	Images   []string `json:"images"`
}

// ListImagesEndpoint handles GET /api/documents/{name}/images.
type ListImagesEndpoint struct{}

var _ api.Endpoint = (*ListImagesEndpoint)(nil)

func (e *ListImagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{name}/images", e.handler
}

func (e *ListImagesEndpoint) RequiresInit() bool { return true }

func (e *ListImagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docName := r.PathValue("name")
	store := documentStore(w, r, docName, true)
	if store == nil {
		return
	}

	names, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list images: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, ImagesResponse{Document: docName, Images: names})
}

func (e *ListImagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "images <document>",
		Short: "List a document's extracted images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ImagesResponse
			if err := client.Get(cmd.Context(), "/api/documents/"+args[0]+"/images", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetImageEndpoint handles GET /api/documents/{name}/images/{file}, serving
// one image with its MIME type.
type GetImageEndpoint struct{}

var _ api.Endpoint = (*GetImageEndpoint)(nil)

func (e *GetImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{name}/images/{file}", e.handler
}

func (e *GetImageEndpoint) RequiresInit() bool { return true }

func (e *GetImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docName := r.PathValue("name")
	file := r.PathValue("file")

	store := documentStore(w, r, docName, true)
	if store == nil {
		return
	}

	data, err := store.Read(file)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "image not found: "+file)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read image: %v", err))
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(file))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *GetImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "image <document> <file>",
		Short: "Download one extracted image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			dest := out
			if dest == "" {
				dest = args[1]
			}
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer f.Close()

			path := "/api/documents/" + args[0] + "/images/" + args[1]
			if err := client.GetRaw(cmd.Context(), path, f); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (defaults to the image name)")
	return cmd
}
