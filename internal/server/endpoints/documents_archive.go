package endpoints

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
)

// ArchiveEndpoint handles GET /api/documents/{name}/archive, streaming all
// extracted images of a document as a ZIP.
type ArchiveEndpoint struct{}

var _ api.Endpoint = (*ArchiveEndpoint)(nil)

func (e *ArchiveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{name}/archive", e.handler
}

func (e *ArchiveEndpoint) RequiresInit() bool { return true }

func (e *ArchiveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	if len(names) == 0 {
		writeError(w, http.StatusNotFound, "document has no extracted images")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", docName+"_images.zip"))
	w.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, name := range names {
		data, err := store.Read(name)
		if err != nil {
			// Headers are already gone; nothing better to do than stop.
			return
		}
		f, err := zw.Create(name)
		if err != nil {
			return
		}
		if _, err := f.Write(data); err != nil {
			return
		}
	}
}

func (e *ArchiveEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "archive <document>",
		Short: "Download all extracted images as a ZIP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			dest := out
			if dest == "" {
				dest = args[0] + "_images.zip"
			}
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := client.GetRaw(cmd.Context(), "/api/documents/"+args[0]+"/archive", f); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path")
	return cmd
}

// ExportRequest names the images to export and what to call them inside the
// archive.
type ExportRequest struct {
	Files []ExportEntry `json:"files"`
}

// ExportEntry is one (stored name, archive name) pair.
type ExportEntry struct {
	OriginalFilename string `json:"originalFilename"`
	NewFilename      string `json:"newFilename"`
}

// ExportEndpoint handles POST /api/documents/{name}/export. The caller
// supplies rename pairs and receives a ZIP holding renamed copies; stored
// files are never touched.
type ExportEndpoint struct{}

var _ api.Endpoint = (*ExportEndpoint)(nil)

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{name}/export", e.handler
}

func (e *ExportEndpoint) RequiresInit() bool { return true }

func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docName := r.PathValue("name")
	store := documentStore(w, r, docName, true)
	if store == nil {
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "no files requested")
		return
	}

	// Resolve every entry before streaming so bad requests still get a
	// proper error status.
	type resolved struct {
		archiveName string
		data        []byte
	}
	entries := make([]resolved, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := store.Read(f.OriginalFilename)
		if err != nil {
			writeError(w, http.StatusNotFound, "image not found: "+f.OriginalFilename)
			return
		}
		name := filepath.Base(f.NewFilename)
		if name == "" || name == "." {
			name = f.OriginalFilename
		}
		if filepath.Ext(name) == "" {
			name += filepath.Ext(f.OriginalFilename)
		}
		entries = append(entries, resolved{archiveName: name, data: data})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", docName+"_export.zip"))
	w.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, entry := range entries {
		f, err := zw.Create(entry.archiveName)
		if err != nil {
			return
		}
		if _, err := f.Write(entry.data); err != nil {
			return
		}
	}
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	var renames []string

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Export selected images as a ZIP with new names",
		Long: `Export builds a ZIP of renamed image copies without touching the
stored files. Each --rename flag maps a stored image to its archive name:

  doculens api export manual --rename "CRL-manual-1 n_1.jpg=overview.jpg"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(renames) == 0 {
				return fmt.Errorf("at least one --rename pair is required")
			}

			req := ExportRequest{}
			for _, pair := range renames {
				orig, renamed, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid rename pair %q, expected old=new", pair)
				}
				req.Files = append(req.Files, ExportEntry{
					OriginalFilename: orig,
					NewFilename:      renamed,
				})
			}

			dest := out
			if dest == "" {
				dest = args[0] + "_export.zip"
			}

			// The export endpoint answers with a ZIP stream, so the
			// generic JSON client helpers don't apply here.
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}
			httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				getServerURL()+"/api/documents/"+args[0]+"/export", strings.NewReader(string(body)))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				var errResp api.ErrorResponse
				if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
					return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
				}
				return fmt.Errorf("server error (%d)", resp.StatusCode)
			}

			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := f.ReadFrom(resp.Body); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path")
	cmd.Flags().StringArrayVar(&renames, "rename", nil, "old=new rename pair (repeatable)")
	return cmd
}
