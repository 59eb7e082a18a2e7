package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Orsso/DocuLens/internal/api"
	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/pdfio"
	"github.com/Orsso/DocuLens/internal/sections"
	"github.com/Orsso/DocuLens/internal/svcctx"
)

const defaultMaxUploadMB = 50

// UploadResponse is the outcome of a synchronous upload-and-extract run.
type UploadResponse struct {
	Document          string                `json:"document"`
	PageCount         int                   `json:"page_count"`
	Sections          []sections.Section    `json:"sections"`
	Images            []extract.OutputImage `json:"images"`
	RemovedDuplicates int                   `json:"removed_duplicates"`
}

// UploadEndpoint handles POST /api/documents with a multipart PDF upload.
// Extraction runs synchronously; the response carries the detected sections
// and the stored images.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxMB := defaultMaxUploadMB
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		if v := cm.Get().Server.MaxUploadMB; v > 0 {
			maxMB = v
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxMB)<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	src, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no PDF file uploaded")
		return
	}
	defer src.Close()

	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a PDF", hdr.Filename))
		return
	}

	docName := r.FormValue("name")
	if docName == "" {
		docName = strings.TrimSuffix(hdr.Filename, filepath.Ext(hdr.Filename))
	}
	docName = sanitizeDocName(docName)
	if docName == "" {
		writeError(w, http.StatusBadRequest, "invalid document name")
		return
	}

	// Both pipeline toggles default to on.
	filterDuplicates := r.FormValue("filter_duplicates") != "false"
	detectHierarchy := r.FormValue("detect_hierarchy") != "false"

	homeDir := svcctx.HomeFrom(r.Context())
	extractor := svcctx.ExtractorFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())
	if homeDir == nil || extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction services not initialized")
		return
	}

	// Persist the upload before opening it.
	if err := os.MkdirAll(homeDir.UploadsPath(), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create uploads dir: %v", err))
		return
	}
	uploadPath := homeDir.UploadPath(docName)
	dst, err := os.Create(uploadPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save upload: %v", err))
		return
	}
	_, err = io.Copy(dst, src)
	dst.Close()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save upload: %v", err))
		return
	}

	doc, err := pdfio.Open(uploadPath, logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to open PDF: %v", err))
		return
	}
	defer doc.Close()

	result, err := extractor.Run(r.Context(), doc, extract.Options{
		DocumentName:     docName,
		FilterDuplicates: filterDuplicates,
		DetectHierarchy:  detectHierarchy,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	store := documentStore(w, r, docName, false)
	if store == nil {
		return
	}
	written := store.WriteAll(result.Images)

	resp := UploadResponse{
		Document:          docName,
		PageCount:         doc.PageCount(),
		RemovedDuplicates: result.RemovedDuplicates,
		Images:            result.Images,
		Sections:          result.Sections,
	}

	if logger != nil {
		logger.Info("document extracted",
			"document", docName,
			"sections", len(resp.Sections),
			"images", len(written),
			"removed_duplicates", result.RemovedDuplicates)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name string
	var noFilter, noHierarchy bool

	cmd := &cobra.Command{
		Use:   "upload <pdf>",
		Short: "Upload a PDF and run extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			fields := map[string]string{}
			if name != "" {
				fields["name"] = name
			}
			if noFilter {
				fields["filter_duplicates"] = "false"
			}
			if noHierarchy {
				fields["detect_hierarchy"] = "false"
			}

			var resp UploadResponse
			if err := client.PostFile(cmd.Context(), "/api/documents", "file", args[0], fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (defaults to the file name)")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "keep duplicate images")
	cmd.Flags().BoolVar(&noHierarchy, "no-hierarchy", false, "skip section detection, use flat page chunks")
	return cmd
}
