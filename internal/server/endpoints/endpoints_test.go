package endpoints

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Orsso/DocuLens/internal/api"
	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/home"
	"github.com/Orsso/DocuLens/internal/indexer"
	"github.com/Orsso/DocuLens/internal/providers"
	"github.com/Orsso/DocuLens/internal/svcctx"
)

// newTestHandler wires the full endpoint set the way the server does, backed
// by a temporary home directory.
func newTestHandler(t *testing.T, captioner providers.CaptionProvider) (http.Handler, *home.Dir) {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	services := &svcctx.Services{
		Logger:    logger,
		Home:      h,
		Extractor: extract.New(extract.DefaultConfig(), logger),
		Captioner: captioner,
	}

	reg := api.NewRegistry()
	for _, ep := range All() {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})
	return handler, h
}

// seedImage drops a file into a document's output directory.
func seedImage(t *testing.T, h *home.Dir, doc, name string, data []byte) {
	t.Helper()
	if err := h.EnsureDocumentDir(doc); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.DocumentDir(doc), name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func do(t *testing.T, handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("captions disabled", func(t *testing.T) {
		handler, _ := newTestHandler(t, nil)
		rec := do(t, handler, "GET", "/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		resp := decode[HealthResponse](t, rec)
		if resp.Status != "ok" || resp.Captions != "disabled" {
			t.Fatalf("response = %+v", resp)
		}
	})

	t.Run("captions provider reported", func(t *testing.T) {
		handler, _ := newTestHandler(t, providers.NewMockProvider())
		resp := decode[HealthResponse](t, do(t, handler, "GET", "/health", nil))
		if resp.Captions != providers.MockName {
			t.Fatalf("Captions = %q", resp.Captions)
		}
	})
}

func TestListDocumentsEndpoint(t *testing.T) {
	handler, h := newTestHandler(t, nil)

	resp := decode[DocumentsResponse](t, do(t, handler, "GET", "/api/documents", nil))
	if len(resp.Documents) != 0 {
		t.Fatalf("Documents = %v, want empty", resp.Documents)
	}

	seedImage(t, h, "manual", "a.jpg", []byte("x"))
	resp = decode[DocumentsResponse](t, do(t, handler, "GET", "/api/documents", nil))
	if len(resp.Documents) != 1 || resp.Documents[0] != "manual" {
		t.Fatalf("Documents = %v", resp.Documents)
	}
}

func TestListImagesEndpoint(t *testing.T) {
	handler, h := newTestHandler(t, nil)
	seedImage(t, h, "manual", "b.jpg", []byte("x"))
	seedImage(t, h, "manual", "a.jpg", []byte("x"))

	t.Run("lists stored images", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/manual/images", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		resp := decode[ImagesResponse](t, rec)
		if len(resp.Images) != 2 || resp.Images[0] != "a.jpg" {
			t.Fatalf("Images = %v", resp.Images)
		}
	})

	t.Run("unknown document is 404", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/nope/images", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("unsafe name is rejected", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/bad%20name/images", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestGetImageEndpoint(t *testing.T) {
	handler, h := newTestHandler(t, nil)
	payload := []byte("jpeg bytes")
	seedImage(t, h, "manual", "pic.jpg", payload)

	t.Run("serves the file", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/manual/images/pic.jpg", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), payload) {
			t.Fatal("served bytes differ from stored file")
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "image/jpeg") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("missing file is 404", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/manual/images/gone.jpg", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestUploadEndpoint_Validation(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	multipartBody := func(field, filename string, content []byte) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
		mw.Close()
		return &buf, mw.FormDataContentType()
	}

	t.Run("missing file part", func(t *testing.T) {
		body, ct := multipartBody("wrong", "doc.pdf", []byte("%PDF-1.4"))
		req := httptest.NewRequest("POST", "/api/documents", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("non pdf extension", func(t *testing.T) {
		body, ct := multipartBody("file", "doc.txt", []byte("hello"))
		req := httptest.NewRequest("POST", "/api/documents", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if !strings.Contains(resp.Error, "not a PDF") {
			t.Errorf("error = %q", resp.Error)
		}
	})

	t.Run("corrupt pdf payload", func(t *testing.T) {
		body, ct := multipartBody("file", "doc.pdf", []byte("not really a pdf"))
		req := httptest.NewRequest("POST", "/api/documents", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
	})
}

func readZip(t *testing.T, body []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("reading zip: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = data
	}
	return out
}

func TestArchiveEndpoint(t *testing.T) {
	handler, h := newTestHandler(t, nil)
	seedImage(t, h, "manual", "a.jpg", []byte("one"))
	seedImage(t, h, "manual", "b.jpg", []byte("two"))

	t.Run("streams all images", func(t *testing.T) {
		rec := do(t, handler, "GET", "/api/documents/manual/archive", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
			t.Errorf("Content-Type = %q", ct)
		}
		files := readZip(t, rec.Body.Bytes())
		if len(files) != 2 || string(files["a.jpg"]) != "one" {
			t.Fatalf("zip contents = %v", files)
		}
	})

	t.Run("empty document is 404", func(t *testing.T) {
		if err := h.EnsureDocumentDir("empty"); err != nil {
			t.Fatal(err)
		}
		rec := do(t, handler, "GET", "/api/documents/empty/archive", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestExportEndpoint(t *testing.T) {
	handler, h := newTestHandler(t, nil)
	seedImage(t, h, "manual", "CRL-manual-1 n_1.jpg", []byte("img1"))
	seedImage(t, h, "manual", "CRL-manual-2 n_1.jpg", []byte("img2"))

	post := func(req ExportRequest) *httptest.ResponseRecorder {
		body, err := json.Marshal(req)
		if err != nil {
			t.Fatal(err)
		}
		return do(t, handler, "POST", "/api/documents/manual/export", bytes.NewReader(body))
	}

	t.Run("renamed copies in the archive", func(t *testing.T) {
		rec := post(ExportRequest{Files: []ExportEntry{
			{OriginalFilename: "CRL-manual-1 n_1.jpg", NewFilename: "overview.jpg"},
			{OriginalFilename: "CRL-manual-2 n_1.jpg", NewFilename: "wiring"},
		}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		files := readZip(t, rec.Body.Bytes())
		if string(files["overview.jpg"]) != "img1" {
			t.Errorf("overview.jpg = %q", files["overview.jpg"])
		}
		// Extension inherited from the stored name.
		if string(files["wiring.jpg"]) != "img2" {
			t.Errorf("zip contents = %v", files)
		}
		// Stored files untouched.
		if _, err := os.Stat(filepath.Join(h.DocumentDir("manual"), "CRL-manual-1 n_1.jpg")); err != nil {
			t.Errorf("original file missing: %v", err)
		}
	})

	t.Run("missing image is 404 before streaming", func(t *testing.T) {
		rec := post(ExportRequest{Files: []ExportEntry{
			{OriginalFilename: "nope.jpg", NewFilename: "x.jpg"},
		}})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("empty file list is 400", func(t *testing.T) {
		rec := post(ExportRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestSaveImageEndpoint(t *testing.T) {
	edited := []byte("edited bytes")

	put := func(t *testing.T, handler http.Handler, file string, req SaveImageRequest) *httptest.ResponseRecorder {
		body, err := json.Marshal(req)
		if err != nil {
			t.Fatal(err)
		}
		return do(t, handler, "PUT", "/api/documents/manual/images/"+file, bytes.NewReader(body))
	}

	t.Run("sibling copy by default", func(t *testing.T) {
		handler, h := newTestHandler(t, nil)
		seedImage(t, h, "manual", "pic.jpg", []byte("v1"))

		rec := put(t, handler, "pic.jpg", SaveImageRequest{
			Data: base64.StdEncoding.EncodeToString(edited),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		resp := decode[SaveImageResponse](t, rec)
		if resp.Saved != "pic_edited.jpg" || resp.Replaced {
			t.Fatalf("response = %+v", resp)
		}
	})

	t.Run("replace backs up and accepts data uris", func(t *testing.T) {
		handler, h := newTestHandler(t, nil)
		seedImage(t, h, "manual", "pic.jpg", []byte("v1"))

		rec := put(t, handler, "pic.jpg", SaveImageRequest{
			Data:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(edited),
			Replace: true,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		resp := decode[SaveImageResponse](t, rec)
		if resp.Saved != "pic.jpg" || !resp.Replaced {
			t.Fatalf("response = %+v", resp)
		}
		got, err := os.ReadFile(filepath.Join(h.DocumentDir("manual"), "pic.jpg"))
		if err != nil || !bytes.Equal(got, edited) {
			t.Fatalf("stored = %q, err %v", got, err)
		}
		backup, err := os.ReadFile(filepath.Join(h.DocumentDir("manual"), "pic_original.jpg"))
		if err != nil || string(backup) != "v1" {
			t.Fatalf("backup = %q, err %v", backup, err)
		}
	})

	t.Run("invalid base64 is 400", func(t *testing.T) {
		handler, h := newTestHandler(t, nil)
		seedImage(t, h, "manual", "pic.jpg", []byte("v1"))

		rec := put(t, handler, "pic.jpg", SaveImageRequest{Data: "!!not base64!!"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("empty payload is 400", func(t *testing.T) {
		handler, h := newTestHandler(t, nil)
		seedImage(t, h, "manual", "pic.jpg", []byte("v1"))

		rec := put(t, handler, "pic.jpg", SaveImageRequest{Data: ""})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestCaptionsEndpoint(t *testing.T) {
	t.Run("no provider configured", func(t *testing.T) {
		handler, h := newTestHandler(t, nil)
		seedImage(t, h, "manual", "a.jpg", []byte("x"))

		rec := do(t, handler, "POST", "/api/documents/manual/captions", strings.NewReader("{}"))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("captions every stored image", func(t *testing.T) {
		handler, h := newTestHandler(t, providers.NewMockProvider())
		seedImage(t, h, "manual", "a.jpg", []byte("x"))
		seedImage(t, h, "manual", "b.jpg", []byte("y"))

		rec := do(t, handler, "POST", "/api/documents/manual/captions", strings.NewReader("{}"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		resp := decode[CaptionsResponse](t, rec)
		if resp.Provider != providers.MockName {
			t.Errorf("Provider = %q", resp.Provider)
		}
		if len(resp.Suggestions) != 2 {
			t.Fatalf("got %d suggestions", len(resp.Suggestions))
		}
		// The mock repeats its title, so the second suggestion gets a
		// numeric suffix.
		if resp.Suggestions[0].Caption.Title != "mock title" {
			t.Errorf("first title = %q", resp.Suggestions[0].Caption.Title)
		}
		if resp.Suggestions[1].Caption.Title != "mock title 2" {
			t.Errorf("second title = %q", resp.Suggestions[1].Caption.Title)
		}

		// Titles are recorded for cross-run uniqueness.
		records, err := indexer.LoadRecords(h.DocumentDir("manual"))
		if err != nil {
			t.Fatalf("LoadRecords() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("records = %v", records)
		}
	})

	t.Run("selected file must exist", func(t *testing.T) {
		handler, h := newTestHandler(t, providers.NewMockProvider())
		seedImage(t, h, "manual", "a.jpg", []byte("x"))

		body := `{"files": ["missing.jpg"]}`
		rec := do(t, handler, "POST", "/api/documents/manual/captions", strings.NewReader(body))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("document without images is 404", func(t *testing.T) {
		handler, h := newTestHandler(t, providers.NewMockProvider())
		if err := h.EnsureDocumentDir("empty"); err != nil {
			t.Fatal(err)
		}
		rec := do(t, handler, "POST", "/api/documents/empty/captions", strings.NewReader("{}"))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
