package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// jpegQuality matches the original export quality.
const jpegQuality = 95

// Store persists one document's extracted images under a directory and
// handles the rename/edit bookkeeping for user-driven changes.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the document directory if needed and returns a Store
// rooted there.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// WriteAll writes every output image as JPEG under the store directory,
// using each image's identity as the filename. Per-image encode failures
// are logged and skipped. Returns the filenames written.
func (s *Store) WriteAll(images []OutputImage) []string {
	written := make([]string, 0, len(images))
	for _, img := range images {
		if err := s.writeJPEG(img.Identity, img.Data); err != nil {
			s.logger.Warn("failed to write image", "identity", img.Identity, "error", err)
			continue
		}
		written = append(written, img.Identity)
	}
	return written
}

// writeJPEG transcodes the payload to JPEG. Payloads that do not decode are
// stored verbatim so the pipeline never loses a surviving image to a codec
// gap.
func (s *Store) writeJPEG(name string, data []byte) error {
	path := filepath.Join(s.dir, name)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("transcode failed, storing original payload", "file", name, "error", err)
		return os.WriteFile(path, data, 0o644)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
}

// List returns the image filenames currently present, sorted by the
// directory's lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Read returns one stored image's bytes.
func (s *Store) Read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
}

// SaveEdited stores an edited version of an existing image. With replace
// set, the original is kept once as "<name>_original<ext>" and then
// overwritten in place; otherwise an "<name>_edited[_N]<ext>" sibling is
// created, N increasing until free. Returns the resulting filename.
func (s *Store) SaveEdited(original string, data []byte, replace bool) (string, error) {
	original = filepath.Base(original)
	origPath := filepath.Join(s.dir, original)
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)

	if replace {
		if _, err := os.Stat(origPath); err == nil {
			backup := filepath.Join(s.dir, base+"_original"+ext)
			if _, err := os.Stat(backup); os.IsNotExist(err) {
				orig, readErr := os.ReadFile(origPath)
				if readErr != nil {
					return "", fmt.Errorf("backing up original: %w", readErr)
				}
				if writeErr := os.WriteFile(backup, orig, 0o644); writeErr != nil {
					return "", fmt.Errorf("backing up original: %w", writeErr)
				}
			}
		}
		if err := os.WriteFile(origPath, data, 0o644); err != nil {
			return "", err
		}
		return original, nil
	}

	name := base + "_edited" + ext
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_edited_%d%s", base, counter, ext)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}
