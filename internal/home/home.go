// Package home manages the doculens home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the doculens home directory.
	DefaultDirName = ".doculens"

	// UploadsDirName is the subdirectory for uploaded PDF files.
	UploadsDirName = "uploads"

	// ExtractedDirName is the subdirectory holding per-document output.
	ExtractedDirName = "extracted"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the doculens home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.doculens).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// UploadsPath returns the directory for uploaded PDFs.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// UploadPath returns the path an uploaded PDF is stored at.
func (d *Dir) UploadPath(docName string) string {
	return filepath.Join(d.UploadsPath(), docName+".pdf")
}

// ExtractedPath returns the root directory for extraction output.
func (d *Dir) ExtractedPath() string {
	return filepath.Join(d.path, ExtractedDirName)
}

// DocumentDir returns the output directory for one document.
func (d *Dir) DocumentDir(docName string) string {
	return filepath.Join(d.ExtractedPath(), docName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if err := os.MkdirAll(d.ExtractedPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create extracted directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// EnsureDocumentDir creates the output directory for a document.
func (d *Dir) EnsureDocumentDir(docName string) error {
	return os.MkdirAll(d.DocumentDir(docName), 0o755)
}

// Documents lists document names that have extraction output.
func (d *Dir) Documents() ([]string, error) {
	entries, err := os.ReadDir(d.ExtractedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read extracted directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
