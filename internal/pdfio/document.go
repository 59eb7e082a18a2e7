// Package pdfio opens PDF documents and exposes the two read surfaces the
// extraction pipeline needs: visual text lines with typographic attributes,
// and embedded raster images in page-native enumeration order.
package pdfio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Orsso/DocuLens/internal/extract"
	"github.com/Orsso/DocuLens/internal/sections"
)

// ErrNoPages is returned when a document opens but contains zero pages.
var ErrNoPages = errors.New("pdf has no pages")

// Document is an open PDF. It reads the text layer through ledongthuc/pdf,
// which exposes per-run font name and size, and the image layer through
// pdfcpu's optimized cross-reference context.
type Document struct {
	path      string
	file      *os.File
	reader    *pdf.Reader
	ctx       *model.Context
	pageCount int
	logger    *slog.Logger
}

var _ extract.Document = (*Document)(nil)

// Open parses the PDF at path. Failure to open or a zero page count are the
// pipeline's only fatal conditions and surface here as a single error.
func Open(path string, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}

	cf, err := os.Open(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer cf.Close()

	ctx, err := api.ReadValidateAndOptimize(cf, model.NewDefaultConfiguration())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading pdf structure %s: %w", path, err)
	}

	if ctx.PageCount < 1 {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	return &Document{
		path:      path,
		file:      f,
		reader:    reader,
		ctx:       ctx,
		pageCount: ctx.PageCount,
		logger:    logger,
	}, nil
}

// Close releases the underlying file handle.
func (d *Document) Close() error {
	return d.file.Close()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Lines returns the document's visual text lines in reading order. Pages
// whose text layer fails to parse are skipped with a warning; an empty text
// layer is not an error.
func (d *Document) Lines() ([]sections.Line, error) {
	var lines []sections.Line
	textPages := d.reader.NumPage()
	for pageNum := 1; pageNum <= textPages; pageNum++ {
		page := d.reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			d.logger.Warn("text layer failed for page", "page", pageNum, "error", err)
			continue
		}
		for _, row := range rows {
			runs := make([]sections.TextRun, 0, len(row.Content))
			for _, t := range row.Content {
				runs = append(runs, sections.TextRun{
					Text:     t.S,
					FontSize: t.FontSize,
					Bold:     boldFont(t.Font),
				})
			}
			if len(runs) == 0 {
				continue
			}
			lines = append(lines, sections.Line{Page: pageNum, Runs: runs})
		}
	}
	return lines, nil
}

// Images returns the embedded raster images of one page. Object numbers are
// walked in ascending order so enumeration is deterministic. Individual
// images that fail to extract or decode are skipped with a warning.
func (d *Document) Images(pageNum int) ([]extract.RawImage, error) {
	found, err := pdfcpu.ExtractPageImages(d.ctx, pageNum, false)
	if err != nil {
		return nil, fmt.Errorf("extracting images from page %d: %w", pageNum, err)
	}

	objNrs := make([]int, 0, len(found))
	for objNr := range found {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	var out []extract.RawImage
	for idx, objNr := range objNrs {
		img := found[objNr]
		data, err := io.ReadAll(img)
		if err != nil {
			d.logger.Warn("image read failed",
				"page", pageNum, "object", objNr, "error", err)
			continue
		}

		var width, height int
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			width, height = cfg.Width, cfg.Height
		} else {
			// Dimension checks downstream treat unknown as passing, so an
			// exotic codec only costs the tiny-image filter.
			d.logger.Debug("image dimensions unknown",
				"page", pageNum, "object", objNr, "error", err)
		}

		out = append(out, extract.RawImage{
			Data:   data,
			Page:   pageNum,
			Index:  idx,
			Width:  width,
			Height: height,
			Format: img.FileType,
		})
	}
	return out, nil
}

// boldFont reports whether a PDF font name indicates a bold face. Font
// names carry style suffixes like "Helvetica-Bold" or "TimesNewRoman,BoldItalic".
func boldFont(name string) bool {
	return strings.Contains(strings.ToLower(name), "bold")
}
