// Package pdfx downloads programme brochures into an on-disk cache and
// extracts their text and tables.
package pdfx

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var (
	// ErrNotPDF is returned when a PDF URL serves a non-PDF content type.
	ErrNotPDF = errors.New("response is not a pdf")
	// ErrNoText marks PDFs with no extractable text (image-only scans).
	ErrNoText = errors.New("pdf has no extractable text")
)

// Document is the extracted content of one brochure.
type Document struct {
	SourceURL string
	FilePath  string
	Text      string
	PageCount int
	// Tables holds rows of cell strings recovered from the PDF.
	Tables [][][]string
}

// Downloader caches PDFs under a directory with deterministic filenames and
// extracts their content.
type Downloader struct {
	dir    string
	client *http.Client
	log    *zap.Logger

	// extract is swappable so batch behavior can be tested without real
	// PDF fixtures.
	extract func(path string) (*Document, error)
}

// NewDownloader returns a Downloader writing into dir, creating it on first
// download.
func NewDownloader(dir string, log *zap.Logger) *Downloader {
	return &Downloader{
		dir:     dir,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     log,
		extract: ExtractFile,
	}
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// CacheFileName derives the deterministic cache filename for a URL: a short
// hash of the full URL plus the sanitized trailing path component, forced to
// end in ".pdf".
func CacheFileName(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	hash := hex.EncodeToString(sum[:])[:12]

	path := rawURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	name := "document"
	if i := strings.LastIndexByte(path, '/'); i >= 0 && i < len(path)-1 {
		name = path[i+1:]
	}
	name = unsafeNameRe.ReplaceAllString(name, "-")
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return hash + "_" + name
}

// Materialize downloads the PDF at url (reusing the cache when the file
// already exists non-empty) and extracts its content.
func (d *Downloader) Materialize(ctx context.Context, url string) (*Document, error) {
	path, err := d.download(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := d.extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	doc.SourceURL = url
	return doc, nil
}

// MaterializeAll processes urls in order, silently omitting failures. The
// caller is expected to have de-duplicated the input.
func (d *Downloader) MaterializeAll(ctx context.Context, urls []string) []*Document {
	var docs []*Document
	for _, u := range urls {
		doc, err := d.Materialize(ctx, u)
		if err != nil {
			d.log.Warn("skipping pdf", zap.String("url", u), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// download fetches url into the cache and returns the local path. Partial
// files are written to a temp name and renamed into place so concurrent runs
// never observe a half-written cache entry.
func (d *Downloader) download(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf dir: %w", err)
	}
	dest := filepath.Join(d.dir, CacheFileName(url))

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.log.Debug("pdf already cached", zap.String("file", filepath.Base(dest)))
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download pdf: http status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "pdf") && !strings.Contains(contentType, "octet-stream") {
		return "", fmt.Errorf("%w: content-type %q", ErrNotPDF, contentType)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", err
	}

	d.log.Info("downloaded pdf", zap.String("file", filepath.Base(dest)))
	return dest, nil
}

// Horizontal gap (in points) separating two text runs into distinct cells.
const cellGap = 12.0

// ExtractFile reads a cached PDF page by page, accumulating page texts and
// any rows that look tabular. A PDF yielding no non-whitespace text at all
// returns ErrNoText.
func ExtractFile(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	total := reader.NumPage()
	pageTexts := make([]string, 0, total)
	var tables [][][]string

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pageTexts = append(pageTexts, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// Pages that fail to decode are skipped, not fatal.
			pageTexts = append(pageTexts, "")
			continue
		}
		text, pageTables := renderRows(rows)
		pageTexts = append(pageTexts, text)
		tables = append(tables, pageTables...)
	}

	return assemble(path, pageTexts, tables)
}

// assemble joins per-page texts into a Document, rejecting PDFs whose pages
// carry no text at all (image-only scans).
func assemble(path string, pageTexts []string, tables [][][]string) (*Document, error) {
	full := strings.Join(pageTexts, "\n\n")
	if strings.TrimSpace(full) == "" {
		return nil, ErrNoText
	}

	return &Document{
		FilePath:  path,
		Text:      full,
		PageCount: len(pageTexts),
		Tables:    tables,
	}, nil
}

// renderRows turns positioned text rows into page text plus recovered
// tables. Cells are split on horizontal gaps; runs of two or more multi-cell
// rows are treated as a table. Fully-empty rows are dropped.
func renderRows(rows pdf.Rows) (string, [][][]string) {
	var lines []string
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, " "))
		if len(cells) >= 2 {
			current = append(current, cells)
		} else {
			flush()
		}
	}
	flush()

	return strings.Join(lines, "\n"), tables
}

func splitCells(row *pdf.Row) []string {
	var cells []string
	var cell strings.Builder
	lastEnd := -1.0

	for _, t := range row.Content {
		if lastEnd >= 0 && t.X-lastEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}

	nonEmpty := false
	for _, c := range cells {
		if c != "" {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return nil
	}
	return cells
}
