// Package artifact persists crawl results as JSON files, one per programme
// plus a combined array, for inspection and offline re-ingestion.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"programme-search/pkg/content"
	"programme-search/pkg/crawl"
)

// Programme is the on-disk JSON shape for one crawled entry.
type Programme struct {
	Name           string             `json:"name"`
	Slug           string             `json:"slug"`
	Category       string             `json:"category"`
	Language       string             `json:"language"`
	URL            string             `json:"url"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Sections       map[string]string  `json:"sections"`
	SubPages       map[string]SubPage `json:"sub_pages"`
	PDFContents    []PDFContent       `json:"pdf_contents"`
	StructuredData map[string]string  `json:"structured_data"`
}

// SubPage is one crawled sub-page within a programme artifact.
type SubPage struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Sections map[string]string `json:"sections"`
}

// PDFContent is one extracted brochure within a programme artifact.
type PDFContent struct {
	SourceURL string `json:"source_url"`
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}

// FromResult converts a crawl result into its artifact form. Failed entries
// convert too, with empty content fields, for visibility.
func FromResult(result *crawl.Result) Programme {
	entry := result.Entry
	p := Programme{
		Name:           entry.Name,
		Slug:           entry.Slug,
		Category:       entry.Category,
		Language:       entry.Language,
		URL:            entry.LandingURL,
		Sections:       map[string]string{},
		SubPages:       map[string]SubPage{},
		PDFContents:    []PDFContent{},
		StructuredData: result.Structured,
	}
	if p.StructuredData == nil {
		p.StructuredData = map[string]string{}
	}

	if landing := result.Landing; landing != nil && landing.Err == "" {
		p.Title = landing.Title
		p.Description = landing.Content
		if landing.Sections != nil {
			p.Sections = landing.Sections
		}
	}

	for label, page := range result.SubPages {
		sections := page.Sections
		if sections == nil {
			sections = map[string]string{}
		}
		p.SubPages[label] = SubPage{
			URL:      page.URL,
			Title:    page.Title,
			Content:  page.Content,
			Sections: sections,
		}
	}

	for _, pdf := range result.PDFs {
		cleaned := content.CleanPDFText(pdf.Text)
		if cleaned == "" {
			continue
		}
		p.PDFContents = append(p.PDFContents, PDFContent{
			SourceURL: pdf.SourceURL,
			Text:      cleaned,
			PageCount: pdf.PageCount,
		})
	}

	return p
}

// Save writes one JSON file per entry (<slug>.json) and a combined
// all_programmes_deep.json under dir, creating it as needed.
func Save(dir string, results []*crawl.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	programmes := make([]Programme, 0, len(results))
	for _, result := range results {
		p := FromResult(result)
		programmes = append(programmes, p)

		if err := writeJSON(filepath.Join(dir, p.Slug+".json"), p); err != nil {
			return err
		}
	}

	return writeJSON(filepath.Join(dir, "all_programmes_deep.json"), programmes)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
