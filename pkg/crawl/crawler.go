// Package crawl drives the per-programme crawl: landing page, discovered
// sub-pages, linked brochures, and structured-field recovery. Failures are
// isolated per page, per PDF, and per entry so one bad link never sinks a
// run.
package crawl

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"programme-search/pkg/catalog"
	"programme-search/pkg/content"
	"programme-search/pkg/fetch"
	"programme-search/pkg/pdfx"
)

// Result holds everything crawled for one catalog entry.
type Result struct {
	Entry      catalog.Entry
	Landing    *content.Page
	SubPages   map[string]*content.Page
	PDFs       []*pdfx.Document
	Structured map[string]string
}

// Failed reports whether the entry's landing page could not be crawled.
func (r *Result) Failed() bool {
	return r.Landing == nil || r.Landing.Err != ""
}

// Summary counts the outcome of a batch run.
type Summary struct {
	Entries   int
	Succeeded int
	Failed    int
	SubPages  int
	PDFs      int
}

// Crawler sequences catalog entries through fetch, extraction, discovery and
// PDF materialization.
type Crawler struct {
	fetcher  *fetch.Fetcher
	pdfs     *pdfx.Downloader
	skipPDFs bool
	log      *zap.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithSkipPDFs disables brochure download and extraction.
func WithSkipPDFs(skip bool) Option {
	return func(c *Crawler) { c.skipPDFs = skip }
}

// New builds a Crawler over the given fetcher and PDF downloader.
func New(fetcher *fetch.Fetcher, pdfs *pdfx.Downloader, log *zap.Logger, opts ...Option) *Crawler {
	c := &Crawler{fetcher: fetcher, pdfs: pdfs, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage fetches and extracts a single URL. Failures are recorded on the
// returned page's Err field, never returned as an error.
func (c *Crawler) FetchPage(ctx context.Context, url string) *content.Page {
	res, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return &content.Page{URL: url, Err: err.Error()}
	}
	return content.ExtractPage(res.FinalURL, string(res.Body))
}

// CrawlEntry runs the full crawl for one entry: landing page first, then
// discovered sub-pages, then brochure PDFs, then structured fields over the
// combined text. A landing-page failure stops the entry; a sub-page or PDF
// failure only omits that unit.
func (c *Crawler) CrawlEntry(ctx context.Context, entry catalog.Entry) *Result {
	result := &Result{
		Entry:      entry,
		SubPages:   make(map[string]*content.Page),
		Structured: make(map[string]string),
	}
	c.log.Info("crawling programme", zap.String("slug", entry.Slug))

	// Landing page is fetched once; the raw body is reused for link
	// discovery.
	res, err := c.fetcher.Fetch(ctx, entry.LandingURL)
	if err != nil {
		result.Landing = &content.Page{URL: entry.LandingURL, Err: err.Error()}
		c.log.Error("landing page failed", zap.String("slug", entry.Slug), zap.Error(err))
		return result
	}
	rawHTML := string(res.Body)
	result.Landing = content.ExtractPage(res.FinalURL, rawHTML)

	pdfLinks := append([]string(nil), result.Landing.PDFLinks...)

	for _, ref := range DiscoverSubPages(entry, rawHTML) {
		c.log.Info("sub-page", zap.String("label", ref.Label), zap.String("url", ref.URL))
		page := c.FetchPage(ctx, ref.URL)
		if page.Err != "" {
			c.log.Warn("sub-page failed", zap.String("label", ref.Label), zap.String("reason", page.Err))
			continue
		}
		result.SubPages[ref.Label] = page
		pdfLinks = append(pdfLinks, page.PDFLinks...)
	}

	if !c.skipPDFs && len(pdfLinks) > 0 {
		unique := dedupe(pdfLinks)
		c.log.Info("extracting pdfs", zap.Int("count", len(unique)))
		result.PDFs = c.pdfs.MaterializeAll(ctx, unique)
	}

	result.Structured = content.ExtractStructured(combinedText(result))
	return result
}

// CrawlAll processes every entry in order. One entry's failure, including a
// panic while processing it, never halts the batch.
func (c *Crawler) CrawlAll(ctx context.Context, entries []catalog.Entry) ([]*Result, Summary) {
	results := make([]*Result, 0, len(entries))
	summary := Summary{Entries: len(entries)}

	for i, entry := range entries {
		c.log.Info("entry",
			zap.Int("n", i+1),
			zap.Int("total", len(entries)),
			zap.String("name", entry.Name))

		result := c.crawlEntrySafe(ctx, entry)
		results = append(results, result)

		if result.Failed() {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.SubPages += len(result.SubPages)
		summary.PDFs += len(result.PDFs)
	}

	return results, summary
}

// crawlEntrySafe catches panics at the entry boundary so an unexpected
// programming error in one entry is recorded and the batch moves on.
func (c *Crawler) crawlEntrySafe(ctx context.Context, entry catalog.Entry) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("unexpected error crawling entry",
				zap.String("slug", entry.Slug),
				zap.Any("panic", r))
			result = &Result{
				Entry:      entry,
				Landing:    &content.Page{URL: entry.LandingURL, Err: fmt.Sprintf("unexpected error: %v", r)},
				SubPages:   make(map[string]*content.Page),
				Structured: make(map[string]string),
			}
		}
	}()
	return c.CrawlEntry(ctx, entry)
}

// combinedText concatenates landing and sub-page text plus all section text
// for structured-field extraction.
func combinedText(result *Result) string {
	var b strings.Builder
	if result.Landing != nil {
		b.WriteString(result.Landing.Content)
		for _, text := range result.Landing.Sections {
			b.WriteString(" ")
			b.WriteString(text)
		}
	}
	for _, page := range result.SubPages {
		b.WriteString(" ")
		b.WriteString(page.Content)
		for _, text := range page.Sections {
			b.WriteString(" ")
			b.WriteString(text)
		}
	}
	return b.String()
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
