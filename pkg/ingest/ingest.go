// Package ingest maps crawl results into embedded document chunks and writes
// them to the store. Each semantically distinct piece of a programme (landing
// description, requirements, sections, sub-pages, brochures) becomes its own
// source so retrieval can be attributed to a specific origin.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"programme-search/pkg/chunk"
	"programme-search/pkg/content"
	"programme-search/pkg/crawl"
	"programme-search/pkg/store"
)

// Embedder turns a batch of texts into vectors, one per input, in input
// order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingestor chunks, embeds and stores crawl results.
type Ingestor struct {
	embedder     Embedder
	store        store.Store
	chunkSize    int
	chunkOverlap int
	batchSize    int
	log          *zap.Logger
}

// New builds an Ingestor. batchSize bounds how many chunks are embedded and
// inserted per round trip.
func New(embedder Embedder, st store.Store, chunkSize, chunkOverlap, batchSize int, log *zap.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Ingestor{
		embedder:     embedder,
		store:        st,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		batchSize:    batchSize,
		log:          log,
	}
}

// source is one (text, metadata) pair before chunking.
type source struct {
	text     string
	metadata map[string]any
}

// Ingest chunks and embeds everything crawled for one programme and inserts
// the records batch by batch. Batches already written stay written if a later
// batch fails. Returns the number of stored chunks.
func (ing *Ingestor) Ingest(ctx context.Context, result *crawl.Result) (int, error) {
	docs := prepare(buildSources(result), ing.chunkSize, ing.chunkOverlap)
	if len(docs) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(docs); start += ing.batchSize {
		end := start + ing.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}

		vectors, err := ing.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed batch: %w", err)
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		if err := ing.store.InsertDocuments(ctx, batch); err != nil {
			return total, fmt.Errorf("insert batch: %w", err)
		}
		total += len(batch)
	}

	ing.log.Info("ingested programme",
		zap.String("slug", result.Entry.Slug),
		zap.Int("chunks", total))
	return total, nil
}

// prepare chunks every source and attaches chunk_index/total_chunks to each
// chunk's metadata so siblings stay traceable. Null bytes are stripped first;
// Postgres rejects them.
func prepare(sources []source, size, overlap int) []store.Document {
	var docs []store.Document
	for _, src := range sources {
		text := strings.ReplaceAll(src.text, "\x00", "")
		chunks := chunk.Split(text, size, overlap)
		for i, c := range chunks {
			meta := make(map[string]any, len(src.metadata)+2)
			for k, v := range src.metadata {
				meta[k] = v
			}
			meta["chunk_index"] = i
			meta["total_chunks"] = len(chunks)
			docs = append(docs, store.Document{Content: c, Metadata: meta})
		}
	}
	return docs
}

// buildSources expands one crawl result into its attributable pieces.
func buildSources(result *crawl.Result) []source {
	entry := result.Entry
	base := func(typ string) map[string]any {
		return map[string]any{
			"type":        typ,
			"program":     entry.Name,
			"slug":        entry.Slug,
			"category":    entry.Category,
			"degree_type": entry.DegreeType(),
		}
	}

	var sources []source
	landing := result.Landing
	if landing == nil || landing.Err != "" {
		return nil
	}

	// Landing description.
	if landing.Content != "" {
		meta := base("program_description")
		meta["url"] = entry.LandingURL
		sources = append(sources, source{
			text:     fmt.Sprintf("%s: %s", entry.Name, landing.Content),
			metadata: meta,
		})
	}

	// Requirements, pulled from admissions sub-page sections.
	if req := requirementsText(entry.Name, result.SubPages); req != "" {
		sources = append(sources, source{text: req, metadata: base("requirements")})
	}

	// Landing page sections.
	for name, text := range landing.Sections {
		if strings.TrimSpace(text) == "" {
			continue
		}
		meta := base("section")
		meta["section_name"] = name
		sources = append(sources, source{
			text:     fmt.Sprintf("%s - %s: %s", entry.Name, name, text),
			metadata: meta,
		})
	}

	// Sub-page bodies and their sections.
	for label, page := range result.SubPages {
		if page.Content != "" {
			meta := base("sub_page")
			meta["sub_page"] = label
			meta["url"] = page.URL
			sources = append(sources, source{
				text:     fmt.Sprintf("%s %s: %s", entry.Name, label, page.Content),
				metadata: meta,
			})
		}
		for name, text := range page.Sections {
			if strings.TrimSpace(text) == "" {
				continue
			}
			meta := base("section")
			meta["section_name"] = name
			meta["sub_page"] = label
			sources = append(sources, source{
				text:     fmt.Sprintf("%s - %s: %s", entry.Name, name, text),
				metadata: meta,
			})
		}
	}

	// Brochure PDFs.
	for _, pdf := range result.PDFs {
		cleaned := content.CleanPDFText(pdf.Text)
		if cleaned == "" {
			continue
		}
		meta := base("brochure")
		meta["source_url"] = pdf.SourceURL
		sources = append(sources, source{
			text:     fmt.Sprintf("%s brochure: %s", entry.Name, cleaned),
			metadata: meta,
		})
	}

	return sources
}

// requirementsText gathers eligibility/requirement sections from admissions
// sub-pages into one block.
func requirementsText(name string, subPages map[string]*content.Page) string {
	var parts []string
	for _, label := range []string{"admissions", "admission"} {
		page, ok := subPages[label]
		if !ok {
			continue
		}
		for secName, secText := range page.Sections {
			lower := strings.ToLower(secName)
			if strings.Contains(lower, "requirement") ||
				strings.Contains(lower, "eligibility") ||
				strings.Contains(lower, "admission") {
				parts = append(parts, fmt.Sprintf("%s: %s", secName, secText))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("%s Requirements: %s", name, strings.Join(parts, " "))
}

// BuildProgrammeRecord derives the per-programme metadata row written
// alongside the document chunks.
func BuildProgrammeRecord(result *crawl.Result) store.ProgrammeRecord {
	entry := result.Entry

	description := ""
	if result.Landing != nil && result.Landing.Err == "" {
		description = result.Landing.Content
		if runes := []rune(description); len(runes) > 3000 {
			description = string(runes[:3000])
		}
	}

	meta := map[string]any{
		"category":    entry.Category,
		"slug":        entry.Slug,
		"language":    entry.Language,
		"is_external": entry.IsExternal,
	}
	for k, v := range result.Structured {
		meta[k] = v
	}

	return store.ProgrammeRecord{
		Name:        entry.Name,
		DegreeType:  entry.DegreeType(),
		Description: description,
		URL:         entry.LandingURL,
		Metadata:    meta,
	}
}
