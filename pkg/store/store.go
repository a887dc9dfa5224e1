// Package store persists embedded document chunks and programme metadata.
// Two sinks implement the same interface: a direct Postgres connection with
// pgvector, and the Supabase REST API over the same tables.
package store

import "context"

// Document is one embedded chunk ready for insertion. Records are
// append-only from the pipeline's perspective; a re-ingestion run clears the
// prior scope first via DeleteAllDocuments.
type Document struct {
	Content   string
	Metadata  map[string]any
	Embedding []float32
}

// ProgrammeRecord is the per-programme metadata row kept alongside the
// document chunks.
type ProgrammeRecord struct {
	Name        string
	DegreeType  string
	Description string
	URL         string
	Metadata    map[string]any
}

// Store is the document/metadata sink.
type Store interface {
	InsertDocuments(ctx context.Context, docs []Document) error
	DeleteAllDocuments(ctx context.Context) error
	UpsertProgramme(ctx context.Context, rec ProgrammeRecord) error
	DeleteAllProgrammes(ctx context.Context) error
	Close() error
}
