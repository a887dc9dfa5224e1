package store

import (
	"context"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds REST-mode connection settings.
type SupabaseConfig struct {
	// URL is the project URL, e.g. "https://[project-ref].supabase.co".
	URL string
	// Key is the service-role API key; the pipeline writes server-side.
	Key string
}

// SupabaseStore writes through the Supabase REST API onto the same
// documents/programs tables as the direct Postgres sink. Useful where no
// database credentials are available, only the project API key.
type SupabaseStore struct {
	sdk *supabase.Client
}

// NewSupabaseStore initializes the SDK client.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase URL and key are required")
	}
	sdk, err := supabase.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	return &SupabaseStore{sdk: sdk}, nil
}

// InsertDocuments appends one batch of embedded chunks.
func (s *SupabaseStore) InsertDocuments(_ context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(docs))
	for i, doc := range docs {
		rows[i] = map[string]any{
			"content":   doc.Content,
			"metadata":  doc.Metadata,
			"embedding": doc.Embedding,
		}
	}

	if _, _, err := s.sdk.From("documents").Insert(rows, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}
	return nil
}

// DeleteAllDocuments clears the documents table ahead of a full re-ingestion.
func (s *SupabaseStore) DeleteAllDocuments(_ context.Context) error {
	if _, _, err := s.sdk.From("documents").Delete("", "").Neq("id", "0").Execute(); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// UpsertProgramme writes programme metadata, keyed by name.
func (s *SupabaseStore) UpsertProgramme(_ context.Context, rec ProgrammeRecord) error {
	row := map[string]any{
		"name":        rec.Name,
		"degree_type": rec.DegreeType,
		"description": rec.Description,
		"url":         rec.URL,
		"metadata":    rec.Metadata,
	}
	if _, _, err := s.sdk.From("programs").Insert(row, true, "name", "", "").Execute(); err != nil {
		return fmt.Errorf("upsert programme: %w", err)
	}
	return nil
}

// DeleteAllProgrammes clears the programme metadata table.
func (s *SupabaseStore) DeleteAllProgrammes(_ context.Context) error {
	if _, _, err := s.sdk.From("programs").Delete("", "").Neq("id", "0").Execute(); err != nil {
		return fmt.Errorf("delete programmes: %w", err)
	}
	return nil
}

// Close is a no-op; the REST client holds no persistent connection.
func (s *SupabaseStore) Close() error { return nil }
