package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_DSN", "SUPABASE_URL", "SUPABASE_KEY", "OPENAI_API_KEY",
		"EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "EMBED_BATCH_SIZE",
		"REQUEST_DELAY_SECONDS", "PDF_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearPipelineEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", s.EmbeddingModel)
	assert.Equal(t, 1536, s.EmbeddingDimensions)
	assert.Equal(t, 1000, s.ChunkSize)
	assert.Equal(t, 200, s.ChunkOverlap)
	assert.Equal(t, 100, s.EmbedBatchSize)
	assert.Equal(t, 1500*time.Millisecond, s.RequestDelay)
	assert.Equal(t, "data/pdfs", s.PDFDir)
}

func TestLoadOverrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("EMBEDDING_DIMENSIONS", "3072")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "80")
	t.Setenv("REQUEST_DELAY_SECONDS", "0.5")
	t.Setenv("PDF_DIR", "/tmp/brochures")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", s.OpenAIAPIKey)
	assert.Equal(t, "text-embedding-3-large", s.EmbeddingModel)
	assert.Equal(t, 3072, s.EmbeddingDimensions)
	assert.Equal(t, 800, s.ChunkSize)
	assert.Equal(t, 80, s.ChunkOverlap)
	assert.Equal(t, 500*time.Millisecond, s.RequestDelay)
	assert.Equal(t, "/tmp/brochures", s.PDFDir)
}

func TestLoadRejectsOverlapAtOrAboveSize(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("CHUNK_SIZE", "200")
	t.Setenv("CHUNK_OVERLAP", "200")

	_, err := Load()
	assert.ErrorContains(t, err, "CHUNK_OVERLAP")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("CHUNK_SIZE", "lots")

	_, err := Load()
	assert.ErrorContains(t, err, "CHUNK_SIZE")

	clearPipelineEnv(t)
	t.Setenv("REQUEST_DELAY_SECONDS", "slow")

	_, err = Load()
	assert.ErrorContains(t, err, "REQUEST_DELAY_SECONDS")
}
