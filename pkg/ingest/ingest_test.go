package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"programme-search/pkg/catalog"
	"programme-search/pkg/content"
	"programme-search/pkg/crawl"
	"programme-search/pkg/store"
)

type fakeEmbedder struct {
	calls   [][]string
	failOn  int
	nextErr error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, f.nextErr
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1.0}
	}
	return vectors, nil
}

type fakeStore struct {
	docs       []store.Document
	programmes []store.ProgrammeRecord
}

func (f *fakeStore) InsertDocuments(_ context.Context, docs []store.Document) error {
	f.docs = append(f.docs, docs...)
	return nil
}
func (f *fakeStore) DeleteAllDocuments(context.Context) error { return nil }
func (f *fakeStore) UpsertProgramme(_ context.Context, rec store.ProgrammeRecord) error {
	f.programmes = append(f.programmes, rec)
	return nil
}
func (f *fakeStore) DeleteAllProgrammes(context.Context) error { return nil }
func (f *fakeStore) Close() error                              { return nil }

func sampleResult() *crawl.Result {
	return &crawl.Result{
		Entry: catalog.Entry{
			Name:       "Nanyang MBA",
			Slug:       "nanyang-mba",
			Category:   "mba",
			LandingURL: "https://s.test/grad/mba",
		},
		Landing: &content.Page{
			URL:     "https://s.test/grad/mba",
			Content: "A full-time MBA programme.",
			Sections: map[string]string{
				"Curriculum": "Core courses and electives.",
			},
		},
		SubPages: map[string]*content.Page{
			"admissions": {
				URL:     "https://s.test/grad/mba/admissions",
				Content: "How to apply.",
				Sections: map[string]string{
					"Admission Requirements": "A bachelor degree and two years of work experience.",
				},
			},
		},
		Structured: map[string]string{"duration": "12 months full-time"},
	}
}

func TestIngest_StoresAllSourcesWithChunkMetadata(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeStore{}
	ing := New(emb, st, 1000, 200, 100, zap.NewNop())

	n, err := ing.Ingest(context.Background(), sampleResult())
	require.NoError(t, err)

	// description, requirements, landing section, sub-page, sub-page section.
	assert.Equal(t, 5, n)
	require.Len(t, st.docs, 5)

	types := map[string]int{}
	for _, d := range st.docs {
		types[d.Metadata["type"].(string)]++
		assert.Equal(t, "Nanyang MBA", d.Metadata["program"])
		assert.Equal(t, 0, d.Metadata["chunk_index"])
		assert.Equal(t, 1, d.Metadata["total_chunks"])
		assert.Equal(t, "MBA", d.Metadata["degree_type"])
		require.Len(t, d.Embedding, 2)
	}
	assert.Equal(t, map[string]int{
		"program_description": 1,
		"requirements":        1,
		"section":             2,
		"sub_page":            1,
	}, types)
}

func TestIngest_SplitsIntoBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeStore{}
	ing := New(emb, st, 1000, 200, 2, zap.NewNop())

	n, err := ing.Ingest(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.Len(t, emb.calls, 3)
	assert.Len(t, emb.calls[0], 2)
	assert.Len(t, emb.calls[1], 2)
	assert.Len(t, emb.calls[2], 1)
}

func TestIngest_PartialBatchesStayWritten(t *testing.T) {
	emb := &fakeEmbedder{failOn: 2, nextErr: errors.New("quota exceeded")}
	st := &fakeStore{}
	ing := New(emb, st, 1000, 200, 2, zap.NewNop())

	n, err := ing.Ingest(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, st.docs, 2)
}

func TestIngest_StripsNulBytes(t *testing.T) {
	result := sampleResult()
	result.Landing.Content = "before\x00after"
	result.Landing.Sections = nil
	result.SubPages = nil

	st := &fakeStore{}
	ing := New(&fakeEmbedder{}, st, 1000, 200, 100, zap.NewNop())

	_, err := ing.Ingest(context.Background(), result)
	require.NoError(t, err)
	require.Len(t, st.docs, 1)
	assert.NotContains(t, st.docs[0].Content, "\x00")
	assert.Contains(t, st.docs[0].Content, "beforeafter")
}

func TestIngest_FailedEntryProducesNothing(t *testing.T) {
	result := &crawl.Result{
		Entry:   catalog.Entry{Name: "Broken", Slug: "broken"},
		Landing: &content.Page{Err: "http status 500"},
	}
	st := &fakeStore{}
	ing := New(&fakeEmbedder{}, st, 1000, 200, 100, zap.NewNop())

	n, err := ing.Ingest(context.Background(), result)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, st.docs)
}

func TestIngest_ChunksLongSources(t *testing.T) {
	result := sampleResult()
	result.Landing.Content = strings.Repeat("word ", 300)
	result.Landing.Sections = nil
	result.SubPages = nil

	st := &fakeStore{}
	ing := New(&fakeEmbedder{}, st, 500, 100, 100, zap.NewNop())

	_, err := ing.Ingest(context.Background(), result)
	require.NoError(t, err)
	require.Greater(t, len(st.docs), 1)

	total := st.docs[0].Metadata["total_chunks"].(int)
	assert.Equal(t, len(st.docs), total)
	for i, d := range st.docs {
		assert.Equal(t, i, d.Metadata["chunk_index"])
		assert.Equal(t, total, d.Metadata["total_chunks"])
	}
}

func TestBuildProgrammeRecord(t *testing.T) {
	rec := BuildProgrammeRecord(sampleResult())

	assert.Equal(t, "Nanyang MBA", rec.Name)
	assert.Equal(t, "MBA", rec.DegreeType)
	assert.Equal(t, "A full-time MBA programme.", rec.Description)
	assert.Equal(t, "https://s.test/grad/mba", rec.URL)
	assert.Equal(t, "12 months full-time", rec.Metadata["duration"])
	assert.Equal(t, "nanyang-mba", rec.Metadata["slug"])
	assert.Equal(t, false, rec.Metadata["is_external"])
}

func TestBuildProgrammeRecord_TruncatesDescription(t *testing.T) {
	result := sampleResult()
	result.Landing.Content = strings.Repeat("é", 4000)

	rec := BuildProgrammeRecord(result)
	assert.Equal(t, 3000, len([]rune(rec.Description)))
}
