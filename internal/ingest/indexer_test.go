package ingest

import (
	"context"
	"errors"
	"testing"

	"erp-helpdesk-assistant/internal/helpdesk"
	"erp-helpdesk-assistant/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lengthEmbedder derives a tiny deterministic vector from the text.
type lengthEmbedder struct {
	calls int
	err   error
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestIndexer_AssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemory()
	ix := &Indexer{Embedder: &lengthEmbedder{}, Store: store}

	n, err := ix.Index(ctx, []TextChunk{
		{ModuleName: "Leave", Body: "first chunk body of some length"},
		{ModuleName: "Fees", Body: "second chunk body, a bit longer than the first"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a second run appends after what is already there
	n, err = ix.Index(ctx, []TextChunk{{ModuleName: "Hostel", Body: "third chunk body text"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	matches, err := store.Query(ctx, []float32{float32(len("Module: Hostel\nthird chunk body text")), 1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc_2", matches[0].ID)
	assert.Equal(t, "Module: Hostel\nthird chunk body text", matches[0].Text)
}

func TestIndexer_NothingToIndex(t *testing.T) {
	emb := &lengthEmbedder{}
	ix := &Indexer{Embedder: emb, Store: vectorstore.NewMemory()}

	_, err := ix.Index(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNothingToIndex)
	assert.Zero(t, emb.calls)
}

func TestIndexer_EmbeddingFailureStopsRun(t *testing.T) {
	embErr := errors.New("embedding service down")
	ix := &Indexer{Embedder: &lengthEmbedder{err: embErr}, Store: vectorstore.NewMemory()}

	n, err := ix.Index(context.Background(), []TextChunk{{ModuleName: "A", Body: "body"}})

	assert.ErrorIs(t, err, embErr)
	assert.Zero(t, n)
}

func TestIngestor_Run_SkipsFailedModule(t *testing.T) {
	src := &fakeSource{
		modules: []helpdesk.SourceModule{{ID: "1", Name: "Leave"}, {ID: "2", Name: "Payroll"}},
		payloads: map[string]string{
			"1": singleDemo("Employees can apply for leave via the Leave tab."),
		},
		failures: map[string]error{
			"2": &helpdesk.PartialModuleError{ModuleID: "2", StatusCode: 503},
		},
	}
	store := vectorstore.NewMemory()
	in := &Ingestor{
		Collector: &Collector{Source: src, Walker: &Walker{}},
		Indexer:   &Indexer{Embedder: &lengthEmbedder{}, Store: store},
	}

	res, err := in.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, []string{"2"}, res.SkippedModules)
	assert.NotEmpty(t, res.RunID)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestor_Run_NoChunks(t *testing.T) {
	src := &fakeSource{
		modules:  []helpdesk.SourceModule{{ID: "1", Name: "Leave"}},
		payloads: map[string]string{"1": `{"data": {}}`},
	}
	in := &Ingestor{
		Collector: &Collector{Source: src, Walker: &Walker{}},
		Indexer:   &Indexer{Embedder: &lengthEmbedder{}, Store: vectorstore.NewMemory()},
	}

	_, err := in.Run(context.Background())

	assert.ErrorIs(t, err, ErrNothingToIndex)
}
