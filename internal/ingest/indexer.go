package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/telemetry"

	"github.com/google/uuid"
)

// ErrNothingToIndex means collection succeeded but produced no chunks.
var ErrNothingToIndex = errors.New("no documents collected, nothing to index")

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter is the write side of the vector store.
type VectorWriter interface {
	Upsert(ctx context.Context, id string, vector []float32, text string) error
	Count(ctx context.Context) (int, error)
}

// Indexer embeds chunks and upserts them under sequential doc_<n> ids.
// Numbering continues from the store's current count, so a run appends
// to what earlier runs left behind rather than overwriting it.
type Indexer struct {
	Embedder  Embedder
	Store     VectorWriter
	StoreName string
	Metrics   *telemetry.Metrics
}

func (ix *Indexer) Index(ctx context.Context, chunks []TextChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrNothingToIndex
	}

	offset, err := ix.Store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading store count: %w", err)
	}

	indexed := 0
	for i, chunk := range chunks {
		text := chunk.Text()
		vec, err := ix.Embedder.Embed(ctx, text)
		if err != nil {
			ix.Metrics.RecordChunksIndexed(ctx, indexed, ix.StoreName)
			return indexed, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		if err := ix.Store.Upsert(ctx, DocumentID(offset+i), vec, text); err != nil {
			ix.Metrics.RecordChunksIndexed(ctx, indexed, ix.StoreName)
			return indexed, fmt.Errorf("upserting chunk %d: %w", i, err)
		}
		indexed++
	}

	ix.Metrics.RecordChunksIndexed(ctx, indexed, ix.StoreName)
	return indexed, nil
}

// DocumentID is the store identifier for the n-th chunk.
func DocumentID(n int) string {
	return fmt.Sprintf("doc_%d", n)
}

// Result summarises one reindex run.
type Result struct {
	RunID          string
	Indexed        int
	ModulesFound   int
	SkippedModules []string
	Chunks         []TextChunk
	Duration       time.Duration
}

// Ingestor runs collection followed by indexing.
type Ingestor struct {
	Collector *Collector
	Indexer   *Indexer
}

// Run performs one full reindex. It fails with a *FatalDiscoveryError when
// no modules are found and with ErrNothingToIndex when no chunk survives.
func (in *Ingestor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger.Info("Reindex started", "run_id", runID)

	collection, err := in.Collector.Collect(ctx)
	if err != nil {
		logger.Error("Reindex aborted", "run_id", runID, "error", err)
		return nil, err
	}

	indexed, err := in.Indexer.Index(ctx, collection.Chunks)
	res := &Result{
		RunID:          runID,
		Indexed:        indexed,
		ModulesFound:   collection.ModulesFound,
		SkippedModules: collection.SkippedModules,
		Chunks:         collection.Chunks,
		Duration:       time.Since(start),
	}
	if err != nil {
		logger.Error("Reindex failed", "run_id", runID, "indexed", indexed, "error", err)
		return res, err
	}

	logger.Info("Reindex finished",
		"run_id", runID,
		"indexed", indexed,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}
