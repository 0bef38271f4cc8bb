// Package engine owns the process-wide resources shared by ingestion and
// answering: the vector store, the embedding and generation models and the
// image text recognizer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"erp-helpdesk-assistant/internal/ai"
	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/helpdesk"
	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/ocr"
	"erp-helpdesk-assistant/internal/query"
	"erp-helpdesk-assistant/internal/telemetry"
	"erp-helpdesk-assistant/internal/vectorstore"
	"erp-helpdesk-assistant/services"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("engine is closed")

// Components are the externally backed pieces an Engine runs on. Tests
// build them from fakes; production code gets them from BuildComponents.
type Components struct {
	Store     vectorstore.Store
	Embedder  ai.Embedder
	Generator ai.Generator
	Source    ingest.Source
	// OCR may be nil, which disables image text recovery.
	OCR ingest.ImageTextRecoverer
	// Closers are released, in order, when the components are retired.
	Closers []io.Closer
}

func (c *Components) close() error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	for _, cl := range c.Closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// Builder produces a fresh set of components.
type Builder func(ctx context.Context) (*Components, error)

// BuildComponents wires the providers selected in cfg.
func BuildComponents(cfg *config.Config, metrics *telemetry.Metrics) Builder {
	return func(ctx context.Context) (*Components, error) {
		clients, err := ai.NewClients(ctx, cfg, metrics)
		if err != nil {
			return nil, err
		}

		store, err := vectorstore.Open(cfg)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("opening vector store: %w", err)
		}

		comps := &Components{
			Store:     store,
			Embedder:  clients.Embedder,
			Generator: clients.Generator,
			Source:    helpdesk.NewClient(cfg),
			Closers:   []io.Closer{clients},
		}

		if cfg.OCREnabled {
			var recognizer ocr.Recognizer
			if cfg.OCRProvider == "gemini" {
				recognizer = clients.Vision
			} else {
				client := services.NewOCRClient(cfg)
				hctx, cancel := context.WithTimeout(ctx, cfg.OCRTimeout)
				ok, err := client.IsHealthy(hctx)
				cancel()
				if !ok {
					// not fatal: every failed recognition already degrades to no text
					logger.Warn("OCR service not healthy, image text will be skipped until it recovers",
						"url", cfg.OCRServiceURL, "error", err)
				}
				recognizer = client
			}
			comps.OCR = ocr.NewFallback(recognizer, cfg.OCRTimeout, cfg.OCRMaxImageWidth, metrics)
		}

		return comps, nil
	}
}

type resources struct {
	comps    *Components
	pipeline *query.Pipeline
	ingestor *ingest.Ingestor
}

// Engine answers questions and runs reindexing against one shared set of
// components. All methods are safe for concurrent use.
type Engine struct {
	cfg     *config.Config
	metrics *telemetry.Metrics
	build   Builder

	mu  sync.RWMutex
	res *resources
}

// New builds the components described by cfg.
func New(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*Engine, error) {
	return NewWithBuilder(ctx, cfg, metrics, BuildComponents(cfg, metrics))
}

// NewWithComponents runs on the given components. Reload reuses them.
func NewWithComponents(cfg *config.Config, metrics *telemetry.Metrics, comps *Components) *Engine {
	e := &Engine{
		cfg:     cfg,
		metrics: metrics,
		build:   func(context.Context) (*Components, error) { return comps, nil },
	}
	e.res = e.assemble(comps)
	return e
}

func NewWithBuilder(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, build Builder) (*Engine, error) {
	comps, err := build(ctx)
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, metrics: metrics, build: build}
	e.res = e.assemble(comps)
	return e, nil
}

func (e *Engine) assemble(comps *Components) *resources {
	retriever := &query.Retriever{
		Embedder:   comps.Embedder,
		Store:      comps.Store,
		TopK:       e.cfg.RetrievalTopK,
		CharBudget: e.cfg.ContextCharBudget,
	}
	pipeline := &query.Pipeline{
		Store:             comps.Store,
		Normalizer:        query.NewNormalizer(query.ERPVocabulary, query.DefaultCutoff),
		Retriever:         retriever,
		Generator:         comps.Generator,
		GenerationTimeout: e.cfg.GenerationTimeout,
		Provider:          e.cfg.LLMProvider,
		Metrics:           e.metrics,
	}

	walker := &ingest.Walker{OCR: comps.OCR, MaxImages: e.cfg.OCRMaxImages}
	ingestor := &ingest.Ingestor{
		Collector: &ingest.Collector{Source: comps.Source, Walker: walker, Metrics: e.metrics},
		Indexer: &ingest.Indexer{
			Embedder:  comps.Embedder,
			Store:     comps.Store,
			StoreName: e.cfg.VectorStore,
			Metrics:   e.metrics,
		},
	}

	return &resources{comps: comps, pipeline: pipeline, ingestor: ingestor}
}

func (e *Engine) current() (*resources, error) {
	if e.res == nil {
		return nil, ErrClosed
	}
	return e.res, nil
}

// Ask answers one question.
func (e *Engine) Ask(ctx context.Context, question string) (*query.Answer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, err := e.current()
	if err != nil {
		return nil, err
	}
	return res.pipeline.Ask(ctx, question)
}

// Reindex runs one ingestion pass. Questions keep being answered while it
// runs and may or may not see chunks written so far.
func (e *Engine) Reindex(ctx context.Context) (*ingest.Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, err := e.current()
	if err != nil {
		return nil, err
	}
	return res.ingestor.Run(ctx)
}

// Count is the number of indexed chunks.
func (e *Engine) Count(ctx context.Context) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, err := e.current()
	if err != nil {
		return 0, err
	}
	return res.comps.Store.Count(ctx)
}

// Reload rebuilds every component and swaps them in once in-flight calls
// have finished. The old components are closed afterwards. On failure the
// current components stay in place. A closed engine stays closed.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.RLock()
	_, err := e.current()
	e.mu.RUnlock()
	if err != nil {
		return err
	}

	comps, err := e.build(ctx)
	if err != nil {
		return fmt.Errorf("reloading components: %w", err)
	}
	next := e.assemble(comps)

	e.mu.Lock()
	old := e.res
	if old == nil {
		e.mu.Unlock()
		if err := comps.close(); err != nil {
			logger.Warn("Closing unused components failed", "error", err)
		}
		return ErrClosed
	}
	e.res = next
	e.mu.Unlock()

	if old.comps != comps {
		if err := old.comps.close(); err != nil {
			logger.Warn("Closing replaced components failed", "error", err)
		}
	}
	logger.Info("Engine components reloaded")
	return nil
}

// Close releases all components. Later calls fail with ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	old := e.res
	e.res = nil
	e.mu.Unlock()

	if old == nil {
		return nil
	}
	return old.comps.close()
}
