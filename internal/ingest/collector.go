package ingest

import (
	"context"
	"errors"
	"fmt"

	"erp-helpdesk-assistant/internal/helpdesk"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/telemetry"

	"github.com/tidwall/gjson"
)

// Source is the help-desk API as the collector needs it.
type Source interface {
	ListModules(ctx context.Context) ([]helpdesk.SourceModule, error)
	FetchDemoPoints(ctx context.Context, moduleID string) (gjson.Result, error)
}

// FatalDiscoveryError aborts an ingestion run: the module listing was
// unreachable or yielded nothing usable.
type FatalDiscoveryError struct {
	Err error
}

func (e *FatalDiscoveryError) Error() string {
	return fmt.Sprintf("module discovery failed: %v", e.Err)
}

func (e *FatalDiscoveryError) Unwrap() error {
	return e.Err
}

var errNoModules = errors.New("no modules found")

// TextChunk is one demo point's text, tagged with the module it came from.
type TextChunk struct {
	ModuleName string
	Body       string
}

// Text is the stored form of the chunk, with its module name as provenance.
func (c TextChunk) Text() string {
	return "Module: " + c.ModuleName + "\n" + c.Body
}

// Collection is the outcome of one collection pass.
type Collection struct {
	Chunks         []TextChunk
	ModulesFound   int
	SkippedModules []string
}

// Collector discovers modules, fetches each independently and walks the
// results into chunks. One module failing never fails the run.
type Collector struct {
	Source  Source
	Walker  *Walker
	Metrics *telemetry.Metrics
}

func (c *Collector) Collect(ctx context.Context) (*Collection, error) {
	modules, err := c.Source.ListModules(ctx)
	if err != nil {
		return nil, &FatalDiscoveryError{Err: err}
	}
	if len(modules) == 0 {
		return nil, &FatalDiscoveryError{Err: errNoModules}
	}

	logger.Info("Modules discovered", "count", len(modules))

	out := &Collection{ModulesFound: len(modules)}
	for idx, m := range modules {
		payload, err := c.Source.FetchDemoPoints(ctx, m.ID)
		if err != nil {
			var partial *helpdesk.PartialModuleError
			if !errors.As(err, &partial) {
				return nil, fmt.Errorf("fetching module %s: %w", m.ID, err)
			}
			logger.Warn("Skipping module", "module_id", m.ID, "module_name", m.Name, "error", partial.Error())
			c.Metrics.RecordModuleSkipped(ctx, m.ID)
			out.SkippedModules = append(out.SkippedModules, m.ID)
			continue
		}

		for _, body := range c.Walker.Walk(ctx, payload) {
			out.Chunks = append(out.Chunks, TextChunk{ModuleName: m.Name, Body: body})
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if (idx+1)%5 == 0 {
			logger.Info("Modules processed", "done", idx+1, "total", len(modules))
		}
	}

	c.Metrics.RecordChunksCollected(ctx, len(out.Chunks))
	logger.Info("Documentation chunks collected",
		"chunks", len(out.Chunks),
		"modules", len(modules),
		"skipped", len(out.SkippedModules))

	return out, nil
}
