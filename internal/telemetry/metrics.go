package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing, so library code never has to check.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	AnswerCounter       metric.Int64Counter
	GenerationDuration  metric.Float64Histogram
	ModulesSkipped      metric.Int64Counter
	ChunksCollected     metric.Int64Counter
	ChunksIndexed       metric.Int64Counter
	OCRAttempts         metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("erp-helpdesk-assistant")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	answerCounter, err := meter.Int64Counter(
		"answers.total",
		metric.WithDescription("Answers produced, by terminal pipeline state"),
	)
	if err != nil {
		return nil, err
	}

	generationDuration, err := meter.Float64Histogram(
		"generation.duration",
		metric.WithDescription("Generation call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	modulesSkipped, err := meter.Int64Counter(
		"ingest.modules.skipped",
		metric.WithDescription("Modules skipped because their fetch failed"),
	)
	if err != nil {
		return nil, err
	}

	chunksCollected, err := meter.Int64Counter(
		"ingest.chunks.collected",
		metric.WithDescription("Text chunks collected from the source API"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.indexed",
		metric.WithDescription("Text chunks embedded and upserted"),
	)
	if err != nil {
		return nil, err
	}

	ocrAttempts, err := meter.Int64Counter(
		"ocr.attempts.total",
		metric.WithDescription("Optical text recovery attempts"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		AnswerCounter:       answerCounter,
		GenerationDuration:  generationDuration,
		ModulesSkipped:      modulesSkipped,
		ChunksCollected:     chunksCollected,
		ChunksIndexed:       chunksIndexed,
		OCRAttempts:         ocrAttempts,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordAnswer counts one answer by the pipeline state that produced it
func (m *Metrics) RecordAnswer(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.AnswerCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("answer.state", state)))
}

// RecordGeneration records generation latency and outcome
func (m *Metrics) RecordGeneration(ctx context.Context, provider string, duration float64, success bool) {
	if m == nil {
		return
	}
	m.GenerationDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.Bool("llm.success", success),
	))
}

// RecordModuleSkipped counts a module dropped from an ingestion run
func (m *Metrics) RecordModuleSkipped(ctx context.Context, moduleID string) {
	if m == nil {
		return
	}
	m.ModulesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("module.id", moduleID)))
}

func (m *Metrics) RecordChunksCollected(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.ChunksCollected.Add(ctx, int64(n))
}

func (m *Metrics) RecordChunksIndexed(ctx context.Context, n int, store string) {
	if m == nil {
		return
	}
	m.ChunksIndexed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("store", store)))
}

// RecordOCRAttempt records one recognition attempt; recovered means it
// yielded text rather than falling back to empty.
func (m *Metrics) RecordOCRAttempt(ctx context.Context, recovered bool) {
	if m == nil {
		return
	}
	m.OCRAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ocr.recovered", recovered)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
