package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	QueriesTotal       metric.Int64Counter
	DocumentsIngested  metric.Int64Counter
	ChunksIndexed      metric.Int64Counter
	GenerationFailures metric.Int64Counter
	RetrievalDuration  metric.Float64Histogram
	DatabaseOperations metric.Int64Counter
	RequestsTotal      metric.Int64Counter
	RequestDuration    metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docqa-platform")

	queriesTotal, err := meter.Int64Counter(
		"query.answered.total",
		metric.WithDescription("Total answered queries"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"documents.ingested.total",
		metric.WithDescription("Total documents ingested"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"chunks.indexed.total",
		metric.WithDescription("Total chunks written to the retrieval index"),
	)
	if err != nil {
		return nil, err
	}

	generationFailures, err := meter.Int64Counter(
		"generation.failures.total",
		metric.WithDescription("Generation attempts that exhausted all providers"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"retrieval.duration",
		metric.WithDescription("Retrieval scoring duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	requestsTotal, err := meter.Int64Counter(
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

	return &Metrics{
		QueriesTotal:       queriesTotal,
		DocumentsIngested:  documentsIngested,
		ChunksIndexed:      chunksIndexed,
		GenerationFailures: generationFailures,
		RetrievalDuration:  retrievalDuration,
		DatabaseOperations: databaseOperations,
		RequestsTotal:      requestsTotal,
		RequestDuration:    requestDuration,
	}, nil
}

// RecordRequest counts one HTTP request and its duration.
func (m *Metrics) RecordRequest(ctx context.Context, method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", status),
	)
	m.RequestsTotal.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, seconds, attrs)
}

// RecordQuery counts one answered query for a tenant.
func (m *Metrics) RecordQuery(ctx context.Context, tenantID, provider string, grounded bool) {
	if m == nil {
		return
	}
	m.QueriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("provider", provider),
		attribute.Bool("grounded", grounded),
	))
}

// RecordIngest counts one ingested document and its chunks.
func (m *Metrics) RecordIngest(ctx context.Context, tenantID string, chunks int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tenant_id", tenantID))
	m.DocumentsIngested.Add(ctx, 1, attrs)
	m.ChunksIndexed.Add(ctx, int64(chunks), attrs)
}
