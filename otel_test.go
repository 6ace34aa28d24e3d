package issuehub

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitTracerNoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracer("test-service")
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid(), "expected no-op span when OTEL_EXPORTER_OTLP_ENDPOINT is unset")
}

func TestInitTracerWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

	shutdown, err := InitTracer("test-service")
	require.NoError(t, err)
	defer shutdown(context.Background())
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid(), "expected valid SpanContext when OTEL_EXPORTER_OTLP_ENDPOINT is set")
}

// recordSpans installs an in-memory exporter for the duration of the test.
func recordSpans(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		tp.Shutdown(context.Background())
	})
	return exporter, tp
}

func findSpan(spans tracetest.SpanStubs, name string) *tracetest.SpanStub {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func TestUpstreamCallCreatesSpan(t *testing.T) {
	exporter, tp := recordSpans(t)

	env := newTestEnv(t)
	env.graphql(t, `{ getLabels(owner: "octo", name: "hello-world") { name } }`, nil)
	tp.ForceFlush(context.Background())

	assert.NotNil(t, findSpan(exporter.GetSpans(), "upstream.getLabels"))
}

func TestUpstreamSpanRecordsFailure(t *testing.T) {
	exporter, tp := recordSpans(t)

	env := newTestEnv(t)
	env.sim.FailNext(http.StatusBadGateway, "bad gateway")
	env.graphql(t, `{ getLabels(owner: "octo", name: "hello-world") { name } }`, nil)
	tp.ForceFlush(context.Background())

	span := findSpan(exporter.GetSpans(), "upstream.getLabels")
	require.NotNil(t, span)
	assert.Equal(t, "upstream_error", span.Status.Description)
}
