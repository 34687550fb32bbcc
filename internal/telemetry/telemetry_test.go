package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Tests here replace otel globals and package seams, so they do not run in parallel.

func TestSetup_None(t *testing.T) {
	for _, name := range []string{"", ExporterNone} {
		shutdown, err := Setup(context.Background(), Config{Exporter: name})
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{Exporter: "zipkin", ServiceName: "test"})
	require.ErrorIs(t, err, ErrUnknownExporter)
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{
		Exporter:    ExporterStdout,
		ServiceName: "contract-bot-test",
		Version:     "test",
		Writer:      &buf,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, span := otel.Tracer("telemetry-test").Start(ctx, "unit.span")
	span.End()

	counter, err := otel.Meter("telemetry-test").Int64Counter("unit.counter")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	require.NoError(t, shutdown(ctx))

	out := buf.String()
	require.Contains(t, out, "unit.span")
	require.Contains(t, out, "unit.counter")
	require.Contains(t, out, "contract-bot-test")
}

func TestSetup_MetricExporterFailure(t *testing.T) {
	spans := tracetest.NewInMemoryExporter()
	origTrace, origMetric := newTraceExporter, newMetricExporter
	t.Cleanup(func() {
		newTraceExporter, newMetricExporter = origTrace, origMetric
	})

	newTraceExporter = func(context.Context, Config) (sdktrace.SpanExporter, error) {
		return spans, nil
	}
	newMetricExporter = func(context.Context, Config) (sdkmetric.Exporter, error) {
		return nil, errors.New("collector unreachable")
	}

	_, err := Setup(context.Background(), Config{Exporter: ExporterOTLPGRPC, ServiceName: "test"})
	require.ErrorContains(t, err, "collector unreachable")
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := HTTPClient(5 * time.Second)
	require.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
