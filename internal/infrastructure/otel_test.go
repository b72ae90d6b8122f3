package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscleaner/internal/config"
	"dscleaner/pkg/contracts"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// default config keeps tracing off
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "svc",
		Environment:    "prod",
		TracingEnabled: true,
		TraceExporter:  "stdout",
		MetricsEnabled: false,
	})
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, contracts.Version, cfg.ServiceVersion)
	assert.Equal(t, "prod", cfg.Environment)
	assert.True(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *OTelConfig
		wantErr bool
		check   func(*testing.T, *OTelProviders)
	}{
		{
			name: "stdout tracing",
			cfg:  &OTelConfig{ServiceName: "t", TraceExporter: "stdout", EnableTracing: true, SampleRatio: 1},
			check: func(t *testing.T, p *OTelProviders) {
				assert.NotNil(t, p.TracerProvider)
				assert.Nil(t, p.PrometheusHTTP)
			},
		},
		{
			name: "tracing enabled with none exporter",
			cfg:  &OTelConfig{ServiceName: "t", TraceExporter: "none", EnableTracing: true},
			check: func(t *testing.T, p *OTelProviders) {
				assert.Nil(t, p.TracerProvider)
				assert.NotNil(t, p.Tracer)
			},
		},
		{
			name: "metrics disabled uses a noop meter",
			cfg:  &OTelConfig{ServiceName: "t"},
			check: func(t *testing.T, p *OTelProviders) {
				assert.Nil(t, p.MeterProvider)
				require.NotNil(t, p.Meter)
				_, err := CreateBusinessMetrics(p.Meter)
				assert.NoError(t, err)
			},
		},
		{
			name:    "unknown trace exporter",
			cfg:     &OTelConfig{ServiceName: "t", TraceExporter: "zipkin", EnableTracing: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := InitializeOTel(tt.cfg, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer p.Shutdown(context.Background())
			tt.check(t, p)
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "t",
		TraceExporter: "stdout",
		EnableTracing: true,
		SampleRatio:   1,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "split")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestRecordDatasetOperation(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordDatasetOperation(ctx, metrics, DatasetOperation{
		Name:     "remove_duplicates",
		Duration: 15 * time.Millisecond,
		RowsIn:   3,
		RowsOut:  2,
	})
	RecordDatasetOperation(ctx, metrics, DatasetOperation{
		Name: "split",
		Err:  errors.New("boom"),
	})
	RecordUpload(ctx, metrics, "csv", 128)

	body := scrape(t, providers.PrometheusHTTP)
	assert.Contains(t, body, "dataset_operations")
	assert.Contains(t, body, `operation="remove_duplicates"`)
	assert.Contains(t, body, `status="failure"`)
	assert.Contains(t, body, "dataset_operation_errors")
	assert.Contains(t, body, "dataset_rows_out")
	assert.Contains(t, body, `format="csv"`)
	// runtime collectors share the registry
	assert.Contains(t, body, "go_goroutines")
}

func TestRegisterSessionGauge(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NoError(t, RegisterSessionGauge(providers.Meter, func() int { return 3 }))
	assert.Contains(t, scrape(t, providers.PrometheusHTTP), "dataset_active_sessions")
}

func TestRecordWithNilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDatasetOperation(context.Background(), nil, DatasetOperation{Name: "x"})
		RecordUpload(context.Background(), nil, "csv", 1)
	})
}

func TestRecordError_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("x"))
	})
}
