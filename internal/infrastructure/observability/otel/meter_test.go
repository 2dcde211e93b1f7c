package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-economy/internal/infrastructure/config"
)

func TestInitMeter(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.OpenTelemetryConfig
		wantError string
	}{
		{
			name: "正常系: 無効化",
			cfg:  config.OpenTelemetryConfig{Enabled: false},
		},
		{
			name: "正常系: stdout",
			cfg:  config.OpenTelemetryConfig{Enabled: true, MetricsExporter: "stdout"},
		},
		{
			name:      "異常系: 未対応のエクスポーター",
			cfg:       config.OpenTelemetryConfig{Enabled: true, MetricsExporter: "prometheus"},
			wantError: "unsupported metrics exporter",
		},
		{
			name: "正常系: OTLPと送信間隔",
			cfg: config.OpenTelemetryConfig{Enabled: true, MetricsExporter: "otlp", OTLPEndpoint: "http://localhost:4318",
				OTLPInsecure: true, ServiceName: "test-service", MetricInterval: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := InitMeter(&tt.cfg)
			if tt.wantError != "" {
				assert.Error(t, err)
				assert.Nil(t, shutdown)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = shutdown(ctx)
		})
	}
}

func TestMeter(t *testing.T) {
	meter := Meter("test-meter")
	require.NotNil(t, meter)

	counter, err := meter.Int64Counter("test_counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}

func TestReaderOptions(t *testing.T) {
	assert.Empty(t, readerOptions(&config.OpenTelemetryConfig{}))
	assert.Len(t, readerOptions(&config.OpenTelemetryConfig{MetricInterval: 10 * time.Second}), 1)
}
