package otel

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-economy/internal/infrastructure/config"
)

func TestInitTracer(t *testing.T) {
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
			cfg:  config.OpenTelemetryConfig{Enabled: true, TraceExporter: "stdout", ServiceName: "test-service", ServiceVersion: "1.0.0"},
		},
		{
			name: "正常系: OTLP（接続は遅延されるため初期化は成功する）",
			cfg: config.OpenTelemetryConfig{Enabled: true, TraceExporter: "otlp", OTLPEndpoint: "http://localhost:4318",
				OTLPInsecure: true, ServiceName: "test-service", ServiceVersion: "1.0.0"},
		},
		{
			name:      "異常系: 未対応のエクスポーター",
			cfg:       config.OpenTelemetryConfig{Enabled: true, TraceExporter: "jaeger", ServiceName: "test-service"},
			wantError: "unsupported trace exporter",
		},
		{
			name: "正常系: 採取率と実行環境を指定",
			cfg: config.OpenTelemetryConfig{Enabled: true, TraceExporter: "otlp", OTLPEndpoint: "http://localhost:4318",
				OTLPInsecure: true, ServiceName: "test-service", TraceSampleRatio: 0.1, DeploymentEnvironment: "staging"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := InitTracer(&tt.cfg)
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

func TestTracer(t *testing.T) {
	tracer := Tracer("test-tracer")
	assert.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test-span")
	assert.NotNil(t, span)
	span.End()
}

func TestNewSampler(t *testing.T) {
	sampled := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	tests := []struct {
		name     string
		ratio    float64
		parent   context.Context
		decision sdktrace.SamplingDecision
	}{
		{name: "正常系: 1以上は常に採取", ratio: 1, parent: context.Background(), decision: sdktrace.RecordAndSample},
		{name: "正常系: 0以下は採取しない", ratio: 0, parent: context.Background(), decision: sdktrace.Drop},
		{
			name:     "正常系: 親が採取済みなら採取率0でも採取",
			ratio:    0,
			parent:   trace.ContextWithRemoteSpanContext(context.Background(), sampled),
			decision: sdktrace.RecordAndSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newSampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: tt.parent,
				TraceID:       trace.TraceID{2},
				Name:          "GetEffectivePrice",
			})
			assert.Equal(t, tt.decision, result.Decision)
		})
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(&config.OpenTelemetryConfig{
		ServiceName:           "shop-economy",
		ServiceVersion:        "2.0.0",
		DeploymentEnvironment: "staging",
	})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "shop-economy", attrs["service.name"])
	assert.Equal(t, "2.0.0", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
}
