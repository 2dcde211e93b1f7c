package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	apimetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"shop-economy/internal/infrastructure/config"
)

// InitMeter メータープロバイダーを登録し、終了処理を返す
func InitMeter(cfg *config.OpenTelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	export, err := exportsOTLP("metrics", cfg.MetricsExporter)
	if err != nil {
		return nil, err
	}
	if !export {
		return noopShutdown, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, readerOptions(cfg)...)),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// readerOptions 送信間隔が指定されていればPeriodicReaderに渡す
func readerOptions(cfg *config.OpenTelemetryConfig) []metric.PeriodicReaderOption {
	if cfg.MetricInterval <= 0 {
		return nil
	}
	return []metric.PeriodicReaderOption{metric.WithInterval(cfg.MetricInterval)}
}

// Meter メーターを取得
func Meter(name string) apimetric.Meter {
	return otel.Meter(name)
}
