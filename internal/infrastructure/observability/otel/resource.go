// Package otel はトレース・メトリクス・構造化ログの初期化を提供する
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"shop-economy/internal/infrastructure/config"
)

const (
	exporterOTLP   = "otlp"
	exporterStdout = "stdout"
)

// noopShutdown エクスポートしない場合の終了処理
func noopShutdown(context.Context) error { return nil }

// exportsOTLP エクスポーター名を検証し、OTLPで送るかどうかを返す
// stdoutはローカル開発用で、ログのtrace_idのみ使いエクスポートはしない
func exportsOTLP(signal, exporter string) (bool, error) {
	switch exporter {
	case exporterOTLP:
		return true, nil
	case exporterStdout:
		return false, nil
	default:
		return false, fmt.Errorf("unsupported %s exporter: %s", signal, exporter)
	}
}

// newResource サービスと実行環境を表すリソースを作成
func newResource(cfg *config.OpenTelemetryConfig) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
		resource.WithHost(),
	}
	if cfg.DeploymentEnvironment != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.DeploymentEnvironmentKey.String(cfg.DeploymentEnvironment),
		))
	}

	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
