package interceptor

import (
	"io"

	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

func newQuietLogger() *otelinfra.Logger {
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	logger.SetOutput(io.Discard)
	return logger
}
