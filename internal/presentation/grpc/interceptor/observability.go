package interceptor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// metadataCarrier propagation.TextMapCarrier の実装
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// TracingInterceptor OpenTelemetryトレーシングインターセプター
func TracingInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer("shop-economy")

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
		}

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.grpc.status_code", code.String()),
		)
		if isServerError(code) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, "request failed")
		}
		return resp, err
	}
}

// LoggingInterceptor リクエストログとメトリクスを記録するインターセプター
func LoggingInterceptor(logger *otelinfra.Logger, metrics *otelinfra.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		metrics.RecordRequest(ctx, "grpc", info.FullMethod)

		resp, err := handler(ctx, req)

		elapsed := time.Since(start)
		metrics.RecordResponseTime(ctx, "grpc", info.FullMethod, elapsed.Seconds())

		code := status.Code(err)
		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": elapsed.Milliseconds(),
		}

		switch {
		case err == nil:
			logger.Info(ctx, "gRPC request completed", fields)
		case isServerError(code):
			metrics.RecordError(ctx, "server_error")
			logger.Error(ctx, "gRPC request failed", err, fields)
		default:
			metrics.RecordError(ctx, "client_error")
			fields["error"] = status.Convert(err).Message()
			logger.Warn(ctx, "gRPC request rejected", fields)
		}
		return resp, err
	}
}

// isServerError サーバー側の障害を表すコードか
func isServerError(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

var _ propagation.TextMapCarrier = metadataCarrier(nil)
