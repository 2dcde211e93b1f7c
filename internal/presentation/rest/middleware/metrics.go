package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			route := c.Path()

			metrics.RecordRequest(ctx, c.Request().Method, route)

			err := next(c)

			metrics.RecordResponseTime(ctx, c.Request().Method, route, time.Since(start).Seconds())

			// エラーハンドラーが応答済みの場合もステータスで判定する
			if errorType := errorTypeOf(c.Response().Status, err); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

// errorTypeOf ステータスコードからエラー種別を返す。エラーでなければ空文字
func errorTypeOf(status int, err error) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	case err != nil:
		// ステータス未確定のままハンドラーが失敗した
		return "unhandled_error"
	default:
		return ""
	}
}
