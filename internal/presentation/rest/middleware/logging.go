package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// requestFields ルートとショップ/プレイヤーの識別子をログ用にまとめる
func requestFields(c echo.Context) map[string]interface{} {
	fields := map[string]interface{}{
		"method": c.Request().Method,
		"route":  c.Path(),
		"path":   c.Request().URL.Path,
	}
	if shopID := c.Param("shop_id"); shopID != "" {
		fields["shop_id"] = shopID
	}
	if playerID := PlayerID(c); playerID != "" {
		fields["player_id"] = playerID
	}
	return fields
}

// LoggingMiddleware ログミドルウェア
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()

			started := requestFields(c)
			started["remote_addr"] = c.RealIP()
			started["user_agent"] = c.Request().UserAgent()
			logger.Debug(ctx, "HTTP request started", started)

			err := next(c)

			// 認証後に確定する値があるので取り直す
			fields := requestFields(c)
			fields["status_code"] = c.Response().Status
			fields["duration_ms"] = time.Since(start).Milliseconds()

			switch {
			case err != nil:
				logger.Error(c.Request().Context(), "HTTP request failed", err, fields)
			case c.Response().Status >= 500:
				logger.Warn(c.Request().Context(), "HTTP request completed with server error", fields)
			default:
				logger.Info(c.Request().Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
