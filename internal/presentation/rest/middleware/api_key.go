package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// APIKeyHeader 管理APIの認証ヘッダー
const APIKeyHeader = "X-API-Key"

// adminRejection 判定結果ごとの応答
type adminRejection struct {
	status int
	code   string
}

var adminRejections = map[error]adminRejection{
	authapp.ErrAdminDisabled: {http.StatusForbidden, "forbidden"},
	authapp.ErrMissingAPIKey: {http.StatusUnauthorized, "unauthorized"},
	authapp.ErrInvalidAPIKey: {http.StatusUnauthorized, "unauthorized"},
	authapp.ErrIPNotAllowed:  {http.StatusForbidden, "forbidden"},
}

// APIKeyMiddleware 管理API（ショップ・スペシャル・セーブ・開発メニュー）の認証
func APIKeyMiddleware(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			cred := authapp.AdminCredentials{
				APIKey:   req.Header.Get(APIKeyHeader),
				ClientIP: authapp.ResolveClientIP(req.Header.Get("X-Forwarded-For"), req.Header.Get("X-Real-IP"), req.RemoteAddr),
			}

			err := authapp.VerifyAdmin(cfg, cred)
			if err == nil {
				return next(c)
			}

			logger.Warn(req.Context(), "Admin request rejected", map[string]interface{}{
				"reason": err.Error(),
				"ip":     cred.ClientIP,
				"path":   c.Path(),
			})
			rejection := adminRejection{http.StatusUnauthorized, "unauthorized"}
			for target, r := range adminRejections {
				if errors.Is(err, target) {
					rejection = r
					break
				}
			}
			return c.JSON(rejection.status, ErrorResponse{
				Error:   rejection.code,
				Message: err.Error(),
			})
		}
	}
}
