package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/application/economy"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
	"shop-economy/internal/presentation/rest/handler"
	restmiddleware "shop-economy/internal/presentation/rest/middleware"
)

// Router REST APIルーター
type Router struct {
	echo   *echo.Echo
	checks map[string]HealthCheckFunc
}

// handlers ルーティング対象のハンドラー一式
type handlers struct {
	pricing  *handler.PricingHandler
	checkout *handler.CheckoutHandler
	specials *handler.SpecialsHandler
	shops    *handler.ShopHandler
	history  *handler.HistoryHandler
	saves    *handler.SaveGameHandler
	devTools *handler.DevToolsHandler
	auth     *handler.AuthHandler
}

// HealthCheckFunc 保存先などの疎通確認
type HealthCheckFunc func(ctx context.Context) error

// Option Routerの任意設定
type Option func(*Router)

// WithHealthCheck /healthで実行する疎通確認を追加
func WithHealthCheck(name string, check HealthCheckFunc) Option {
	return func(r *Router) {
		r.checks[name] = check
	}
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	engine *economy.Engine,
	authService *authapp.AuthApplicationService,
	opts ...Option,
) (*Router, error) {
	r := &Router{checks: map[string]HealthCheckFunc{}}
	for _, opt := range opts {
		opt(r)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// ルーティング前のエラー（404/405）のみここに来る
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		_ = c.JSON(code, handler.ErrorResponse{
			Error:   http.StatusText(code),
			Message: http.StatusText(code),
		})
	}

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	// ハンドラーの作成
	h := &handlers{
		pricing:  handler.NewPricingHandler(engine.Pricing),
		checkout: handler.NewCheckoutHandler(engine.Checkout),
		specials: handler.NewSpecialsHandler(engine.Specials),
		shops:    handler.NewShopHandler(engine.Shops),
		history:  handler.NewHistoryHandler(engine.History),
		saves:    handler.NewSaveGameHandler(engine.Saves),
		devTools: handler.NewDevToolsHandler(engine.DevTools),
		auth:     handler.NewAuthHandler(authService),
	}

	// ルーティングの設定
	setupRoutes(e, cfg, logger, h)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", r.health)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	r.echo = e
	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, h *handlers) {
	// API v1グループ
	api := e.Group("/api/v1")

	// プレイヤー向け（JWT認証）
	player := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	player.GET("/shops/:shop_id/prices", h.pricing.GetPriceList)
	player.GET("/shops/:shop_id/prices/:item_id", h.pricing.GetPrice)
	player.POST("/shops/:shop_id/buy", h.checkout.Purchase)
	player.POST("/shops/:shop_id/sell", h.checkout.Sell)
	player.GET("/me/funds", h.checkout.GetMyFunds)

	// 管理API（APIキー認証）
	// 無効化時はミドルウェアが403を返す
	admin := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))

	admin.POST("/auth/token", h.auth.IssueToken)

	admin.GET("/players/:player_id/funds", h.checkout.GetFundsAdmin)
	admin.POST("/players/:player_id/funds", h.checkout.GrantFunds)

	admin.POST("/shops", h.shops.GetOrCreate)
	admin.GET("/shops", h.shops.List)
	admin.GET("/shops/:shop_id", h.shops.Get)
	admin.DELETE("/shops/:shop_id", h.shops.Delete)

	admin.POST("/shops/:shop_id/specials", h.specials.Create)
	admin.GET("/shops/:shop_id/specials", h.specials.List)
	admin.GET("/shops/:shop_id/specials/search", h.specials.Search)
	admin.GET("/shops/:shop_id/specials/audit", h.specials.Audit)
	admin.POST("/shops/:shop_id/specials/preview", h.specials.PreviewDraft)
	admin.PATCH("/shops/:shop_id/specials/:modifier_id", h.specials.Edit)
	admin.DELETE("/shops/:shop_id/specials/:modifier_id", h.specials.Remove)
	admin.POST("/shops/:shop_id/specials/:modifier_id/enable", h.specials.Enable)
	admin.POST("/shops/:shop_id/specials/:modifier_id/disable", h.specials.Disable)
	admin.GET("/shops/:shop_id/specials/:modifier_id/preview", h.specials.Preview)

	admin.GET("/shops/:shop_id/transactions", h.history.GetShopHistory)
	admin.GET("/transactions/:event_id", h.history.GetEvent)

	admin.GET("/saves", h.saves.List)
	admin.POST("/saves/:slot", h.saves.Save)
	admin.POST("/saves/:slot/load", h.saves.Load)
	admin.DELETE("/saves/:slot", h.saves.Delete)

	admin.GET("/devtools/menu", h.devTools.Menu)
	admin.POST("/devtools/menu/:key", h.devTools.Invoke)
}

// health 登録された疎通確認をすべて実行する。1つでも失敗すれば503
func (r *Router) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			body[name] = err.Error()
			body["status"] = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	return c.JSON(code, body)
}

// ServeHTTP http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
