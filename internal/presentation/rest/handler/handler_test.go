package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/application/economy"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/infrastructure/catalog"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
	"shop-economy/internal/infrastructure/persistence/sqlite"
	restmiddleware "shop-economy/internal/presentation/rest/middleware"
)

const testPlayerHeader = "X-Test-Player"

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	e      *echo.Echo
	engine *economy.Engine
}

// newTestServer sqliteを使ったエンジンとハンドラーを組み立てる
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := otelinfra.NewLogger(otel.Tracer("test"))
	logger.SetOutput(io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	engine, err := economy.New(economy.Options{PriceFloor: 1, PriceCacheSize: 64, DevToolsEnabled: true}, economy.Dependencies{
		Catalog: catalog.New(
			item.MustNewEntry(item.Ref{ID: "sword", Category: "weapons"}, 100, 50, true, true),
			item.MustNewEntry(item.Ref{ID: "potion", Category: "consumables"}, 25, 13, true, true),
			item.MustNewEntry(item.Ref{ID: "relic", Category: "quest"}, 10, 5, false, false),
		),
		Events:  sqlite.NewEventRepository(db),
		Slots:   sqlite.NewSaveSlotRepository(db),
		Logger:  logger,
		Metrics: metrics,
	})
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }

	pricingHandler := NewPricingHandler(engine.Pricing)
	pricingHandler.clock = clock
	checkoutHandler := NewCheckoutHandler(engine.Checkout)
	checkoutHandler.clock = clock
	specialsHandler := NewSpecialsHandler(engine.Specials)
	specialsHandler.clock = clock
	shopHandler := NewShopHandler(engine.Shops)
	historyHandler := NewHistoryHandler(engine.History)
	saveHandler := NewSaveGameHandler(engine.Saves)
	devToolsHandler := NewDevToolsHandler(engine.DevTools)
	authHandler := NewAuthHandler(authapp.NewAuthApplicationService(&config.JWTConfig{
		Secret:     "handler-secret",
		Expiration: time.Hour,
		Issuer:     "shop-economy",
	}, logger))

	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Request().Header.Get(testPlayerHeader); id != "" {
				c.Set(restmiddleware.PlayerIDKey, id)
			}
			return next(c)
		}
	})

	e.GET("/shops/:shop_id/prices", pricingHandler.GetPriceList)
	e.GET("/shops/:shop_id/prices/:item_id", pricingHandler.GetPrice)
	e.POST("/shops/:shop_id/buy", checkoutHandler.Purchase)
	e.POST("/shops/:shop_id/sell", checkoutHandler.Sell)
	e.GET("/me/funds", checkoutHandler.GetMyFunds)
	e.GET("/admin/players/:player_id/funds", checkoutHandler.GetFundsAdmin)
	e.POST("/admin/players/:player_id/funds", checkoutHandler.GrantFunds)

	e.POST("/admin/shops", shopHandler.GetOrCreate)
	e.GET("/admin/shops", shopHandler.List)
	e.GET("/admin/shops/:shop_id", shopHandler.Get)
	e.DELETE("/admin/shops/:shop_id", shopHandler.Delete)

	e.POST("/admin/shops/:shop_id/specials", specialsHandler.Create)
	e.GET("/admin/shops/:shop_id/specials", specialsHandler.List)
	e.GET("/admin/shops/:shop_id/specials/search", specialsHandler.Search)
	e.GET("/admin/shops/:shop_id/specials/audit", specialsHandler.Audit)
	e.POST("/admin/shops/:shop_id/specials/preview", specialsHandler.PreviewDraft)
	e.PATCH("/admin/shops/:shop_id/specials/:modifier_id", specialsHandler.Edit)
	e.DELETE("/admin/shops/:shop_id/specials/:modifier_id", specialsHandler.Remove)
	e.POST("/admin/shops/:shop_id/specials/:modifier_id/enable", specialsHandler.Enable)
	e.POST("/admin/shops/:shop_id/specials/:modifier_id/disable", specialsHandler.Disable)
	e.GET("/admin/shops/:shop_id/specials/:modifier_id/preview", specialsHandler.Preview)

	e.GET("/admin/shops/:shop_id/transactions", historyHandler.GetShopHistory)
	e.GET("/admin/transactions/:event_id", historyHandler.GetEvent)

	e.GET("/admin/saves", saveHandler.List)
	e.POST("/admin/saves/:slot", saveHandler.Save)
	e.POST("/admin/saves/:slot/load", saveHandler.Load)
	e.DELETE("/admin/saves/:slot", saveHandler.Delete)

	e.GET("/admin/devtools/menu", devToolsHandler.Menu)
	e.POST("/admin/devtools/menu/:key", devToolsHandler.Invoke)

	e.POST("/admin/auth/token", authHandler.IssueToken)

	return &testServer{e: e, engine: engine}
}

// do リクエストを送る。playerIDが空なら未認証
func (s *testServer) do(t *testing.T, method, path string, body interface{}, playerID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if playerID != "" {
		req.Header.Set(testPlayerHeader, playerID)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) mustCreateShop(t *testing.T, shopID string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/admin/shops", CreateShopRequest{ShopID: shopID}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) mustCreateSpecial(t *testing.T, shopID string, draft SpecialDraft) ModifierView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/admin/shops/"+shopID+"/specials", CreateSpecialRequest{
		SpecialDraft: draft,
		Actor:        "designer",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SpecialResponse
	decode(t, rec, &resp)
	return resp.Special
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func swordMarkup(percent string) SpecialDraft {
	return SpecialDraft{
		Name:        "Sword Rush",
		ScopeKind:   "item",
		ScopeTarget: "sword",
		Kind:        "markup",
		Value:       percent,
		Unit:        "percent",
		Manual:      true,
	}
}
