package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/application/economy"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/infrastructure/catalog"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
	"shop-economy/internal/infrastructure/persistence/sqlite"
)

const testAPIKey = "admin-key"

func newTestRouter(t *testing.T, adminEnabled bool, opts ...Option) (*Router, *authapp.AuthApplicationService) {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:     "router-secret",
			Expiration: time.Hour,
			Issuer:     "shop-economy",
		},
		AdminAPI: config.AdminAPIConfig{
			Enabled: adminEnabled,
			APIKey:  testAPIKey,
		},
	}

	db, err := sqlite.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := otelinfra.NewLogger(otel.Tracer("test"))
	logger.SetOutput(io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	engine, err := economy.New(economy.Options{PriceFloor: 1}, economy.Dependencies{
		Catalog: catalog.New(item.MustNewEntry(item.Ref{ID: "sword", Category: "weapons"}, 100, 50, true, true)),
		Events:  sqlite.NewEventRepository(db),
		Slots:   sqlite.NewSaveSlotRepository(db),
		Logger:  logger,
		Metrics: metrics,
	})
	require.NoError(t, err)

	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)
	router, err := NewRouter(cfg, logger, metrics, engine, authService, opts...)
	require.NoError(t, err)
	return router, authService
}

func send(t *testing.T, r *Router, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthCheck(t *testing.T) {
	r, _ := newTestRouter(t, true)

	rec := send(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouter_HealthCheckWithStorage(t *testing.T) {
	tests := []struct {
		name       string
		check      HealthCheckFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "正常系: 保存先に接続できる",
			check:      func(ctx context.Context) error { return nil },
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok","storage":"ok"}`,
		},
		{
			name:       "異常系: 保存先に接続できない",
			check:      func(ctx context.Context) error { return errors.New("connection refused") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable","storage":"connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, true, WithHealthCheck("storage", tt.check))

			rec := send(t, r, http.MethodGet, "/health", nil, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRouter_OpenAPISpec(t *testing.T) {
	r, _ := newTestRouter(t, true)

	rec := send(t, r, http.MethodGet, "/openapi.yaml", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shop Economy API")
}

func TestRouter_Authentication(t *testing.T) {
	r, authService := newTestRouter(t, true)
	admin := map[string]string{"X-API-Key": testAPIKey}

	rec := send(t, r, http.MethodPost, "/api/v1/admin/shops", map[string]string{"shop_id": "village"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token, err := authService.IssueToken(context.Background(), &authapp.IssueTokenRequest{PlayerID: "alice"})
	require.NoError(t, err)
	player := map[string]string{"Authorization": "Bearer " + token.Token}

	tests := []struct {
		name       string
		method     string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "正常系: トークンで価格取得", method: http.MethodGet, path: "/api/v1/shops/village/prices/sword", headers: player, wantStatus: http.StatusOK},
		{name: "正常系: トークンで所持金取得", method: http.MethodGet, path: "/api/v1/me/funds", headers: player, wantStatus: http.StatusOK},
		{name: "異常系: トークンなし", method: http.MethodGet, path: "/api/v1/shops/village/prices/sword", wantStatus: http.StatusUnauthorized},
		{name: "異常系: 不正なトークン", method: http.MethodGet, path: "/api/v1/me/funds", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "正常系: APIキーで管理API", method: http.MethodGet, path: "/api/v1/admin/shops", headers: admin, wantStatus: http.StatusOK},
		{name: "異常系: APIキーなし", method: http.MethodGet, path: "/api/v1/admin/shops", wantStatus: http.StatusUnauthorized},
		{name: "異常系: トークンでは管理APIに入れない", method: http.MethodGet, path: "/api/v1/admin/shops", headers: player, wantStatus: http.StatusUnauthorized},
		{name: "正常系: ヘルスチェックは認証不要", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(t, r, tt.method, tt.path, nil, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_PlayerTrade(t *testing.T) {
	r, _ := newTestRouter(t, true)
	admin := map[string]string{"X-API-Key": testAPIKey}

	rec := send(t, r, http.MethodPost, "/api/v1/admin/shops", map[string]string{"shop_id": "village"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = send(t, r, http.MethodPost, "/api/v1/admin/players/alice/funds", map[string]int64{"amount": 300}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, r, http.MethodPost, "/api/v1/admin/auth/token", map[string]string{"player_id": "alice"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))

	player := map[string]string{"Authorization": "Bearer " + issued.Token}
	rec = send(t, r, http.MethodPost, "/api/v1/shops/village/buy", map[string]interface{}{"item_id": "sword", "quantity": 2}, player)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var trade struct {
		PlayerID      string `json:"player_id"`
		Total         int64  `json:"total"`
		PlayerBalance int64  `json:"player_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, "alice", trade.PlayerID)
	assert.Equal(t, int64(200), trade.Total)
	assert.Equal(t, int64(100), trade.PlayerBalance)
}

func TestRouter_AdminDisabled(t *testing.T) {
	r, _ := newTestRouter(t, false)

	rec := send(t, r, http.MethodGet, "/api/v1/admin/shops", nil, map[string]string{"X-API-Key": testAPIKey})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t, true)

	rec := send(t, r, http.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}
