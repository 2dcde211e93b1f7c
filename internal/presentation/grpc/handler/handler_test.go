package handler

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/application/economy"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/infrastructure/catalog"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
	"shop-economy/internal/infrastructure/persistence/sqlite"
	"shop-economy/internal/presentation/grpc/interceptor"
)

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	engine *economy.Engine
	player *PlayerHandler
	admin  *AdminHandler
}

// newFixture sqliteを使ったエンジンとハンドラーを組み立てる
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "grpc.db"))
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
	player := NewPlayerHandler(engine.Pricing, engine.Checkout)
	player.clock = clock
	admin := NewAdminHandler(engine, authapp.NewAuthApplicationService(&config.JWTConfig{
		Secret:     "grpc-secret",
		Expiration: time.Hour,
		Issuer:     "shop-economy",
	}, logger))
	admin.clock = clock

	return &fixture{engine: engine, player: player, admin: admin}
}

func msg(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func asPlayer(playerID string) context.Context {
	return interceptor.WithPlayerID(context.Background(), playerID)
}

func (f *fixture) mustCreateShop(t *testing.T, shopID string) {
	t.Helper()
	_, err := f.admin.GetOrCreateShop(context.Background(), msg(t, map[string]interface{}{"shop_id": shopID}))
	require.NoError(t, err)
}

func (f *fixture) mustGrant(t *testing.T, playerID string, amount int64) {
	t.Helper()
	_, err := f.admin.GrantFunds(context.Background(), msg(t, map[string]interface{}{"player_id": playerID, "amount": amount}))
	require.NoError(t, err)
}

func (f *fixture) mustCreateSpecial(t *testing.T, shopID, percent string) string {
	t.Helper()
	out, err := f.admin.CreateSpecial(context.Background(), msg(t, swordMarkup(shopID, percent)))
	require.NoError(t, err)
	return out.AsMap()["special"].(map[string]interface{})["id"].(string)
}

func (f *fixture) priceOf(t *testing.T, shopID, itemID string) float64 {
	t.Helper()
	out, err := f.player.GetEffectivePrice(asPlayer("alice"), msg(t, map[string]interface{}{
		"shop_id": shopID,
		"item_id": itemID,
	}))
	require.NoError(t, err)
	return out.AsMap()["quote"].(map[string]interface{})["price"].(float64)
}

func swordMarkup(shopID, percent string) map[string]interface{} {
	return map[string]interface{}{
		"shop_id":      shopID,
		"name":         "Sword Rush",
		"scope_kind":   "item",
		"scope_target": "sword",
		"kind":         "markup",
		"value":        percent,
		"unit":         "percent",
		"manual":       true,
		"actor":        "designer",
	}
}

func assertCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, want, st.Code(), st.Message())
}
