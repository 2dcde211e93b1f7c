package pricing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	"shop-economy/internal/infrastructure/catalog"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *PricingApplicationService
	registry *shop.Registry
	cache    *PriceCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat := catalog.New(
		item.MustNewEntry(item.Ref{ID: "sword", Category: "weapons"}, 100, 50, true, true),
		item.MustNewEntry(item.Ref{ID: "potion", Category: "consumables"}, 25, 13, true, true),
		item.MustNewEntry(item.Ref{ID: "relic", Category: "quest"}, 1000, 500, false, false),
	)
	registry := shop.NewRegistry()
	_, _, err := registry.GetOrCreate("village", false)
	require.NoError(t, err)

	cache, err := NewPriceCache(128)
	require.NoError(t, err)

	logger := otelinfra.NewLogger(otel.Tracer("test"))
	logger.SetOutput(io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	svc := NewPricingApplicationService(
		service.NewPricingService(registry, cat, service.DefaultPricePolicy()),
		cat,
		cache,
		logger,
		metrics,
	)
	return &fixture{svc: svc, registry: registry, cache: cache}
}

func (f *fixture) addModifier(t *testing.T, shopID string, m *modifier.Modifier) {
	t.Helper()
	inst, err := f.registry.Get(shopID)
	require.NoError(t, err)
	_, err = inst.Store().Add(m)
	require.NoError(t, err)
}

func TestPricingApplicationService_GetEffectivePrice(t *testing.T) {
	tests := []struct {
		name      string
		req       *GetPriceRequest
		setup     func(t *testing.T, f *fixture)
		wantPrice int64
		wantErr   error
		wantError bool
	}{
		{
			name: "正常系: 修飾子なしは基本価格",
			req: &GetPriceRequest{
				ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0,
			},
			wantPrice: 100,
		},
		{
			name: "正常系: 値上げ20%",
			req: &GetPriceRequest{
				ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0,
			},
			setup: func(t *testing.T, f *fixture) {
				f.addModifier(t, "village", modifier.MustNewModifier("m1", modifier.Definition{
					Scope:     modifier.CategoryScope("weapons"),
					Kind:      modifier.KindMarkup,
					Magnitude: modifier.Percent(20),
					Priority:  1,
					Window:    modifier.ManualWindow(),
				}, true, t0))
			},
			wantPrice: 120,
		},
		{
			name: "正常系: 売却価格",
			req: &GetPriceRequest{
				ShopID: "village", ItemID: "sword", TransactionType: "sell", Now: t0,
			},
			wantPrice: 50,
		},
		{
			name: "異常系: 存在しないショップ",
			req: &GetPriceRequest{
				ShopID: "nowhere", ItemID: "sword", TransactionType: "buy", Now: t0,
			},
			wantErr:   shop.ErrUnknownShop,
			wantError: true,
		},
		{
			name: "異常系: 存在しないアイテム",
			req: &GetPriceRequest{
				ShopID: "village", ItemID: "ghost", TransactionType: "buy", Now: t0,
			},
			wantErr:   item.ErrUnknownItem,
			wantError: true,
		},
		{
			name: "異常系: 不正な取引タイプ",
			req: &GetPriceRequest{
				ShopID: "village", ItemID: "sword", TransactionType: "gift", Now: t0,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			resp, err := f.svc.GetEffectivePrice(context.Background(), tt.req)
			if tt.wantError {
				assert.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, resp.Quote.Price)
			assert.False(t, resp.Cached)
		})
	}
}

func TestPricingApplicationService_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &GetPriceRequest{ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0}

	resp, err := f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, int64(100), resp.Quote.Price)

	resp, err = f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.Cached)

	// 無効化しない限り古い価格が返る
	f.addModifier(t, "village", modifier.MustNewModifier("sale", modifier.Definition{
		Scope:     modifier.ItemScope("sword"),
		Kind:      modifier.KindMarkdown,
		Magnitude: modifier.Percent(10),
		Window:    modifier.ManualWindow(),
	}, true, t0))

	resp, err = f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, int64(100), resp.Quote.Price)

	f.svc.InvalidateShop(ctx, "village", modifier.ItemScope("sword"))

	resp, err = f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, int64(90), resp.Quote.Price)

	// 期間の境界がなければ時刻が違ってもヒットする
	resp, err = f.svc.GetEffectivePrice(ctx, &GetPriceRequest{
		ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0.Add(time.Second),
	})
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, int64(90), resp.Quote.Price)

	f.svc.InvalidateAll(ctx)
	assert.Equal(t, 0, f.cache.Len())
}

func TestPricingApplicationService_CacheValidityWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addModifier(t, "village", modifier.MustNewModifier("happy-hour", modifier.Definition{
		Scope:     modifier.ItemScope("sword"),
		Kind:      modifier.KindMarkdown,
		Magnitude: modifier.Percent(50),
		Window:    modifier.Between(t0.Add(time.Hour), t0.Add(2*time.Hour)),
	}, true, t0))

	tests := []struct {
		name       string
		now        time.Time
		wantPrice  int64
		wantCached bool
	}{
		{name: "正常系: 開始前の初回は計算する", now: t0, wantPrice: 100},
		{name: "正常系: 開始前ならヒットする", now: t0.Add(59 * time.Minute), wantPrice: 100, wantCached: true},
		{name: "正常系: 開始時刻を跨ぐと再計算する", now: t0.Add(time.Hour), wantPrice: 50},
		{name: "正常系: 期間中ならヒットする", now: t0.Add(90 * time.Minute), wantPrice: 50, wantCached: true},
		{name: "正常系: 終了時刻を跨ぐと再計算する", now: t0.Add(2 * time.Hour), wantPrice: 100},
		{name: "正常系: 終了後は以降ずっとヒットする", now: t0.Add(48 * time.Hour), wantPrice: 100, wantCached: true},
		{name: "正常系: 過去の時刻は再計算する", now: t0.Add(30 * time.Minute), wantPrice: 100},
	}

	// 各ケースは前のケースのキャッシュ状態に依存する
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.GetEffectivePrice(ctx, &GetPriceRequest{
				ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: tt.now,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, resp.Quote.Price)
			assert.Equal(t, tt.wantCached, resp.Cached)
		})
	}
}

func TestPriceCache_AddWithStaleGeneration(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *PriceCache)
		wantStored bool
	}{
		{name: "正常系: 世代が変わらなければ保存する", invalidate: func(*PriceCache) {}, wantStored: true},
		{name: "異常系: 計算中にショップが無効化された", invalidate: func(c *PriceCache) { c.InvalidateShop("village") }},
		{name: "異常系: 計算中に全体が破棄された", invalidate: func(c *PriceCache) { c.Purge() }},
		{name: "正常系: 別ショップの無効化は影響しない", invalidate: func(c *PriceCache) { c.InvalidateShop("harbor") }, wantStored: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewPriceCache(16)
			require.NoError(t, err)

			gen := c.Generation("village")
			tt.invalidate(c)
			stored := c.Add(gen, "village", "sword", transaction.TransactionTypeBuy, &service.Quote{Price: 100})
			assert.Equal(t, tt.wantStored, stored)

			_, ok := c.Get(c.Generation("village"), "village", "sword", transaction.TransactionTypeBuy, t0)
			assert.Equal(t, tt.wantStored, ok)
		})
	}
}

func TestPricingApplicationService_ConcurrentInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addModifier(t, "village", modifier.MustNewModifier("sale", modifier.Definition{
		Scope:     modifier.ItemScope("sword"),
		Kind:      modifier.KindMarkdown,
		Magnitude: modifier.Percent(10),
		Window:    modifier.ManualWindow(),
	}, true, t0))
	inst, err := f.registry.Get("village")
	require.NoError(t, err)

	req := &GetPriceRequest{ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				if _, err := f.svc.GetEffectivePrice(ctx, req); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 200; j++ {
			if j%2 == 0 {
				if _, err := inst.Store().Enable("sale"); err != nil {
					return err
				}
			} else if err := inst.Store().Disable("sale"); err != nil {
				return err
			}
			f.svc.InvalidateShop(ctx, "village", modifier.ItemScope("sword"))
		}
		return nil
	})
	require.NoError(t, g.Wait())

	// 最後の変更は無効化。キャッシュは変更後の価格を返さなければならない
	resp, err := f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.Quote.Price)

	resp, err = f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, int64(100), resp.Quote.Price)
}

func TestPricingApplicationService_CachedQuoteIsCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &GetPriceRequest{ShopID: "village", ItemID: "sword", TransactionType: "buy", Now: t0}

	resp, err := f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	resp.Quote.Price = 1

	resp, err = f.svc.GetEffectivePrice(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.Quote.Price)
}

func TestPricingApplicationService_GetPriceList(t *testing.T) {
	f := newFixture(t)
	f.addModifier(t, "village", modifier.MustNewModifier("all", modifier.Definition{
		Scope:     modifier.ShopScope(),
		Kind:      modifier.KindMarkup,
		Magnitude: modifier.Absolute(5),
		Window:    modifier.ManualWindow(),
		Side:      modifier.SideBuy,
	}, true, t0))

	resp, err := f.svc.GetPriceList(context.Background(), &PriceListRequest{
		ShopID: "village", TransactionType: "buy", Now: t0,
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 3)

	byID := make(map[string]PriceListEntry)
	for _, e := range resp.Entries {
		byID[e.ItemID] = e
	}
	assert.Equal(t, int64(105), byID["sword"].Quote.Price)
	assert.Equal(t, int64(30), byID["potion"].Quote.Price)
	assert.False(t, byID["relic"].Tradable)
	assert.Nil(t, byID["relic"].Quote)

	_, err = f.svc.GetPriceList(context.Background(), &PriceListRequest{
		ShopID: "nowhere", TransactionType: "buy", Now: t0,
	})
	assert.ErrorIs(t, err, shop.ErrUnknownShop)
}

func TestPricingApplicationService_Preview(t *testing.T) {
	f := newFixture(t)
	candidate := modifier.MustNewModifier("draft", modifier.Definition{
		Scope:     modifier.ItemScope("sword"),
		Kind:      modifier.KindFixedOverride,
		Magnitude: modifier.Absolute(42),
		Window:    modifier.ManualWindow(),
	}, true, t0)

	q, err := f.svc.Preview(context.Background(), "village", item.Ref{ID: "sword"}, transaction.TransactionTypeBuy, t0, candidate)
	require.NoError(t, err)
	assert.Equal(t, int64(42), q.Price)

	inst, err := f.registry.Get("village")
	require.NoError(t, err)
	assert.Equal(t, 0, inst.Store().Len())
}
