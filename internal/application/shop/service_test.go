package shop

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/shop"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

type recordingInvalidator struct {
	shops []string
}

func (r *recordingInvalidator) InvalidateShop(ctx context.Context, shopID string, scope modifier.Scope) {
	r.shops = append(r.shops, shopID)
}

func newTestShopService(t *testing.T) (*ShopApplicationService, *shop.Registry, *recordingInvalidator) {
	t.Helper()
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	logger.SetOutput(io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	registry := shop.NewRegistry()
	inv := &recordingInvalidator{}
	return NewShopApplicationService(registry, inv, logger, metrics), registry, inv
}

func TestShopApplicationService_GetOrCreate(t *testing.T) {
	tests := []struct {
		name        string
		reqs        []*GetOrCreateRequest
		wantCreated bool
		wantShared  bool
		wantErr     error
	}{
		{
			name:        "正常系: 新規作成",
			reqs:        []*GetOrCreateRequest{{ShopID: "market", Shared: true}},
			wantCreated: true,
			wantShared:  true,
		},
		{
			name: "正常系: 既存のショップは作成時の共有フラグを保つ",
			reqs: []*GetOrCreateRequest{
				{ShopID: "market", Shared: true},
				{ShopID: "market", Shared: false},
			},
			wantCreated: false,
			wantShared:  true,
		},
		{
			name:    "異常系: 不正なID",
			reqs:    []*GetOrCreateRequest{{ShopID: "bad id"}},
			wantErr: shop.ErrInvalidShopID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestShopService(t)

			var info *ShopInfo
			var err error
			for _, req := range tt.reqs {
				info, err = svc.GetOrCreate(context.Background(), req)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, info.Created)
			assert.Equal(t, tt.wantShared, info.Shared)
		})
	}
}

func TestShopApplicationService_SharedShopIdentity(t *testing.T) {
	svc, registry, _ := newTestShopService(t)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, &GetOrCreateRequest{ShopID: "guild", Shared: true})
	require.NoError(t, err)

	// 別の参加者の変更が見える
	a, _, err := registry.GetOrCreate("guild", true)
	require.NoError(t, err)
	_, err = a.Store().Add(modifier.MustNewModifier("m1", modifier.Definition{
		Scope:     modifier.ShopScope(),
		Kind:      modifier.KindMarkup,
		Magnitude: modifier.Percent(5),
		Window:    modifier.ManualWindow(),
	}, true, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	info, err := svc.Get(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Modifiers)
}

func TestShopApplicationService_Delete(t *testing.T) {
	t.Run("正常系: 削除とキャッシュ破棄", func(t *testing.T) {
		svc, _, inv := newTestShopService(t)
		ctx := context.Background()
		_, err := svc.GetOrCreate(ctx, &GetOrCreateRequest{ShopID: "market"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, &DeleteRequest{ShopID: "market", Requester: "admin"}))
		assert.Equal(t, []string{"market"}, inv.shops)

		_, err = svc.Get(ctx, "market")
		assert.ErrorIs(t, err, shop.ErrUnknownShop)
	})

	t.Run("異常系: 他のプレイヤーが取引中", func(t *testing.T) {
		svc, registry, inv := newTestShopService(t)
		ctx := context.Background()
		_, err := svc.GetOrCreate(ctx, &GetOrCreateRequest{ShopID: "market"})
		require.NoError(t, err)

		lease, err := registry.BeginTransaction("market", "p1")
		require.NoError(t, err)

		err = svc.Delete(ctx, &DeleteRequest{ShopID: "market", Requester: "admin"})
		assert.ErrorIs(t, err, shop.ErrShopInUse)
		assert.Empty(t, inv.shops)

		info, err := svc.Get(ctx, "market")
		require.NoError(t, err)
		assert.Equal(t, 1, info.ActiveLeases)

		// 取引終了後は削除できる
		lease.Release()
		assert.NoError(t, svc.Delete(ctx, &DeleteRequest{ShopID: "market", Requester: "admin"}))
	})

	t.Run("正常系: 取引中なのが自分だけなら削除できる", func(t *testing.T) {
		svc, registry, _ := newTestShopService(t)
		ctx := context.Background()
		_, err := svc.GetOrCreate(ctx, &GetOrCreateRequest{ShopID: "market"})
		require.NoError(t, err)

		lease, err := registry.BeginTransaction("market", "p1")
		require.NoError(t, err)
		defer lease.Release()

		assert.NoError(t, svc.Delete(ctx, &DeleteRequest{ShopID: "market", Requester: "p1"}))
	})

	t.Run("異常系: 存在しないショップ", func(t *testing.T) {
		svc, _, _ := newTestShopService(t)
		err := svc.Delete(context.Background(), &DeleteRequest{ShopID: "nowhere", Requester: "admin"})
		assert.ErrorIs(t, err, shop.ErrUnknownShop)
	})
}

func TestShopApplicationService_List(t *testing.T) {
	svc, _, _ := newTestShopService(t)
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_, err := svc.GetOrCreate(ctx, &GetOrCreateRequest{ShopID: id})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Shops, 3)
	assert.Equal(t, "a", resp.Shops[0].ShopID)
	assert.Equal(t, "c", resp.Shops[2].ShopID)
}
