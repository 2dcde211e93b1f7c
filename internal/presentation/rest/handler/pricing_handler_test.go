package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingHandler_GetPrice(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPrice  int64
		wantCode   string
	}{
		{name: "正常系: 購入価格", path: "/shops/village/prices/sword", wantStatus: http.StatusOK, wantPrice: 100},
		{name: "正常系: 売却価格", path: "/shops/village/prices/sword?side=sell", wantStatus: http.StatusOK, wantPrice: 50},
		{name: "正常系: 時刻指定", path: "/shops/village/prices/potion?at=2026-04-02T00:00:00Z", wantStatus: http.StatusOK, wantPrice: 25},
		{name: "異常系: 存在しないショップ", path: "/shops/nowhere/prices/sword", wantStatus: http.StatusNotFound, wantCode: "unknown_shop"},
		{name: "異常系: 存在しないアイテム", path: "/shops/village/prices/axe", wantStatus: http.StatusNotFound, wantCode: "unknown_item"},
		{name: "異常系: 売買不可", path: "/shops/village/prices/relic", wantStatus: http.StatusConflict, wantCode: "item_not_tradable"},
		{name: "異常系: 不正な取引タイプ", path: "/shops/village/prices/sword?side=steal", wantStatus: http.StatusBadRequest, wantCode: "invalid_transaction"},
		{name: "異常系: 不正な時刻", path: "/shops/village/prices/sword?at=yesterday", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.mustCreateShop(t, "village")

			rec := s.do(t, http.MethodGet, tt.path, nil, "alice")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				if tt.wantCode != "" {
					var body ErrorResponse
					decode(t, rec, &body)
					assert.Equal(t, tt.wantCode, body.Error)
				}
				return
			}
			var resp PriceResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantPrice, resp.Quote.Price)
			assert.NotNil(t, resp.Quote.Applied)
		})
	}
}

func TestPricingHandler_GetPriceWithSpecial(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")

	rec := s.do(t, http.MethodGet, "/shops/village/prices/sword", nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	special := s.mustCreateSpecial(t, "village", swordMarkup("20"))

	rec = s.do(t, http.MethodGet, "/shops/village/prices/sword", nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PriceResponse
	decode(t, rec, &resp)
	assert.Equal(t, int64(120), resp.Quote.Price)
	assert.Equal(t, []string{special.ID}, resp.Quote.Applied)
	assert.False(t, resp.Cached)
}

func TestPricingHandler_GetPriceList(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateShop(t, "village")

	rec := s.do(t, http.MethodGet, "/shops/village/prices", nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PriceListResponse
	decode(t, rec, &resp)
	assert.Equal(t, "village", resp.ShopID)
	assert.Equal(t, "buy", resp.TransactionType)
	require.Len(t, resp.Entries, 3)

	byID := map[string]PriceListEntry{}
	for _, e := range resp.Entries {
		byID[e.ItemID] = e
	}
	assert.Equal(t, int64(100), byID["sword"].Quote.Price)
	assert.False(t, byID["relic"].Tradable)
	assert.Nil(t, byID["relic"].Quote)
}
