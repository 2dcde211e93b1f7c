package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	pricingapp "shop-economy/internal/application/pricing"
)

// PricingHandler 価格関連ハンドラー
type PricingHandler struct {
	pricingService *pricingapp.PricingApplicationService
	clock          Clock
}

// NewPricingHandler 新しいPricingHandlerを作成
func NewPricingHandler(pricingService *pricingapp.PricingApplicationService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		clock:          time.Now,
	}
}

// GetPrice 実効価格取得ハンドラー
// @Summary 実効価格を取得
// @Description ショップ・アイテム・取引タイプ・時刻から実効価格を計算します
// @Tags pricing
// @Produce json
// @Security Bearer
// @Param shop_id path string true "ショップID" example(village)
// @Param item_id path string true "アイテムID" example(sword)
// @Param side query string false "取引タイプ（buy/sell）" default(buy)
// @Param category query string false "カテゴリ（カタログ優先）"
// @Param at query string false "シミュレーション時刻（RFC3339）"
// @Success 200 {object} PriceResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "ショップまたはアイテムが存在しない"
// @Failure 409 {object} ErrorResponse "売買不可のアイテム"
// @Router /shops/{shop_id}/prices/{item_id} [get]
func (h *PricingHandler) GetPrice(c echo.Context) error {
	now, err := resolveTime(c.QueryParam("at"), h.clock)
	if err != nil {
		return err
	}

	resp, err := h.pricingService.GetEffectivePrice(c.Request().Context(), &pricingapp.GetPriceRequest{
		ShopID:          c.Param("shop_id"),
		ItemID:          c.Param("item_id"),
		Category:        c.QueryParam("category"),
		TransactionType: sideParam(c),
		Now:             now,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PriceResponse{
		Quote:  toQuoteView(resp.Quote),
		Cached: resp.Cached,
	})
}

// GetPriceList 価格一覧取得ハンドラー
// @Summary 価格一覧を取得
// @Description カタログの全アイテムについて実効価格を返します
// @Tags pricing
// @Produce json
// @Security Bearer
// @Param shop_id path string true "ショップID" example(village)
// @Param side query string false "取引タイプ（buy/sell）" default(buy)
// @Param at query string false "シミュレーション時刻（RFC3339）"
// @Success 200 {object} PriceListResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "ショップが存在しない"
// @Router /shops/{shop_id}/prices [get]
func (h *PricingHandler) GetPriceList(c echo.Context) error {
	now, err := resolveTime(c.QueryParam("at"), h.clock)
	if err != nil {
		return err
	}

	side := sideParam(c)
	resp, err := h.pricingService.GetPriceList(c.Request().Context(), &pricingapp.PriceListRequest{
		ShopID:          c.Param("shop_id"),
		TransactionType: side,
		Now:             now,
	})
	if err != nil {
		return err
	}

	entries := make([]PriceListEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, PriceListEntry{
			ItemID:   e.ItemID,
			Category: e.Category,
			Tradable: e.Tradable,
			Quote:    toQuoteView(e.Quote),
		})
	}

	return c.JSON(http.StatusOK, PriceListResponse{
		ShopID:          resp.ShopID,
		TransactionType: side,
		Entries:         entries,
	})
}

func sideParam(c echo.Context) string {
	if side := c.QueryParam("side"); side != "" {
		return side
	}
	return "buy"
}
