package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	historyapp "shop-economy/internal/application/history"
	"shop-economy/internal/domain/transaction"
)

// HistoryHandler 取引履歴ハンドラー（管理API）
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetShopHistory ショップの取引履歴取得ハンドラー
// @Summary ショップの取引履歴を取得
// @Description ページネーションとフィルタリングに対応しています
// @Tags history
// @Produce json
// @Param shop_id path string true "ショップID" example(village)
// @Param X-API-Key header string true "APIキー"
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット" default(0)
// @Param player_id query string false "プレイヤーIDでフィルタ"
// @Param item_id query string false "アイテムIDでフィルタ"
// @Param transaction_type query string false "取引タイプでフィルタ（buy/sell）"
// @Success 200 {object} TransactionHistoryResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /admin/shops/{shop_id}/transactions [get]
func (h *HistoryHandler) GetShopHistory(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	resp, err := h.historyService.GetShopHistory(c.Request().Context(), &historyapp.GetShopHistoryRequest{
		ShopID:          c.Param("shop_id"),
		Limit:           limit,
		Offset:          offset,
		PlayerID:        c.QueryParam("player_id"),
		ItemID:          c.QueryParam("item_id"),
		TransactionType: c.QueryParam("transaction_type"),
	})
	if err != nil {
		return err
	}

	events := make([]TransactionEventView, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, toEventView(ev))
	}

	return c.JSON(http.StatusOK, TransactionHistoryResponse{
		ShopID: c.Param("shop_id"),
		Events: events,
		Total:  resp.Total,
		Limit:  resp.Limit,
		Offset: resp.Offset,
	})
}

// GetEvent 取引イベント取得ハンドラー
// @Summary 取引イベントを取得
// @Tags history
// @Produce json
// @Param event_id path string true "イベントID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} TransactionEventView "取得成功"
// @Failure 404 {object} ErrorResponse "存在しない"
// @Router /admin/transactions/{event_id} [get]
func (h *HistoryHandler) GetEvent(c echo.Context) error {
	ev, err := h.historyService.GetEvent(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventView(ev))
}

func toEventView(ev *transaction.Event) TransactionEventView {
	return TransactionEventView{
		EventID:         ev.EventID(),
		ShopID:          ev.ShopID(),
		PlayerID:        ev.PlayerID(),
		ItemID:          ev.Item().ID,
		Category:        ev.Item().Category,
		TransactionType: ev.TransactionType().String(),
		Quantity:        ev.Quantity(),
		UnitPrice:       ev.EffectivePrice(),
		Total:           ev.Total(),
		OccurredAt:      ev.OccurredAt(),
	}
}
