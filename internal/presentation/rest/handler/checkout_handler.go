package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	checkoutapp "shop-economy/internal/application/checkout"
	restmiddleware "shop-economy/internal/presentation/rest/middleware"
)

// CheckoutHandler 売買・所持金ハンドラー
type CheckoutHandler struct {
	checkoutService *checkoutapp.CheckoutApplicationService
	clock           Clock
}

// NewCheckoutHandler 新しいCheckoutHandlerを作成
func NewCheckoutHandler(checkoutService *checkoutapp.CheckoutApplicationService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		clock:           time.Now,
	}
}

// Purchase 購入ハンドラー
// @Summary アイテムを購入
// @Description 実効価格で購入し、所持金とショップ売上に反映します
// @Tags checkout
// @Accept json
// @Produce json
// @Security Bearer
// @Param shop_id path string true "ショップID" example(village)
// @Param request body TradeRequest true "購入リクエスト"
// @Success 201 {object} TradeResponse "購入成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "ショップまたはアイテムが存在しない"
// @Failure 409 {object} ErrorResponse "所持金不足・売買不可・取引中"
// @Router /shops/{shop_id}/buy [post]
func (h *CheckoutHandler) Purchase(c echo.Context) error {
	req, err := h.tradeRequest(c)
	if err != nil {
		return err
	}
	resp, err := h.checkoutService.Purchase(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTradeResponse(resp))
}

// Sell 売却ハンドラー
// @Summary アイテムを売却
// @Description 実効価格で売却し、所持金とショップ売上に反映します
// @Tags checkout
// @Accept json
// @Produce json
// @Security Bearer
// @Param shop_id path string true "ショップID" example(village)
// @Param request body TradeRequest true "売却リクエスト"
// @Success 201 {object} TradeResponse "売却成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "ショップまたはアイテムが存在しない"
// @Failure 409 {object} ErrorResponse "売買不可・取引中"
// @Router /shops/{shop_id}/sell [post]
func (h *CheckoutHandler) Sell(c echo.Context) error {
	req, err := h.tradeRequest(c)
	if err != nil {
		return err
	}
	resp, err := h.checkoutService.Sell(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTradeResponse(resp))
}

// GetMyFunds 自分の所持金取得ハンドラー
// @Summary 所持金を取得
// @Tags checkout
// @Produce json
// @Security Bearer
// @Success 200 {object} FundsResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/funds [get]
func (h *CheckoutHandler) GetMyFunds(c echo.Context) error {
	playerID := restmiddleware.PlayerID(c)
	if playerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "player_id not found in token")
	}
	return h.funds(c, playerID)
}

// GetFundsAdmin 所持金取得ハンドラー（管理API用）
// @Summary 所持金を取得（管理API）
// @Tags admin
// @Produce json
// @Param player_id path string true "プレイヤーID" example(alice)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} FundsResponse "取得成功"
// @Router /admin/players/{player_id}/funds [get]
func (h *CheckoutHandler) GetFundsAdmin(c echo.Context) error {
	return h.funds(c, c.Param("player_id"))
}

// GrantFunds 所持金付与ハンドラー（管理API用）
// @Summary 所持金を付与（管理API）
// @Tags admin
// @Accept json
// @Produce json
// @Param player_id path string true "プレイヤーID" example(alice)
// @Param X-API-Key header string true "APIキー"
// @Param request body GrantFundsRequest true "付与リクエスト"
// @Success 200 {object} FundsResponse "付与成功"
// @Failure 400 {object} ErrorResponse "不正な金額"
// @Router /admin/players/{player_id}/funds [post]
func (h *CheckoutHandler) GrantFunds(c echo.Context) error {
	var body GrantFundsRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	resp, err := h.checkoutService.GrantFunds(c.Request().Context(), &checkoutapp.GrantFundsRequest{
		PlayerID: c.Param("player_id"),
		Amount:   body.Amount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FundsResponse{PlayerID: resp.PlayerID, Balance: resp.Balance})
}

func (h *CheckoutHandler) funds(c echo.Context, playerID string) error {
	resp, err := h.checkoutService.GetFunds(c.Request().Context(), playerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FundsResponse{PlayerID: resp.PlayerID, Balance: resp.Balance})
}

func (h *CheckoutHandler) tradeRequest(c echo.Context) (*checkoutapp.TradeRequest, error) {
	playerID := restmiddleware.PlayerID(c)
	if playerID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "player_id not found in token")
	}

	var body TradeRequest
	if err := bind(c, &body); err != nil {
		return nil, err
	}
	if body.ItemID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}
	now, err := resolveTime(body.At, h.clock)
	if err != nil {
		return nil, err
	}

	return &checkoutapp.TradeRequest{
		ShopID:   c.Param("shop_id"),
		PlayerID: playerID,
		ItemID:   body.ItemID,
		Category: body.Category,
		Quantity: body.Quantity,
		Now:      now,
	}, nil
}

func toTradeResponse(resp *checkoutapp.TradeResponse) TradeResponse {
	applied := resp.AppliedIDs
	if applied == nil {
		applied = []string{}
	}
	return TradeResponse{
		EventID:         resp.EventID,
		ShopID:          resp.ShopID,
		PlayerID:        resp.PlayerID,
		ItemID:          resp.ItemID,
		TransactionType: resp.TransactionType,
		Quantity:        resp.Quantity,
		UnitPrice:       resp.UnitPrice,
		Total:           resp.Total,
		PlayerBalance:   resp.PlayerBalance,
		ShopBalance:     resp.ShopBalance,
		Applied:         applied,
	}
}
