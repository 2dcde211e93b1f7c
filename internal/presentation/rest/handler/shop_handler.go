package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	shopapp "shop-economy/internal/application/shop"
)

// ShopHandler ショップインスタンス管理ハンドラー（管理API）
type ShopHandler struct {
	shopService *shopapp.ShopApplicationService
}

// NewShopHandler 新しいShopHandlerを作成
func NewShopHandler(shopService *shopapp.ShopApplicationService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

// GetOrCreate ショップ取得・作成ハンドラー
// @Summary ショップを取得または作成
// @Tags shops
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body CreateShopRequest true "リクエスト"
// @Success 201 {object} ShopResponse "作成成功"
// @Success 200 {object} ShopResponse "既存のショップ"
// @Failure 400 {object} ErrorResponse "不正なショップID"
// @Router /admin/shops [post]
func (h *ShopHandler) GetOrCreate(c echo.Context) error {
	var body CreateShopRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	info, err := h.shopService.GetOrCreate(c.Request().Context(), &shopapp.GetOrCreateRequest{
		ShopID: body.ShopID,
		Shared: body.Shared,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if info.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, toShopResponse(*info))
}

// Get ショップ取得ハンドラー
// @Summary ショップ概要を取得
// @Tags shops
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} ShopResponse "取得成功"
// @Failure 404 {object} ErrorResponse "存在しない"
// @Router /admin/shops/{shop_id} [get]
func (h *ShopHandler) Get(c echo.Context) error {
	info, err := h.shopService.Get(c.Request().Context(), c.Param("shop_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShopResponse(*info))
}

// List ショップ一覧ハンドラー
// @Summary ショップ一覧を取得
// @Tags shops
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} ShopListResponse "取得成功"
// @Router /admin/shops [get]
func (h *ShopHandler) List(c echo.Context) error {
	resp, err := h.shopService.List(c.Request().Context())
	if err != nil {
		return err
	}
	shops := make([]ShopResponse, 0, len(resp.Shops))
	for _, s := range resp.Shops {
		shops = append(shops, toShopResponse(s))
	}
	return c.JSON(http.StatusOK, ShopListResponse{Shops: shops})
}

// Delete ショップ削除ハンドラー
// @Summary ショップを削除
// @Description 他の保持者が取引中の場合は409
// @Tags shops
// @Param shop_id path string true "ショップID"
// @Param requester query string false "取引中でも削除できる呼び出し元"
// @Param X-API-Key header string true "APIキー"
// @Success 204 "削除成功"
// @Failure 404 {object} ErrorResponse "存在しない"
// @Failure 409 {object} ErrorResponse "取引中"
// @Router /admin/shops/{shop_id} [delete]
func (h *ShopHandler) Delete(c echo.Context) error {
	err := h.shopService.Delete(c.Request().Context(), &shopapp.DeleteRequest{
		ShopID:    c.Param("shop_id"),
		Requester: c.QueryParam("requester"),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func toShopResponse(info shopapp.ShopInfo) ShopResponse {
	return ShopResponse{
		ShopID:       info.ShopID,
		Shared:       info.Shared,
		Created:      info.Created,
		Balance:      info.Balance,
		Specials:     info.Modifiers,
		ActiveLeases: info.ActiveLeases,
	}
}
