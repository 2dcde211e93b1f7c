package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shop-economy/internal/application/savegame"
)

// SaveGameHandler セーブスロットハンドラー（管理API）
type SaveGameHandler struct {
	saves *savegame.SaveSlotApplicationService
}

// NewSaveGameHandler 新しいSaveGameHandlerを作成
func NewSaveGameHandler(saves *savegame.SaveSlotApplicationService) *SaveGameHandler {
	return &SaveGameHandler{saves: saves}
}

// Save セーブハンドラー
// @Summary 全ショップの状態をスロットに保存
// @Tags saves
// @Produce json
// @Param slot path string true "スロット名" example(slot_1)
// @Param X-API-Key header string true "APIキー"
// @Success 201 {object} SaveSlotResponse "保存成功"
// @Failure 400 {object} ErrorResponse "不正なスロット名"
// @Router /admin/saves/{slot} [post]
func (h *SaveGameHandler) Save(c echo.Context) error {
	resp, err := h.saves.Save(c.Request().Context(), c.Param("slot"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, SaveSlotResponse{
		Slot:    resp.Slot,
		Size:    resp.Size,
		Shops:   resp.Shops,
		SavedAt: resp.SavedAt,
	})
}

// Load ロードハンドラー
// @Summary スロットから全ショップの状態を復元
// @Description 壊れたショップはfailedに入り、それ以外は読み込まれる
// @Tags saves
// @Produce json
// @Param slot path string true "スロット名" example(slot_1)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} LoadSlotResponse "ロード成功"
// @Failure 404 {object} ErrorResponse "スロットが存在しない"
// @Failure 409 {object} ErrorResponse "取引中のショップがある"
// @Failure 422 {object} ErrorResponse "セーブデータ全体が読めない"
// @Router /admin/saves/{slot}/load [post]
func (h *SaveGameHandler) Load(c echo.Context) error {
	resp, err := h.saves.Load(c.Request().Context(), c.Param("slot"))
	if err != nil {
		return err
	}

	result := resp.Result
	failed := make([]ShopLoadError, 0, len(result.ShopErrors))
	for _, e := range result.ShopErrors {
		failed = append(failed, ShopLoadError{ShopID: e.ShopID, Error: e.Error()})
	}
	loaded := result.Loaded
	if loaded == nil {
		loaded = []string{}
	}

	return c.JSON(http.StatusOK, LoadSlotResponse{
		Slot:        resp.Slot,
		Version:     result.Version,
		SavedAt:     result.SavedAt,
		Loaded:      loaded,
		Failed:      failed,
		WalletCount: result.WalletCount,
	})
}

// List スロット一覧ハンドラー
// @Summary スロット一覧を取得
// @Tags saves
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} SaveSlotListResponse "取得成功"
// @Router /admin/saves [get]
func (h *SaveGameHandler) List(c echo.Context) error {
	resp, err := h.saves.List(c.Request().Context())
	if err != nil {
		return err
	}
	slots := make([]SaveSlotInfo, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SaveSlotInfo{Name: s.Name, Size: s.Size, SavedAt: s.SavedAt})
	}
	return c.JSON(http.StatusOK, SaveSlotListResponse{Slots: slots})
}

// Delete スロット削除ハンドラー
// @Summary スロットを削除
// @Tags saves
// @Param slot path string true "スロット名"
// @Param X-API-Key header string true "APIキー"
// @Success 204 "削除成功"
// @Failure 404 {object} ErrorResponse "スロットが存在しない"
// @Router /admin/saves/{slot} [delete]
func (h *SaveGameHandler) Delete(c echo.Context) error {
	if err := h.saves.Delete(c.Request().Context(), c.Param("slot")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
