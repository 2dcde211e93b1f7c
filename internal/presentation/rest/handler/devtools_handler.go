package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shop-economy/internal/application/devtools"
)

// DevToolsHandler 開発者メニューハンドラー（管理API）
type DevToolsHandler struct {
	devTools *devtools.DevToolsApplicationService
}

// NewDevToolsHandler 新しいDevToolsHandlerを作成
func NewDevToolsHandler(devTools *devtools.DevToolsApplicationService) *DevToolsHandler {
	return &DevToolsHandler{devTools: devTools}
}

// Menu メニュー取得ハンドラー
// @Summary 開発者メニューを取得
// @Tags devtools
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} DevMenuResponse "取得成功"
// @Router /admin/devtools/menu [get]
func (h *DevToolsHandler) Menu(c echo.Context) error {
	resp, err := h.devTools.Menu(c.Request().Context())
	if err != nil {
		return err
	}
	options := make([]MenuOptionView, 0, len(resp.Options))
	for _, o := range resp.Options {
		options = append(options, MenuOptionView{Key: o.Key, Label: o.Label, Description: o.Description})
	}
	return c.JSON(http.StatusOK, DevMenuResponse{Title: resp.Title, Options: options})
}

// Invoke メニュー項目実行ハンドラー
// @Summary 開発者メニューの項目を実行
// @Tags devtools
// @Accept json
// @Produce json
// @Param key path string true "項目キー" example(specials_creator)
// @Param X-API-Key header string true "APIキー"
// @Param request body InvokeMenuRequest false "引数"
// @Success 200 {object} InvokeMenuResponse "実行成功"
// @Failure 404 {object} ErrorResponse "項目が存在しない"
// @Router /admin/devtools/menu/{key} [post]
func (h *DevToolsHandler) Invoke(c echo.Context) error {
	var body InvokeMenuRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &body); err != nil {
			return err
		}
	}

	resp, err := h.devTools.Invoke(c.Request().Context(), &devtools.InvokeRequest{
		Key:  c.Param("key"),
		Args: body.Args,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, InvokeMenuResponse{
		Key:     resp.Key,
		Message: resp.Message,
		Notice:  resp.Notice,
		Data:    resp.Data,
	})
}
