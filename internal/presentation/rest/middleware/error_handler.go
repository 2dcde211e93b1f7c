package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"shop-economy/internal/application/auth"
	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/devmenu"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ドメインエラーとHTTPレスポンスの対応
type errorMapping struct {
	target error
	status int
	code   string
	log    string
}

// 上から順に判定する。ラップされた原因より先に具体的なエラーを置く
var errorMappings = []errorMapping{
	{currency.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance", "Insufficient balance"},
	{shop.ErrShopInUse, http.StatusConflict, "shop_in_use", "Shop in use"},
	{item.ErrItemNotTradable, http.StatusConflict, "item_not_tradable", "Item not tradable"},
	{item.ErrUnknownItem, http.StatusNotFound, "unknown_item", "Unknown item"},
	{shop.ErrUnknownShop, http.StatusNotFound, "unknown_shop", "Unknown shop"},
	{modifier.ErrModifierNotFound, http.StatusNotFound, "modifier_not_found", "Modifier not found"},
	{transaction.ErrEventNotFound, http.StatusNotFound, "event_not_found", "Transaction event not found"},
	{savegame.ErrSlotNotFound, http.StatusNotFound, "save_slot_not_found", "Save slot not found"},
	{devmenu.ErrOptionNotFound, http.StatusNotFound, "menu_option_not_found", "Menu option not found"},
	{modifier.ErrNoopModifier, http.StatusUnprocessableEntity, "noop_modifier", "Noop modifier"},
	{modifier.ErrAlreadyExpired, http.StatusUnprocessableEntity, "already_expired", "Modifier already expired"},
	{savegame.ErrCorruptSave, http.StatusUnprocessableEntity, "corrupt_save", "Corrupt save data"},
	{modifier.ErrInvalidModifier, http.StatusBadRequest, "invalid_modifier", "Invalid modifier"},
	{shop.ErrInvalidShopID, http.StatusBadRequest, "invalid_shop_id", "Invalid shop id"},
	{item.ErrInvalidItemID, http.StatusBadRequest, "invalid_item_id", "Invalid item id"},
	{transaction.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", "Invalid quantity"},
	{transaction.ErrInvalidEvent, http.StatusBadRequest, "invalid_transaction", "Invalid transaction"},
	{currency.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Invalid amount"},
	{currency.ErrAmountTooLarge, http.StatusBadRequest, "amount_too_large", "Amount too large"},
	{currency.ErrBalanceOutOfRange, http.StatusBadRequest, "balance_out_of_range", "Balance out of range"},
	{savegame.ErrInvalidSlotName, http.StatusBadRequest, "invalid_slot_name", "Invalid save slot name"},
	{auth.ErrInvalidPlayerID, http.StatusBadRequest, "invalid_player_id", "Invalid player id"},
	{devmenu.ErrInvalidOption, http.StatusBadRequest, "invalid_menu_option", "Invalid menu option"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// ドメインエラーの判定と処理
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			logger.Warn(ctx, m.log, map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(m.status, ErrorResponse{
				Error:   m.code,
				Message: err.Error(),
			})
		}
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
