package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "shop-economy/internal/application/auth"
)

// AuthHandler プレイヤートークン発行ハンドラー（管理API）
type AuthHandler struct {
	authService *authapp.AuthApplicationService
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService *authapp.AuthApplicationService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueToken トークン発行ハンドラー
// @Summary プレイヤートークンを発行
// @Description ホストがプレイヤーの代わりに取得し、クライアントに渡します
// @Tags auth
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body IssueTokenRequest true "発行リクエスト"
// @Success 200 {object} IssueTokenResponse "発行成功"
// @Failure 400 {object} ErrorResponse "不正なプレイヤーID"
// @Router /admin/auth/token [post]
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var body IssueTokenRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	resp, err := h.authService.IssueToken(c.Request().Context(), &authapp.IssueTokenRequest{
		PlayerID: body.PlayerID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, IssueTokenResponse{
		Token:     resp.Token,
		PlayerID:  resp.PlayerID,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}
