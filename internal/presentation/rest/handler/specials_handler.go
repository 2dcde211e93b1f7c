package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"shop-economy/internal/application/specials"
	"shop-economy/internal/domain/modifier"
)

const defaultActor = "admin"

// SpecialsHandler スペシャル編集ハンドラー（管理API）
type SpecialsHandler struct {
	editor *specials.SpecialsEditorService
	clock  Clock
}

// NewSpecialsHandler 新しいSpecialsHandlerを作成
func NewSpecialsHandler(editor *specials.SpecialsEditorService) *SpecialsHandler {
	return &SpecialsHandler{
		editor: editor,
		clock:  time.Now,
	}
}

// Create スペシャル作成ハンドラー
// @Summary スペシャルを作成
// @Tags specials
// @Accept json
// @Produce json
// @Param shop_id path string true "ショップID" example(village)
// @Param X-API-Key header string true "APIキー"
// @Param request body CreateSpecialRequest true "作成リクエスト"
// @Success 201 {object} SpecialResponse "作成成功"
// @Failure 400 {object} ErrorResponse "不正な定義"
// @Failure 404 {object} ErrorResponse "ショップが存在しない"
// @Failure 422 {object} ErrorResponse "効果なし・期限切れ"
// @Router /admin/shops/{shop_id}/specials [post]
func (h *SpecialsHandler) Create(c echo.Context) error {
	var body CreateSpecialRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	now, err := resolveTime(body.At, h.clock)
	if err != nil {
		return err
	}

	resp, err := h.editor.Create(c.Request().Context(), &specials.CreateRequest{
		ShopID:       c.Param("shop_id"),
		Actor:        actorOrDefault(body.Actor),
		Draft:        body.toDraft(),
		Disabled:     body.Disabled,
		AllowExpired: body.AllowExpired,
		Now:          now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSpecialResponse(resp))
}

// Edit スペシャル編集ハンドラー
// @Summary スペシャルを編集
// @Tags specials
// @Accept json
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param modifier_id path string true "スペシャルID"
// @Param X-API-Key header string true "APIキー"
// @Param request body EditSpecialRequest true "編集リクエスト"
// @Success 200 {object} SpecialResponse "編集成功"
// @Failure 404 {object} ErrorResponse "存在しない"
// @Router /admin/shops/{shop_id}/specials/{modifier_id} [patch]
func (h *SpecialsHandler) Edit(c echo.Context) error {
	var body EditSpecialRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	now, err := resolveTime(body.At, h.clock)
	if err != nil {
		return err
	}

	resp, err := h.editor.Edit(c.Request().Context(), &specials.EditRequest{
		ShopID:     c.Param("shop_id"),
		ModifierID: c.Param("modifier_id"),
		Actor:      actorOrDefault(body.Actor),
		Changes: specials.Changes{
			Name:        body.Name,
			ScopeKind:   body.ScopeKind,
			ScopeTarget: body.ScopeTarget,
			Kind:        body.Kind,
			Value:       body.Value,
			Unit:        body.Unit,
			Priority:    body.Priority,
			Start:       body.Start,
			End:         body.End,
			ClearEnd:    body.ClearEnd,
			Manual:      body.Manual,
			Side:        body.Side,
		},
		AllowExpired: body.AllowExpired,
		Now:          now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSpecialResponse(resp))
}

// Enable スペシャル有効化ハンドラー
// @Summary スペシャルを有効化
// @Tags specials
// @Accept json
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param modifier_id path string true "スペシャルID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} SpecialResponse "有効化成功"
// @Router /admin/shops/{shop_id}/specials/{modifier_id}/enable [post]
func (h *SpecialsHandler) Enable(c echo.Context) error {
	return h.toggle(c, h.editor.Enable)
}

// Disable スペシャル無効化ハンドラー
// @Summary スペシャルを無効化
// @Tags specials
// @Accept json
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param modifier_id path string true "スペシャルID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} SpecialResponse "無効化成功"
// @Router /admin/shops/{shop_id}/specials/{modifier_id}/disable [post]
func (h *SpecialsHandler) Disable(c echo.Context) error {
	return h.toggle(c, h.editor.Disable)
}

// Remove スペシャル削除ハンドラー
// @Summary スペシャルを削除
// @Description 存在しないIDの削除も成功として扱う
// @Tags specials
// @Param shop_id path string true "ショップID"
// @Param modifier_id path string true "スペシャルID"
// @Param actor query string false "操作者"
// @Param X-API-Key header string true "APIキー"
// @Success 204 "削除成功"
// @Failure 404 {object} ErrorResponse "ショップが存在しない"
// @Router /admin/shops/{shop_id}/specials/{modifier_id} [delete]
func (h *SpecialsHandler) Remove(c echo.Context) error {
	_, err := h.editor.Remove(c.Request().Context(), &specials.RemoveRequest{
		ShopID:     c.Param("shop_id"),
		ModifierID: c.Param("modifier_id"),
		Actor:      actorOrDefault(c.QueryParam("actor")),
		Now:        h.clock().UTC(),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List スペシャル一覧ハンドラー
// @Summary スペシャル一覧を取得
// @Tags specials
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param item_id query string false "このアイテムに適用されるものに限る"
// @Param category query string false "カテゴリ"
// @Param side query string false "取引タイプ（buy/sell）"
// @Param active_only query bool false "有効期間内で有効なもののみ"
// @Param at query string false "判定時刻（RFC3339）"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} SpecialListResponse "取得成功"
// @Router /admin/shops/{shop_id}/specials [get]
func (h *SpecialsHandler) List(c echo.Context) error {
	now, err := resolveTime(c.QueryParam("at"), h.clock)
	if err != nil {
		return err
	}
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active_only"))

	resp, err := h.editor.List(c.Request().Context(), &specials.ListRequest{
		ShopID:     c.Param("shop_id"),
		ItemID:     c.QueryParam("item_id"),
		Category:   c.QueryParam("category"),
		Side:       c.QueryParam("side"),
		ActiveOnly: activeOnly,
		Now:        now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SpecialListResponse{
		ShopID:   c.Param("shop_id"),
		Specials: toModifierViews(resp.Modifiers),
	})
}

// Search スペシャル検索ハンドラー
// @Summary スペシャルを名前で検索
// @Tags specials
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param q query string false "検索語"
// @Param limit query int false "最大件数" default(20)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} SearchResponse "検索成功"
// @Router /admin/shops/{shop_id}/specials/search [get]
func (h *SpecialsHandler) Search(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	query := c.QueryParam("q")

	resp, err := h.editor.Search(c.Request().Context(), &specials.SearchRequest{
		ShopID: c.Param("shop_id"),
		Query:  query,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	hits := make([]SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, SearchHit{Special: toModifierView(r.Modifier), Score: r.Score})
	}
	return c.JSON(http.StatusOK, SearchResponse{Query: query, Results: hits})
}

// Preview 既存スペシャルのプレビューハンドラー
// @Summary スペシャルの有無による価格差を確認
// @Tags specials
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param modifier_id path string true "スペシャルID"
// @Param item_id query string true "アイテムID"
// @Param category query string false "カテゴリ"
// @Param side query string false "取引タイプ（buy/sell）" default(buy)
// @Param at query string false "判定時刻（RFC3339）"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} PreviewResponse "プレビュー成功"
// @Router /admin/shops/{shop_id}/specials/{modifier_id}/preview [get]
func (h *SpecialsHandler) Preview(c echo.Context) error {
	now, err := resolveTime(c.QueryParam("at"), h.clock)
	if err != nil {
		return err
	}

	resp, err := h.editor.Preview(c.Request().Context(), &specials.PreviewRequest{
		ShopID:          c.Param("shop_id"),
		ModifierID:      c.Param("modifier_id"),
		ItemID:          c.QueryParam("item_id"),
		Category:        c.QueryParam("category"),
		TransactionType: sideParam(c),
		Now:             now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreviewResponse(resp))
}

// PreviewDraft 未保存スペシャルのプレビューハンドラー
// @Summary 保存前のスペシャルで価格を確認
// @Tags specials
// @Accept json
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param X-API-Key header string true "APIキー"
// @Param request body PreviewDraftRequest true "プレビューリクエスト"
// @Success 200 {object} PreviewResponse "プレビュー成功"
// @Router /admin/shops/{shop_id}/specials/preview [post]
func (h *SpecialsHandler) PreviewDraft(c echo.Context) error {
	var body PreviewDraftRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	now, err := resolveTime(body.At, h.clock)
	if err != nil {
		return err
	}
	side := body.Side
	if side == "" {
		side = "buy"
	}

	resp, err := h.editor.PreviewDraft(c.Request().Context(), &specials.PreviewDraftRequest{
		ShopID:          c.Param("shop_id"),
		Draft:           body.Draft.toDraft(),
		ItemID:          body.ItemID,
		Category:        body.Category,
		TransactionType: side,
		Now:             now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreviewResponse(resp))
}

// Audit 監査ログ取得ハンドラー
// @Summary スペシャルの変更履歴を取得
// @Tags specials
// @Produce json
// @Param shop_id path string true "ショップID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} AuditResponse "取得成功"
// @Router /admin/shops/{shop_id}/specials/audit [get]
func (h *SpecialsHandler) Audit(c echo.Context) error {
	resp, err := h.editor.Audit(c.Request().Context(), &specials.AuditRequest{ShopID: c.Param("shop_id")})
	if err != nil {
		return err
	}

	entries := make([]AuditEntryView, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, AuditEntryView{
			ID:         e.ID,
			Seq:        e.Seq,
			ModifierID: e.ModifierID,
			Actor:      e.Actor,
			Action:     string(e.Action),
			At:         e.At,
			Before:     modifierViewPtr(e.Before),
			After:      modifierViewPtr(e.After),
		})
	}
	return c.JSON(http.StatusOK, AuditResponse{ShopID: c.Param("shop_id"), Entries: entries})
}

type toggleFunc func(ctx context.Context, req *specials.ToggleRequest) (*specials.MutationResponse, error)

func (h *SpecialsHandler) toggle(c echo.Context, fn toggleFunc) error {
	var body ActorRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &body); err != nil {
			return err
		}
	}
	now, err := resolveTime(body.At, h.clock)
	if err != nil {
		return err
	}

	resp, err := fn(c.Request().Context(), &specials.ToggleRequest{
		ShopID:     c.Param("shop_id"),
		ModifierID: c.Param("modifier_id"),
		Actor:      actorOrDefault(body.Actor),
		Now:        now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSpecialResponse(resp))
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

func toSpecialResponse(resp *specials.MutationResponse) SpecialResponse {
	superseded := resp.Superseded
	if superseded == nil {
		superseded = []string{}
	}
	return SpecialResponse{
		Special:    toModifierView(resp.Modifier),
		Superseded: superseded,
	}
}

func toPreviewResponse(resp *specials.PreviewResponse) PreviewResponse {
	out := PreviewResponse{
		Baseline: toQuoteView(resp.Baseline),
		With:     toQuoteView(resp.With),
	}
	if resp.Baseline != nil && resp.With != nil {
		out.Delta = resp.With.Price - resp.Baseline.Price
	}
	return out
}

func modifierViewPtr(s *modifier.State) *ModifierView {
	if s == nil {
		return nil
	}
	v := toModifierView(*s)
	return &v
}
