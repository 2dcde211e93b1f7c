package handler

import (
	"time"

	"shop-economy/internal/application/specials"
)

// SpecialDraft スペシャルの定義
// @Description スペシャルの定義。valueは10進数表記
type SpecialDraft struct {
	Name        string     `json:"name" example:"Sword Rush"`
	ScopeKind   string     `json:"scope_kind" example:"item" enums:"item,category,shop"`
	ScopeTarget string     `json:"scope_target,omitempty" example:"sword"`
	Kind        string     `json:"kind" example:"markup" enums:"markup,markdown,fixed_override"`
	Value       string     `json:"value" example:"20"`
	Unit        string     `json:"unit" example:"percent" enums:"percent,absolute"`
	Priority    int        `json:"priority" example:"1"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Manual      bool       `json:"manual" example:"false"`
	Side        string     `json:"side,omitempty" example:"both" enums:"buy,sell,both"`
}

func (d SpecialDraft) toDraft() specials.Draft {
	return specials.Draft{
		Name:        d.Name,
		ScopeKind:   d.ScopeKind,
		ScopeTarget: d.ScopeTarget,
		Kind:        d.Kind,
		Value:       d.Value,
		Unit:        d.Unit,
		Priority:    d.Priority,
		Start:       d.Start,
		End:         d.End,
		Manual:      d.Manual,
		Side:        d.Side,
	}
}

// CreateSpecialRequest スペシャル作成リクエスト
// @Description スペシャル作成リクエスト
type CreateSpecialRequest struct {
	SpecialDraft
	Disabled     bool   `json:"disabled" example:"false"`
	AllowExpired bool   `json:"allow_expired" example:"false"`
	Actor        string `json:"actor" example:"designer"`
	At           string `json:"at,omitempty" example:"2026-03-01T09:00:00Z"`
}

// EditSpecialRequest スペシャル編集リクエスト
// @Description 指定した項目のみ変更する
type EditSpecialRequest struct {
	Name         *string    `json:"name,omitempty"`
	ScopeKind    *string    `json:"scope_kind,omitempty"`
	ScopeTarget  *string    `json:"scope_target,omitempty"`
	Kind         *string    `json:"kind,omitempty"`
	Value        *string    `json:"value,omitempty"`
	Unit         *string    `json:"unit,omitempty"`
	Priority     *int       `json:"priority,omitempty"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	ClearEnd     bool       `json:"clear_end,omitempty"`
	Manual       *bool      `json:"manual,omitempty"`
	Side         *string    `json:"side,omitempty"`
	AllowExpired bool       `json:"allow_expired" example:"false"`
	Actor        string     `json:"actor" example:"designer"`
	At           string     `json:"at,omitempty"`
}

// ActorRequest 有効化・無効化リクエスト
// @Description 有効化・無効化リクエスト
type ActorRequest struct {
	Actor string `json:"actor" example:"designer"`
	At    string `json:"at,omitempty"`
}

// PreviewDraftRequest 未保存スペシャルのプレビューリクエスト
// @Description 未保存スペシャルのプレビューリクエスト
type PreviewDraftRequest struct {
	Draft    SpecialDraft `json:"draft"`
	ItemID   string       `json:"item_id" example:"sword"`
	Category string       `json:"category,omitempty"`
	Side     string       `json:"side,omitempty" example:"buy"`
	At       string       `json:"at,omitempty"`
}

// SpecialResponse スペシャル変更レスポンス
// @Description スペシャル変更レスポンス。supersededは自動で無効化された固定価格
type SpecialResponse struct {
	Special    ModifierView `json:"special"`
	Superseded []string     `json:"superseded"`
}

// SpecialListResponse スペシャル一覧レスポンス
// @Description スペシャル一覧レスポンス
type SpecialListResponse struct {
	ShopID   string         `json:"shop_id" example:"village"`
	Specials []ModifierView `json:"specials"`
}

// SearchHit 検索結果の1件
// @Description 検索結果の1件
type SearchHit struct {
	Special ModifierView `json:"special"`
	Score   int          `json:"score" example:"42"`
}

// SearchResponse 検索レスポンス
// @Description 検索レスポンス
type SearchResponse struct {
	Query   string      `json:"query" example:"sword"`
	Results []SearchHit `json:"results"`
}

// PreviewResponse プレビューレスポンス
// @Description baselineは対象を無効、withは有効とした場合の価格
type PreviewResponse struct {
	Baseline *QuoteView `json:"baseline"`
	With     *QuoteView `json:"with"`
	Delta    int64      `json:"delta" example:"20"`
}

// AuditEntryView 監査ログの1件
// @Description 監査ログの1件
type AuditEntryView struct {
	ID         string        `json:"id"`
	Seq        uint64        `json:"seq"`
	ModifierID string        `json:"modifier_id"`
	Actor      string        `json:"actor" example:"designer"`
	Action     string        `json:"action" example:"create"`
	At         time.Time     `json:"at"`
	Before     *ModifierView `json:"before,omitempty"`
	After      *ModifierView `json:"after,omitempty"`
}

// AuditResponse 監査ログレスポンス
// @Description 監査ログレスポンス
type AuditResponse struct {
	ShopID  string           `json:"shop_id" example:"village"`
	Entries []AuditEntryView `json:"entries"`
}
