package specials

import (
	"time"

	"shop-economy/internal/domain/audit"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
)

// Draft 作成時の修飾子定義（入力値そのまま）
type Draft struct {
	Name        string
	ScopeKind   string // "item", "category", "shop"
	ScopeTarget string
	Kind        string // "markup", "markdown", "fixed_override"
	Value       string // 10進数表記: "20", "12.5"
	Unit        string // "percent" or "absolute"
	Priority    int
	Start       *time.Time // 省略時は作成時刻
	End         *time.Time
	Manual      bool
	Side        string // optional: "buy", "sell", "both"
}

// Changes 編集内容。nilの項目は変更しない
type Changes struct {
	Name        *string
	ScopeKind   *string
	ScopeTarget *string
	Kind        *string
	Value       *string
	Unit        *string
	Priority    *int
	Start       *time.Time
	End         *time.Time
	ClearEnd    bool // trueの場合は終了時刻を削除
	Manual      *bool
	Side        *string
}

// CreateRequest 修飾子作成リクエスト
type CreateRequest struct {
	ShopID       string
	Actor        string
	Draft        Draft
	Disabled     bool // trueの場合は無効状態で作成
	AllowExpired bool // 過去の期間でも作成する
	Now          time.Time
}

// EditRequest 修飾子編集リクエスト
type EditRequest struct {
	ShopID       string
	ModifierID   string
	Actor        string
	Changes      Changes
	AllowExpired bool
	Now          time.Time
}

// ToggleRequest 有効・無効切替リクエスト
type ToggleRequest struct {
	ShopID     string
	ModifierID string
	Actor      string
	Now        time.Time
}

// RemoveRequest 削除リクエスト
type RemoveRequest struct {
	ShopID     string
	ModifierID string
	Actor      string
	Now        time.Time
}

// RemoveResponse 削除レスポンス
type RemoveResponse struct {
	Removed bool // falseの場合は元々存在しなかった
}

// MutationResponse 作成・編集・切替レスポンス
type MutationResponse struct {
	Modifier   modifier.State
	Superseded []string // 自動で無効化された固定価格のID
}

// PreviewRequest 既存修飾子のプレビューリクエスト
type PreviewRequest struct {
	ShopID          string
	ModifierID      string
	ItemID          string
	Category        string
	TransactionType string
	Now             time.Time
}

// PreviewDraftRequest 未保存の定義のプレビューリクエスト
type PreviewDraftRequest struct {
	ShopID          string
	Draft           Draft
	ItemID          string
	Category        string
	TransactionType string
	Now             time.Time
}

// PreviewResponse プレビューレスポンス
// Baselineは対象の修飾子を無効とした場合、Withは有効とした場合の価格
type PreviewResponse struct {
	Baseline *service.Quote
	With     *service.Quote
}

// ListRequest 一覧取得リクエスト
type ListRequest struct {
	ShopID     string
	ItemID     string // optional: このアイテムに適用されるものに限る
	Category   string
	Side       string // optional
	ActiveOnly bool
	Now        time.Time
}

// ListResponse 一覧取得レスポンス
type ListResponse struct {
	Modifiers []modifier.State
}

// SearchRequest 名前検索リクエスト
type SearchRequest struct {
	ShopID string
	Query  string
	Limit  int
}

// SearchResult 検索結果の1件
type SearchResult struct {
	Modifier modifier.State
	Score    int
}

// SearchResponse 名前検索レスポンス
type SearchResponse struct {
	Results []SearchResult
}

// AuditRequest 監査ログ取得リクエスト
type AuditRequest struct {
	ShopID string
}

// AuditResponse 監査ログ取得レスポンス
type AuditResponse struct {
	Entries []audit.Entry
}
