package history

import "shop-economy/internal/domain/transaction"

// GetShopHistoryRequest ショップの取引履歴取得リクエスト
type GetShopHistoryRequest struct {
	ShopID          string
	Limit           int
	Offset          int
	PlayerID        string // optional
	ItemID          string // optional
	TransactionType string // optional: "buy" or "sell"
}

// GetShopHistoryResponse ショップの取引履歴取得レスポンス
type GetShopHistoryResponse struct {
	Events []*transaction.Event
	Total  int
	Limit  int
	Offset int
}
