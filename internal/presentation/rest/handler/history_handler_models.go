package handler

import "time"

// TransactionEventView 取引イベント
// @Description 取引イベント
type TransactionEventView struct {
	EventID         string    `json:"event_id" example:"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`
	ShopID          string    `json:"shop_id" example:"village"`
	PlayerID        string    `json:"player_id" example:"alice"`
	ItemID          string    `json:"item_id" example:"sword"`
	Category        string    `json:"category" example:"weapons"`
	TransactionType string    `json:"transaction_type" example:"buy"`
	Quantity        int       `json:"quantity" example:"2"`
	UnitPrice       int64     `json:"unit_price" example:"120"`
	Total           int64     `json:"total" example:"240"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// TransactionHistoryResponse 取引履歴レスポンス
// @Description 取引履歴レスポンス
type TransactionHistoryResponse struct {
	ShopID string                 `json:"shop_id" example:"village"`
	Events []TransactionEventView `json:"events"`
	Total  int                    `json:"total" example:"1"`
	Limit  int                    `json:"limit" example:"50"`
	Offset int                    `json:"offset" example:"0"`
}
