package handler

// TradeRequest 売買リクエスト
// @Description 売買リクエスト
type TradeRequest struct {
	ItemID   string `json:"item_id" example:"sword"`
	Category string `json:"category,omitempty" example:"weapons"`
	Quantity int    `json:"quantity" example:"1"`
	At       string `json:"at,omitempty" example:"2026-03-01T09:00:00Z"`
}

// TradeResponse 売買レスポンス
// @Description 売買レスポンス
type TradeResponse struct {
	EventID         string   `json:"event_id" example:"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`
	ShopID          string   `json:"shop_id" example:"village"`
	PlayerID        string   `json:"player_id" example:"alice"`
	ItemID          string   `json:"item_id" example:"sword"`
	TransactionType string   `json:"transaction_type" example:"buy"`
	Quantity        int      `json:"quantity" example:"1"`
	UnitPrice       int64    `json:"unit_price" example:"120"`
	Total           int64    `json:"total" example:"120"`
	PlayerBalance   int64    `json:"player_balance" example:"380"`
	ShopBalance     int64    `json:"shop_balance" example:"120"`
	Applied         []string `json:"applied"`
}

// GrantFundsRequest 所持金付与リクエスト
// @Description 所持金付与リクエスト
type GrantFundsRequest struct {
	Amount int64 `json:"amount" example:"500"`
}

// FundsResponse 所持金レスポンス
// @Description 所持金レスポンス
type FundsResponse struct {
	PlayerID string `json:"player_id" example:"alice"`
	Balance  int64  `json:"balance" example:"500"`
}
