package handler

// PriceResponse 実効価格レスポンス
// @Description 実効価格レスポンス
type PriceResponse struct {
	Quote  *QuoteView `json:"quote"`
	Cached bool       `json:"cached"`
}

// PriceListEntry 価格一覧の1件
// @Description 価格一覧の1件。売買できないアイテムはquoteがnull
type PriceListEntry struct {
	ItemID   string     `json:"item_id" example:"sword"`
	Category string     `json:"category" example:"weapons"`
	Tradable bool       `json:"tradable"`
	Quote    *QuoteView `json:"quote"`
}

// PriceListResponse 価格一覧レスポンス
// @Description 価格一覧レスポンス
type PriceListResponse struct {
	ShopID          string           `json:"shop_id" example:"village"`
	TransactionType string           `json:"transaction_type" example:"buy"`
	Entries         []PriceListEntry `json:"entries"`
}
