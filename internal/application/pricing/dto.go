package pricing

import (
	"time"

	"shop-economy/internal/domain/service"
)

// GetPriceRequest 実効価格取得リクエスト
type GetPriceRequest struct {
	ShopID          string
	ItemID          string
	Category        string // optional: カタログの値が優先される
	TransactionType string // "buy" or "sell"
	Now             time.Time
}

// GetPriceResponse 実効価格取得レスポンス
type GetPriceResponse struct {
	Quote  *service.Quote
	Cached bool
}

// PriceListRequest 価格表取得リクエスト
type PriceListRequest struct {
	ShopID          string
	TransactionType string
	Now             time.Time
}

// PriceListEntry 価格表の1行
type PriceListEntry struct {
	ItemID   string
	Category string
	Tradable bool
	Quote    *service.Quote // 売買不可の場合はnil
}

// PriceListResponse 価格表取得レスポンス
type PriceListResponse struct {
	ShopID  string
	Entries []PriceListEntry
}
