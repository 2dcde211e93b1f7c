package checkout

import "time"

// TradeRequest 購入・売却リクエスト
type TradeRequest struct {
	ShopID   string
	PlayerID string
	ItemID   string
	Category string // optional
	Quantity int
	Now      time.Time // シミュレーション時刻
}

// TradeResponse 購入・売却レスポンス
type TradeResponse struct {
	EventID         string
	ShopID          string
	PlayerID        string
	ItemID          string
	TransactionType string
	Quantity        int
	UnitPrice       int64
	Total           int64
	PlayerBalance   int64
	ShopBalance     int64
	AppliedIDs      []string
}

// GrantFundsRequest プレイヤー所持金付与リクエスト
type GrantFundsRequest struct {
	PlayerID string
	Amount   int64
}

// FundsResponse プレイヤー所持金レスポンス
type FundsResponse struct {
	PlayerID string
	Balance  int64
}
