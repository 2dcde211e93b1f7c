package handler

// CreateShopRequest ショップ取得・作成リクエスト
// @Description sharedは作成時のみ有効。既存ショップの共有設定は変わらない
type CreateShopRequest struct {
	ShopID string `json:"shop_id" example:"village"`
	Shared bool   `json:"shared" example:"false"`
}

// ShopResponse ショップ概要
// @Description ショップ概要
type ShopResponse struct {
	ShopID       string `json:"shop_id" example:"village"`
	Shared       bool   `json:"shared" example:"false"`
	Created      bool   `json:"created" example:"true"`
	Balance      int64  `json:"balance" example:"1200"`
	Specials     int    `json:"specials" example:"3"`
	ActiveLeases int    `json:"active_leases" example:"0"`
}

// ShopListResponse ショップ一覧レスポンス
// @Description ショップ一覧レスポンス
type ShopListResponse struct {
	Shops []ShopResponse `json:"shops"`
}
